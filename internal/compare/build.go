package compare

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/fund-portal/internal/models"
)

// Getter loads one fund by ticker.
type Getter interface {
	GetFund(ctx context.Context, ticker string) (*models.Fund, error)
}

// Rejection is a requested ticker that was left out of a comparison.
type Rejection struct {
	Ticker  string
	Outcome Outcome
}

// FetchError names the ticker whose lookup stopped a Build.
type FetchError struct {
	Ticker string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fund %s: %v", e.Ticker, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseTickers splits a comma-separated ticker list, upper-cased, with blanks dropped.
func ParseTickers(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Build adds tickers to a new comparison in order, applying the same capacity
// and duplicate rules as Store.Add. Rejected tickers are never fetched. The
// first failed lookup aborts the build with a *FetchError.
func Build(ctx context.Context, getter Getter, tickers []string) ([]models.Fund, []Rejection, error) {
	store := NewStore()
	var rejected []Rejection
	for _, t := range tickers {
		if store.Len() >= MaxFunds {
			rejected = append(rejected, Rejection{Ticker: t, Outcome: RejectedCapacity})
			continue
		}
		if store.Contains(t) {
			rejected = append(rejected, Rejection{Ticker: t, Outcome: RejectedDuplicate})
			continue
		}
		f, err := getter.GetFund(ctx, t)
		if err != nil {
			return nil, nil, &FetchError{Ticker: t, Err: err}
		}
		// The service may canonicalise the ticker, so Add re-checks duplicates.
		if outcome := store.Add(*f); outcome != Added {
			rejected = append(rejected, Rejection{Ticker: t, Outcome: outcome})
		}
	}
	return store.Funds(), rejected, nil
}
