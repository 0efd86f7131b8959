// Package detail loads the fund currently shown in the detail panel.
package detail

import (
	"context"
	"sync"
	"time"

	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/models"
)

// FailedMessage is shown whenever a detail request fails for any reason.
const FailedMessage = "Failed to fetch fund details. Please try again."

// Getter fetches one fund by ticker.
type Getter interface {
	GetFund(ctx context.Context, ticker string) (*models.Fund, error)
}

// State is a snapshot of the detail panel.
type State struct {
	Fund    *models.Fund
	Ticker  string
	Loading bool
	Err     string
}

// Fetcher keeps the current fund for one session. When calls overlap the last
// issued one wins and older responses are dropped.
type Fetcher struct {
	getter  Getter
	timeout time.Duration
	logger  *common.Logger

	mu     sync.Mutex
	state  State
	seq    uint64
	cancel context.CancelFunc
}

// NewFetcher creates a Fetcher. timeout bounds each request; zero means 10s.
func NewFetcher(getter Getter, timeout time.Duration, logger *common.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Fetcher{getter: getter, timeout: timeout, logger: logger}
}

// Begin marks a fetch for ticker as started and returns the request context and
// its sequence number. The caller publishes the loading state, then runs
// Complete, usually on another goroutine.
func (f *Fetcher) Begin(ctx context.Context, ticker string) (context.Context, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
	}
	f.seq++
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	f.cancel = cancel
	f.state.Loading = true
	f.state.Err = ""
	f.state.Ticker = ticker
	return reqCtx, f.seq
}

// Complete issues the request started by Begin and applies the response if seq
// is still the latest. It reports whether the state changed.
func (f *Fetcher) Complete(ctx context.Context, seq uint64, ticker string) bool {
	fund, err := f.getter.GetFund(ctx, ticker)

	f.mu.Lock()
	defer f.mu.Unlock()

	if seq != f.seq {
		return false
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.state.Loading = false
	if err != nil {
		f.logger.Warn().Err(err).Str("ticker", ticker).Msg("fund detail fetch failed")
		f.state.Err = FailedMessage
		f.state.Fund = nil
		return true
	}
	snapshot := *fund
	f.state.Fund = &snapshot
	f.state.Ticker = snapshot.Ticker
	return true
}

// Clear drops the current fund and error. An in-flight request still lands.
func (f *Fetcher) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Fund = nil
	f.state.Err = ""
	f.state.Ticker = ""
}

// Stop cancels any in-flight request and discards its response.
func (f *Fetcher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.state.Loading = false
}

// State returns a copy of the current state.
func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.state
	if f.state.Fund != nil {
		fund := *f.state.Fund
		s.Fund = &fund
	}
	return s
}
