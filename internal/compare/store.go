// Package compare holds the set of funds selected for side-by-side comparison.
package compare

import (
	"sync"

	"github.com/bobmcallan/fund-portal/internal/models"
)

// MaxFunds is the maximum number of funds compared at once.
const MaxFunds = 3

// Outcome is the result of adding a fund to the comparison.
type Outcome int

const (
	Added Outcome = iota
	RejectedCapacity
	RejectedDuplicate
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case RejectedCapacity:
		return "rejected_capacity"
	case RejectedDuplicate:
		return "rejected_duplicate"
	default:
		return "unknown"
	}
}

// Message returns the user-facing notice for a rejection, or "" when added.
func (o Outcome) Message() string {
	switch o {
	case RejectedCapacity:
		return "You can compare up to 3 funds at a time"
	case RejectedDuplicate:
		return "This fund is already in comparison"
	default:
		return ""
	}
}

// Store is an insertion-ordered set of fund snapshots, unique by ticker.
type Store struct {
	mu    sync.Mutex
	funds []models.Fund
}

// NewStore creates an empty comparison.
func NewStore() *Store {
	return &Store{}
}

// Add appends fund unless the comparison is full or already holds its ticker.
// Capacity is checked first. Rejections leave the store unchanged.
func (s *Store) Add(fund models.Fund) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.funds) >= MaxFunds {
		return RejectedCapacity
	}
	for _, f := range s.funds {
		if f.Ticker == fund.Ticker {
			return RejectedDuplicate
		}
	}
	s.funds = append(s.funds, fund)
	return Added
}

// Remove drops the fund with ticker and reports whether it was present.
func (s *Store) Remove(ticker string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, f := range s.funds {
		if f.Ticker == ticker {
			s.funds = append(s.funds[:i:i], s.funds[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the comparison.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funds = nil
}

// Funds returns a copy of the compared funds in insertion order.
func (s *Store) Funds() []models.Fund {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Fund, len(s.funds))
	copy(out, s.funds)
	return out
}

// Len returns the number of compared funds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.funds)
}

// Contains reports whether ticker is being compared.
func (s *Store) Contains(ticker string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.funds {
		if f.Ticker == ticker {
			return true
		}
	}
	return false
}
