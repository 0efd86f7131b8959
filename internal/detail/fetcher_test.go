package detail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/fund-portal/internal/models"
)

type fakeGetter struct {
	mu    sync.Mutex
	calls []string
	funds map[string]models.Fund
	gates map[string]chan struct{}
	err   error
}

func newFakeGetter() *fakeGetter {
	return &fakeGetter{funds: map[string]models.Fund{}, gates: map[string]chan struct{}{}}
}

func (g *fakeGetter) GetFund(ctx context.Context, ticker string) (*models.Fund, error) {
	g.mu.Lock()
	g.calls = append(g.calls, ticker)
	gate := g.gates[ticker]
	fund, ok := g.funds[ticker]
	err := g.err
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("not found")
	}
	return &fund, nil
}

func (g *fakeGetter) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

// load runs one request to completion the way a session does.
func load(f *Fetcher, ticker string) State {
	ctx, seq := f.Begin(context.Background(), ticker)
	f.Complete(ctx, seq, ticker)
	return f.State()
}

func TestFetcher_Success(t *testing.T) {
	g := newFakeGetter()
	g.funds["VFIAX"] = models.Fund{Ticker: "VFIAX", Name: "Vanguard 500 Index Admiral"}
	f := NewFetcher(g, time.Second, nil)

	st := load(f, "VFIAX")
	if st.Fund == nil || st.Fund.Name != "Vanguard 500 Index Admiral" {
		t.Fatalf("expected fund loaded, got %+v", st)
	}
	if st.Loading || st.Err != "" {
		t.Errorf("expected settled state, got %+v", st)
	}
}

func TestFetcher_FailureClearsFund(t *testing.T) {
	g := newFakeGetter()
	g.funds["VFIAX"] = models.Fund{Ticker: "VFIAX"}
	f := NewFetcher(g, time.Second, nil)
	load(f, "VFIAX")

	g.err = errors.New("502")
	st := load(f, "VFIAX")
	if st.Err != FailedMessage {
		t.Errorf("expected failure message, got %q", st.Err)
	}
	if st.Fund != nil {
		t.Error("expected current fund cleared on failure")
	}
	if st.Loading {
		t.Error("expected loading false")
	}
}

func TestFetcher_SuccessClearsPriorError(t *testing.T) {
	g := newFakeGetter()
	f := NewFetcher(g, time.Second, nil)
	load(f, "MISSING")
	if f.State().Err == "" {
		t.Fatal("expected error first")
	}

	g.funds["FXAIX"] = models.Fund{Ticker: "FXAIX"}
	st := load(f, "FXAIX")
	if st.Err != "" || st.Fund == nil {
		t.Errorf("expected error cleared and fund set, got %+v", st)
	}
}

func TestFetcher_LastIssuedWins(t *testing.T) {
	g := newFakeGetter()
	g.funds["OLD"] = models.Fund{Ticker: "OLD"}
	g.funds["NEW"] = models.Fund{Ticker: "NEW"}
	gate := make(chan struct{})
	g.gates["OLD"] = gate
	f := NewFetcher(g, time.Second, nil)

	ctxOld, seqOld := f.Begin(context.Background(), "OLD")
	done := make(chan bool)
	go func() { done <- f.Complete(ctxOld, seqOld, "OLD") }()

	st := load(f, "NEW")
	if st.Fund == nil || st.Fund.Ticker != "NEW" {
		t.Fatalf("expected NEW, got %+v", st.Fund)
	}

	close(gate)
	if applied := <-done; applied {
		t.Error("expected stale response to be discarded")
	}
	if got := f.State().Fund.Ticker; got != "NEW" {
		t.Errorf("stale response overwrote state: %s", got)
	}
}

func TestBegin_CancelsOlderRequest(t *testing.T) {
	f := NewFetcher(newFakeGetter(), time.Second, nil)
	ctx1, _ := f.Begin(context.Background(), "A")
	f.Begin(context.Background(), "B")
	if ctx1.Err() == nil {
		t.Error("expected older request context cancelled")
	}
}

func TestBegin_SetsLoading(t *testing.T) {
	f := NewFetcher(newFakeGetter(), time.Second, nil)
	f.Begin(context.Background(), "A")
	st := f.State()
	if !st.Loading || st.Ticker != "A" {
		t.Errorf("expected loading for A, got %+v", st)
	}
}

func TestFetcher_TimeoutResolvesToFailure(t *testing.T) {
	g := newFakeGetter()
	g.gates["SLOW"] = make(chan struct{})
	g.funds["SLOW"] = models.Fund{Ticker: "SLOW"}
	f := NewFetcher(g, 10*time.Millisecond, nil)

	st := load(f, "SLOW")
	if st.Err != FailedMessage || st.Loading {
		t.Errorf("expected timeout failure, got %+v", st)
	}
}

func TestClear_IndependentOfFetchState(t *testing.T) {
	g := newFakeGetter()
	g.funds["A"] = models.Fund{Ticker: "A"}
	f := NewFetcher(g, time.Second, nil)
	load(f, "A")

	f.Clear()
	st := f.State()
	if st.Fund != nil || st.Err != "" {
		t.Errorf("expected cleared state, got %+v", st)
	}
	if g.callCount() != 1 {
		t.Errorf("Clear must not issue requests, got %d calls", g.callCount())
	}
}

func TestStop_DiscardsInFlight(t *testing.T) {
	g := newFakeGetter()
	g.funds["A"] = models.Fund{Ticker: "A"}
	g.gates["A"] = make(chan struct{})
	f := NewFetcher(g, time.Second, nil)

	ctx, seq := f.Begin(context.Background(), "A")
	f.Stop()
	if f.Complete(ctx, seq, "A") {
		t.Error("expected response discarded after Stop")
	}
	if f.State().Loading {
		t.Error("expected loading false after Stop")
	}
}

func TestState_ReturnsCopy(t *testing.T) {
	g := newFakeGetter()
	g.funds["A"] = models.Fund{Ticker: "A", Name: "Original"}
	f := NewFetcher(g, time.Second, nil)
	st := load(f, "A")
	st.Fund.Name = "Changed"
	if f.State().Fund.Name != "Original" {
		t.Error("State must return an independent copy")
	}
}
