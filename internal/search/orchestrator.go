// Package search implements search-as-you-type for funds: a debounced query
// dispatcher, a last-issued-wins response guard, and the dropdown keyboard
// state machine.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/models"
)

// FailedMessage is shown whenever a search request fails for any reason.
const FailedMessage = "Failed to fetch search results. Please try again."

const (
	defaultQuietPeriod = 300 * time.Millisecond
	defaultTimeout     = 10 * time.Second
)

// Searcher performs the remote fund search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// Timer is a pending delayed call that can be cancelled.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Key is a navigation key forwarded from the search input.
type Key string

const (
	KeyArrowDown Key = "ArrowDown"
	KeyArrowUp   Key = "ArrowUp"
	KeyEnter     Key = "Enter"
	KeyEscape    Key = "Escape"
)

// State is a snapshot of the search UI.
type State struct {
	Query     string
	Results   []models.SearchResult
	Loading   bool
	Err       string
	Open      bool
	Highlight int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithQuietPeriod sets the debounce delay between the last input and the request.
func WithQuietPeriod(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.quiet = d
		}
	}
}

// WithTimeout bounds each search request.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithAfterFunc replaces the timer source. Tests use it to fire debounce timers by hand.
func WithAfterFunc(f AfterFunc) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.afterFunc = f
		}
	}
}

// WithOnChange registers an observer called after every state change.
// It runs outside the orchestrator lock and may call State.
func WithOnChange(f func(State)) Option {
	return func(o *Orchestrator) {
		o.onChange = f
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(logger *common.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator owns the search state for one session.
type Orchestrator struct {
	searcher  Searcher
	quiet     time.Duration
	timeout   time.Duration
	afterFunc AfterFunc
	onChange  func(State)
	logger    *common.Logger

	mu      sync.Mutex
	state   State
	timer   Timer
	gen     uint64 // bumped whenever the pending dispatch is replaced or cancelled
	seq     uint64 // id of the latest issued request
	cancel  context.CancelFunc
	stopped bool
}

// NewOrchestrator creates an Orchestrator backed by searcher.
func NewOrchestrator(searcher Searcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		searcher:  searcher,
		quiet:     defaultQuietPeriod,
		timeout:   defaultTimeout,
		afterFunc: realAfterFunc,
		logger:    common.NewSilentLogger(),
		state:     State{Highlight: -1},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Input records new query text, opens the dropdown and reschedules the dispatch.
// A blank query clears results and sends nothing.
func (o *Orchestrator) Input(query string) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.state.Query = query
	o.state.Open = true
	o.stopTimerLocked()

	if strings.TrimSpace(query) == "" {
		o.invalidateLocked()
		o.state.Results = nil
		o.state.Err = ""
		o.state.Loading = false
		o.state.Highlight = -1
	} else {
		gen := o.gen
		o.timer = o.afterFunc(o.quiet, func() { o.dispatch(gen) })
	}
	s := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(s)
}

// dispatch issues the request for the current query if gen is still current.
func (o *Orchestrator) dispatch(gen uint64) {
	o.mu.Lock()
	if o.stopped || gen != o.gen {
		o.mu.Unlock()
		return
	}
	o.timer = nil
	if o.cancel != nil {
		o.cancel()
	}
	o.seq++
	seq := o.seq
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	o.cancel = cancel
	query := o.state.Query
	o.state.Loading = true
	o.state.Err = ""
	s := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(s)

	results, err := o.searcher.Search(ctx, query)
	cancel()

	o.mu.Lock()
	if seq != o.seq {
		o.mu.Unlock()
		return
	}
	o.cancel = nil
	o.state.Loading = false
	o.state.Highlight = -1
	if err != nil {
		o.logger.Warn().Err(err).Str("query", query).Msg("fund search failed")
		o.state.Err = FailedMessage
		o.state.Results = nil
	} else {
		o.state.Results = results
	}
	s = o.snapshotLocked()
	o.mu.Unlock()

	o.notify(s)
}

// Open marks the dropdown open, as on input focus.
func (o *Orchestrator) Open() {
	o.setOpen(true)
}

// Close marks the dropdown closed, as on a pointer press outside the search box.
func (o *Orchestrator) Close() {
	o.setOpen(false)
}

func (o *Orchestrator) setOpen(open bool) {
	o.mu.Lock()
	if o.state.Open == open {
		o.mu.Unlock()
		return
	}
	o.state.Open = open
	s := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(s)
}

// Key applies a navigation key. Keys are ignored while the dropdown is closed.
// On Enter with a highlighted result the result is selected and its ticker returned.
func (o *Orchestrator) Key(k Key) (ticker string, selected bool) {
	o.mu.Lock()
	if !o.state.Open {
		o.mu.Unlock()
		return "", false
	}

	changed := false
	switch k {
	case KeyArrowDown:
		if o.state.Highlight < len(o.state.Results)-1 {
			o.state.Highlight++
			changed = true
		}
	case KeyArrowUp:
		if o.state.Highlight > 0 {
			o.state.Highlight--
			changed = true
		}
	case KeyEnter:
		idx := o.state.Highlight
		if idx >= 0 && idx < len(o.state.Results) {
			ticker = o.state.Results[idx].Ticker
			selected = true
			o.selectLocked()
			changed = true
		}
	case KeyEscape:
		o.state.Open = false
		changed = true
	}

	if !changed {
		o.mu.Unlock()
		return ticker, selected
	}
	s := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(s)
	return ticker, selected
}

// Select closes the dropdown and clears the query and results after a result is
// chosen. The caller is responsible for fetching the selected fund.
func (o *Orchestrator) Select() {
	o.mu.Lock()
	o.selectLocked()
	s := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(s)
}

func (o *Orchestrator) selectLocked() {
	o.stopTimerLocked()
	o.invalidateLocked()
	o.state.Open = false
	o.state.Query = ""
	o.state.Results = nil
	o.state.Err = ""
	o.state.Loading = false
	o.state.Highlight = -1
}

// Clear empties the query, results and error. The open flag is left as is.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	o.stopTimerLocked()
	o.invalidateLocked()
	o.state.Query = ""
	o.state.Results = nil
	o.state.Err = ""
	o.state.Loading = false
	o.state.Highlight = -1
	s := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(s)
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Stop cancels pending and in-flight work. Later calls to Input are ignored.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopped = true
	o.stopTimerLocked()
	o.invalidateLocked()
	o.state.Loading = false
}

func (o *Orchestrator) stopTimerLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.gen++
}

// invalidateLocked makes any in-flight response stale and cancels its request.
func (o *Orchestrator) invalidateLocked() {
	o.seq++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Orchestrator) snapshotLocked() State {
	s := o.state
	if o.state.Results != nil {
		s.Results = make([]models.SearchResult, len(o.state.Results))
		copy(s.Results, o.state.Results)
	}
	return s
}

func (o *Orchestrator) notify(s State) {
	if o.onChange != nil {
		o.onChange(s)
	}
}
