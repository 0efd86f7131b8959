// Package session keeps the per-browser UI state of the fund portal and turns
// browser events into state changes and rendered region updates.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/compare"
	"github.com/bobmcallan/fund-portal/internal/detail"
	"github.com/bobmcallan/fund-portal/internal/search"
	"github.com/bobmcallan/fund-portal/internal/theme"
	"github.com/bobmcallan/fund-portal/internal/view"
)

// Event types sent by the browser.
const (
	EventInput         = "input"
	EventOpen          = "open"
	EventClose         = "close"
	EventKey           = "key"
	EventSelect        = "select"
	EventClearSearch   = "clear_search"
	EventClearFund     = "clear_fund"
	EventCompareAdd    = "compare_add"
	EventCompareRemove = "compare_remove"
	EventCompareClear  = "compare_clear"
	EventThemeToggle   = "theme_toggle"
	EventSync          = "sync"
)

// ErrUnknownEvent is returned by Handle for an unrecognised event type.
var ErrUnknownEvent = errors.New("unknown event type")

// Event is one browser interaction.
type Event struct {
	Type   string `json:"type"`
	Query  string `json:"query,omitempty"`
	Key    string `json:"key,omitempty"`
	Ticker string `json:"ticker,omitempty"`
}

// Update is pushed to the browser after every state change. Session names the
// session that rendered it, so a page whose session expired adopts the new one.
type Update struct {
	Session    string       `json:"session"`
	Regions    view.Regions `json:"regions"`
	Dark       bool         `json:"dark"`
	Notice     string       `json:"notice,omitempty"`
	ResetQuery bool         `json:"resetQuery,omitempty"`
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Searcher    search.Searcher
	Getter      detail.Getter
	Theme       *theme.Preference
	Renderer    *view.Renderer
	Logger      *common.Logger
	QuietPeriod time.Duration
	Timeout     time.Duration
	AfterFunc   search.AfterFunc
	Title       string
	Version     string
}

// Session is the UI state of one browser tab.
type Session struct {
	id      string
	deps    Deps
	logger  *common.Logger
	search  *search.Orchestrator
	detail  *detail.Fetcher
	compare *compare.Store
	broker  *Broker
	onTheme func()
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	renderMu sync.Mutex

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool
}

func newSession(id string, deps Deps, now func() time.Time) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	logger := deps.Logger
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	logger = logger.ForSession(id)
	s := &Session{
		id:       id,
		deps:     deps,
		logger:   logger,
		detail:   detail.NewFetcher(deps.Getter, deps.Timeout, logger),
		compare:  compare.NewStore(),
		broker:   NewBroker(),
		ctx:      ctx,
		cancel:   cancel,
		now:      now,
		lastSeen: now(),
	}
	s.search = search.NewOrchestrator(deps.Searcher,
		search.WithQuietPeriod(deps.QuietPeriod),
		search.WithTimeout(deps.Timeout),
		search.WithAfterFunc(deps.AfterFunc),
		search.WithLogger(logger),
		search.WithOnChange(func(search.State) { s.publish("", false) }),
	)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Subscribe attaches a connection to this session's updates.
func (s *Session) Subscribe() (int64, <-chan Update) {
	return s.broker.Subscribe()
}

// Unsubscribe detaches a connection.
func (s *Session) Unsubscribe(id int64) {
	s.broker.Unsubscribe(id)
}

// Handle applies one browser event.
func (s *Session) Handle(ctx context.Context, ev Event) error {
	s.touch(s.now())

	switch ev.Type {
	case EventInput:
		s.search.Input(ev.Query)
	case EventOpen:
		s.search.Open()
	case EventClose:
		s.search.Close()
	case EventKey:
		if ticker, ok := s.search.Key(search.Key(ev.Key)); ok {
			s.fetch(ticker)
		}
	case EventSelect:
		if ev.Ticker == "" {
			return fmt.Errorf("%s event requires a ticker", ev.Type)
		}
		s.search.Select()
		s.fetch(ev.Ticker)
	case EventClearSearch:
		s.search.Clear()
		s.publish("", true)
	case EventClearFund:
		s.detail.Clear()
		s.publish("", false)
	case EventCompareAdd:
		s.addCurrentToComparison(ev.Ticker)
	case EventCompareRemove:
		s.compare.Remove(ev.Ticker)
		s.publish("", false)
	case EventCompareClear:
		s.compare.Clear()
		s.publish("", false)
	case EventThemeToggle:
		if _, err := s.deps.Theme.Toggle(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("theme toggle not persisted")
		}
		if s.onTheme != nil {
			s.onTheme()
		} else {
			s.publish("", false)
		}
	case EventSync:
		s.publish("", false)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}

// fetch loads ticker into the detail panel in the background. The query box is
// reset because a fetch always follows a selection.
func (s *Session) fetch(ticker string) {
	reqCtx, seq := s.detail.Begin(s.ctx, ticker)
	s.publish("", true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.detail.Complete(reqCtx, seq, ticker) {
			s.publish("", false)
		}
	}()
}

func (s *Session) addCurrentToComparison(ticker string) {
	current := s.detail.State().Fund
	if current == nil {
		return
	}
	if ticker != "" && ticker != current.Ticker {
		s.logger.Debug().Str("ticker", ticker).Str("current", current.Ticker).Msg("ignoring compare for fund no longer shown")
		return
	}
	outcome := s.compare.Add(*current)
	s.logger.Debug().Str("ticker", current.Ticker).Str("outcome", outcome.String()).Msg("compare add")
	s.publish(outcome.Message(), false)
}

// View builds the full page view from the current state.
func (s *Session) View() view.PageView {
	st := s.search.State()
	d := s.detail.State()
	comparing := d.Fund != nil && s.compare.Contains(d.Fund.Ticker)
	dark := false
	if s.deps.Theme != nil {
		dark = s.deps.Theme.Dark()
	}
	return view.PageView{
		Title:      s.deps.Title,
		SessionID:  s.id,
		Dark:       dark,
		Version:    s.deps.Version,
		Search:     view.Search(st),
		Detail:     view.Detail(d, comparing),
		Charts:     view.Charts(d.Fund),
		Comparison: view.Comparison(s.compare.Funds()),
	}
}

// publish renders the current state and pushes it to subscribers. Rendering is
// serialised so the last update sent always reflects the latest state.
func (s *Session) publish(notice string, resetQuery bool) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	p := s.View()
	regions, err := s.deps.Renderer.Regions(p)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to render regions")
		return
	}
	s.broker.Publish(Update{
		Session:    s.id,
		Regions:    regions,
		Dark:       p.Dark,
		Notice:     notice,
		ResetQuery: resetQuery,
	})
}

// Wait blocks until background detail fetches have finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Close stops timers and in-flight requests and disconnects subscribers.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.search.Stop()
	s.detail.Stop()
	s.wg.Wait()
	s.broker.Close()
}
