// Package daemon provides the long-running budget monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/pipeline"
)

// Event types.
const (
	EventSnapshot        = "snapshot"
	EventAllocationDelta = "allocation_delta"
	EventCategoryRemoved = "category_removed"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DBPath       string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Sink receives every event the daemon emits, e.g. an AMQP publisher.
type Sink interface {
	Publish(ctx context.Context, eventType string, ts time.Time, payload any) error
}

// Snapshot is the budget state for status/event payloads.
type Snapshot struct {
	At            time.Time         `json:"at"`
	Paycheck      float64           `json:"paycheck"`
	Cadence       budget.Cadence    `json:"cadence"`
	MonthlyIncome float64           `json:"monthly_income"`
	Balance       float64           `json:"balance"`
	Categories    int               `json:"categories"`
	Selected      int               `json:"selected"`
	Allocations   model.Allocations `json:"allocations"`
	Recommended   model.Allocations `json:"recommended"`
	Perfect       model.Allocations `json:"perfect"`
}

// Delta captures what changed between polls. Map entries are new minus old;
// an entry that disappeared is reported as its negated old value.
type Delta struct {
	Balance     float64           `json:"balance"`
	Allocations model.Allocations `json:"allocations,omitempty"`
	Recommended model.Allocations `json:"recommended,omitempty"`
	Perfect     model.Allocations `json:"perfect,omitempty"`
	Removed     []string          `json:"removed,omitempty"`
}

func (d Delta) isZero() bool {
	return d.Balance == 0 &&
		len(d.Allocations) == 0 &&
		len(d.Recommended) == 0 &&
		len(d.Perfect) == 0 &&
		len(d.Removed) == 0
}

// Event is emitted whenever the budget changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DBPath          string    `json:"db_path"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// PlanView is the JSON form of a budget.Plan.
type PlanView struct {
	Balance     float64        `json:"balance"`
	Deficit     bool           `json:"deficit"`
	Highlighted []string       `json:"highlighted,omitempty"`
	Additions   []AdditionView `json:"additions,omitempty"`
}

// AdditionView is one proposed category.
type AdditionView struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

// BudgetResponse is served at /v1/budget.
type BudgetResponse struct {
	ComputedAt time.Time       `json:"computed_at"`
	Snapshot   budget.Snapshot `json:"snapshot"`
	Summary    budget.Summary  `json:"summary"`
	Plan       PlanView        `json:"plan"`
}

// Option configures a Service.
type Option func(*Service)

// WithSink forwards every event to sink.
func WithSink(sink Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	planner *pipeline.Planner
	sink    Sink
	sinkCh  chan Event

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	known       map[string]knownCategory
	removals    int64 // engine removals seen; a poll that straddles one is stale
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service over planner.
func New(cfg Config, planner *pipeline.Planner, opts ...Option) *Service {
	if cfg.Interval < time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}

	s := &Service{
		cfg:       cfg,
		planner:   planner,
		startedAt: time.Now(),
		known:     make(map[string]knownCategory),
		subs:      make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sink != nil {
		s.sinkCh = make(chan Event, cfg.EventsBuffer)
	}
	planner.Subscribe(s.onEngineEvent)
	return s
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/budget", s.handleBudget)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	mux.HandleFunc("DELETE /v1/categories/{id}", s.handleDeleteCategory)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		// Seed initial snapshot so status is useful immediately.
		s.pollOnce(ctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				s.pollOnce(ctx)
			}
		}
	})

	if s.sink != nil {
		g.Go(func() error {
			s.drainSink(ctx)
			return nil
		})
	}

	return g.Wait()
}

func (s *Service) pollOnce(ctx context.Context) {
	s.mu.RLock()
	removals := s.removals
	s.mu.RUnlock()

	res, err := s.planner.Refresh(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		slog.Warn("daemon poll failed", "error", err)
		return
	}

	now := time.Now()
	snap := snapshotFromResult(res, now)
	current := entityIndex(res.Categories)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	if s.removals != removals {
		// A delete landed while Refresh ran; its event already updated the
		// snapshot and this result may predate it.
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		slog.Debug("daemon poll discarded after concurrent removal")
		return
	}
	prev := s.snapshot
	prevExists := s.hasSnapshot
	prevKnown := s.known

	s.hasSnapshot = true
	s.snapshot = snap
	s.known = current
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      EventSnapshot,
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else {
		delta := diffSnapshots(prev, snap)
		delta.Removed = removedEntities(prevKnown, current)
		if !delta.isZero() {
			s.nextEventID++
			ev = Event{
				ID:        s.nextEventID,
				Type:      EventAllocationDelta,
				Timestamp: now,
				Snapshot:  snap,
				Delta:     delta,
			}
			if len(delta.Removed) > 0 {
				ev.Type = EventCategoryRemoved
			}
			publish = true
		}
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

// onEngineEvent runs under the planner lock and must not call the planner.
func (s *Service) onEngineEvent(e budget.Event) {
	if e.Type != budget.EventRemoved {
		return
	}

	now := time.Now()
	s.mu.Lock()
	s.removals++
	if !s.hasSnapshot {
		s.mu.Unlock()
		return
	}
	// Forget removed entities so the next poll does not report them again.
	for _, id := range e.Removed {
		delete(s.known, id)
	}
	for catID, k := range s.known {
		k.ids = slices.DeleteFunc(k.ids, func(id string) bool { return slices.Contains(e.Removed, id) })
		s.known[catID] = k
	}

	prev := s.snapshot
	snap := prev
	snap.At = now
	snap.Paycheck = e.Snapshot.Paycheck
	snap.Cadence = e.Snapshot.Cadence
	snap.MonthlyIncome = e.Snapshot.MonthlyIncome
	snap.Allocations = e.Snapshot.Allocations
	snap.Recommended = e.Snapshot.Recommended
	snap.Perfect = e.Snapshot.Perfect
	snap.Categories = len(s.known)
	snap.Selected = 0
	snap.Balance = snap.Paycheck
	for catID, k := range s.known {
		if k.selected {
			snap.Selected++
			snap.Balance -= snap.Allocations[catID]
		}
	}

	delta := diffSnapshots(prev, snap)
	delta.Removed = e.Removed

	s.snapshot = snap
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      EventCategoryRemoved,
		Timestamp: now,
		Snapshot:  snap,
		Delta:     delta,
	}
	s.mu.Unlock()

	s.publishEvent(ev)
}

func snapshotFromResult(res *pipeline.Result, at time.Time) Snapshot {
	return Snapshot{
		At:            at,
		Paycheck:      res.Snapshot.Paycheck,
		Cadence:       res.Snapshot.Cadence,
		MonthlyIncome: res.Snapshot.MonthlyIncome,
		Balance:       res.Plan.Balance,
		Categories:    len(res.Categories),
		Selected:      len(res.Selected()),
		Allocations:   res.Snapshot.Allocations,
		Recommended:   res.Snapshot.Recommended,
		Perfect:       res.Snapshot.Perfect,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Balance:     curr.Balance - prev.Balance,
		Allocations: diffMaps(prev.Allocations, curr.Allocations),
		Recommended: diffMaps(prev.Recommended, curr.Recommended),
		Perfect:     diffMaps(prev.Perfect, curr.Perfect),
	}
}

const epsilon = 1e-9

func diffMaps(prev, curr model.Allocations) model.Allocations {
	var out model.Allocations
	set := func(id string, v float64) {
		if out == nil {
			out = make(model.Allocations)
		}
		out[id] = v
	}
	for id, v := range curr {
		old, ok := prev[id]
		if !ok || math.Abs(v-old) > epsilon {
			set(id, v-old)
		}
	}
	for id, old := range prev {
		if _, ok := curr[id]; !ok {
			set(id, -old)
		}
	}
	return out
}

// knownCategory is what the daemon remembers about a category between polls.
type knownCategory struct {
	ids      []string // the category and its subcategories
	selected bool
}

func entityIndex(categories []model.Category) map[string]knownCategory {
	out := make(map[string]knownCategory, len(categories))
	for _, c := range categories {
		out[c.ID] = knownCategory{ids: c.EntityIDs(), selected: c.Selected}
	}
	return out
}

func removedEntities(prev, curr map[string]knownCategory) []string {
	var out []string
	for catID, k := range prev {
		if _, ok := curr[catID]; !ok {
			out = append(out, k.ids...)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()

	if s.sinkCh != nil {
		select {
		case s.sinkCh <- ev:
		default:
			slog.Warn("event sink backlog full, dropping event", "id", ev.ID, "type", ev.Type)
		}
	}
}

func (s *Service) drainSink(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.sinkCh:
			if err := s.sink.Publish(ctx, ev.Type, ev.Timestamp, ev); err != nil {
				slog.Warn("publishing event failed", "id", ev.ID, "type", ev.Type, "error", err)
			}
		}
	}
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DBPath:          s.cfg.DBPath,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func planView(p budget.Plan) PlanView {
	v := PlanView{Balance: p.Balance, Deficit: p.Deficit()}
	for _, c := range p.Highlighted {
		v.Highlighted = append(v.Highlighted, c.ID)
	}
	for _, a := range p.Additions {
		v.Additions = append(v.Additions, AdditionView{
			ID:     a.Category.ID,
			Name:   a.Category.Name,
			Type:   string(a.Category.Type),
			Amount: a.Amount,
		})
	}
	return v
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleBudget(w http.ResponseWriter, _ *http.Request) {
	res := s.planner.Last()
	if res == nil {
		http.Error(w, "budget not computed yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, BudgetResponse{
		ComputedAt: res.ComputedAt,
		Snapshot:   res.Snapshot,
		Summary:    res.Summary,
		Plan:       planView(res.Plan),
	})
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.planner.DeleteCategory(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("category deleted via API", "id", c.ID, "name", c.Name)
	writeJSON(w, http.StatusOK, map[string]any{"removed": c.EntityIDs()})
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
