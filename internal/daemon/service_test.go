package daemon

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/pipeline"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *catalog.Memory) {
	t.Helper()
	cat := catalog.NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	engine := budget.New(3000, budget.Monthly, budget.WithClock(func() time.Time { return now }))
	planner := pipeline.NewPlanner(cat, engine)
	s := New(Config{Interval: 10 * time.Second, EventsBuffer: 50}, planner, opts...)
	return s, cat
}

func addFood(t *testing.T, cat *catalog.Memory) model.Category {
	t.Helper()
	c, err := cat.AddCategory(context.Background(), model.Category{
		Name: "Food", Type: model.Need, Priority: 1, Selected: true,
		Subcategories: []model.Subcategory{
			{Name: "Groceries", AllocationPercentage: 100, Amount: model.Float(200), Selected: true},
		},
	})
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	return c
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Balance:     500,
		Allocations: model.Allocations{"a": 100, "b": 50},
		Recommended: model.Allocations{"a": 300},
		Perfect:     model.Allocations{"a": 1500},
	}
	curr := Snapshot{
		Balance:     450,
		Allocations: model.Allocations{"a": 150, "c": 20},
		Recommended: model.Allocations{"a": 300},
		Perfect:     model.Allocations{"a": 1500},
	}

	delta := diffSnapshots(prev, curr)
	if math.Abs(delta.Balance+50) > 1e-9 {
		t.Fatalf("Balance delta = %.2f, want -50", delta.Balance)
	}
	if got := delta.Allocations["a"]; math.Abs(got-50) > 1e-9 {
		t.Fatalf("a delta = %.2f, want 50", got)
	}
	if got := delta.Allocations["b"]; math.Abs(got+50) > 1e-9 {
		t.Fatalf("b delta = %.2f, want -50", got)
	}
	if got := delta.Allocations["c"]; math.Abs(got-20) > 1e-9 {
		t.Fatalf("c delta = %.2f, want 20", got)
	}
	if delta.Recommended != nil || delta.Perfect != nil {
		t.Fatalf("unchanged maps reported changes: %v %v", delta.Recommended, delta.Perfect)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
}

func TestDiffSnapshotsUnchanged(t *testing.T) {
	snap := Snapshot{Balance: 10, Allocations: model.Allocations{"a": 1}}
	if d := diffSnapshots(snap, snap); !d.isZero() {
		t.Fatalf("identical snapshots produced delta %+v", d)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s, _ := newTestService(t)
	s.cfg.EventsBuffer = 2

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnceEmitsSnapshotThenDelta(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestService(t)
	food := addFood(t, cat)
	groceries := food.Subcategories[0].ID

	s.pollOnce(ctx)
	s.pollOnce(ctx)

	s.mu.RLock()
	if len(s.events) != 1 || s.events[0].Type != EventSnapshot {
		s.mu.RUnlock()
		t.Fatalf("events after two idle polls = %+v, want one snapshot", s.events)
	}
	if got := s.snapshot.Allocations[food.ID]; got != 200 {
		s.mu.RUnlock()
		t.Fatalf("snapshot food allocation = %.2f, want 200", got)
	}
	s.mu.RUnlock()

	if err := cat.UpdateAmount(ctx, groceries, model.Float(350)); err != nil {
		t.Fatalf("UpdateAmount: %v", err)
	}
	s.pollOnce(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	ev := s.events[1]
	if ev.Type != EventAllocationDelta {
		t.Fatalf("event type = %q, want %q", ev.Type, EventAllocationDelta)
	}
	if got := ev.Delta.Allocations[groceries]; math.Abs(got-150) > 1e-9 {
		t.Fatalf("groceries delta = %.2f, want 150", got)
	}
	if math.Abs(ev.Delta.Balance+150) > 1e-9 {
		t.Fatalf("balance delta = %.2f, want -150", ev.Delta.Balance)
	}
}

func TestDeleteCategoryEndpoint(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestService(t)
	food := addFood(t, cat)
	s.pollOnce(ctx)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/categories/"+food.ID, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE status = %d, want 200", resp.StatusCode)
	}

	// Before any further poll, budget and status must already reflect the
	// delete.
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/budget", nil))
	var body BudgetResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode budget: %v", err)
	}
	for _, id := range food.EntityIDs() {
		for name, m := range map[string]model.Allocations{
			"allocations": body.Snapshot.Allocations,
			"recommended": body.Snapshot.Recommended,
			"perfect":     body.Snapshot.Perfect,
		} {
			if _, ok := m[id]; ok {
				t.Fatalf("/v1/budget %s still has %s", name, id)
			}
		}
	}
	if math.Abs(body.Plan.Balance-3000) > 1e-9 {
		t.Fatalf("budget balance after delete = %.2f, want 3000", body.Plan.Balance)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	var st Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if math.Abs(st.Summary.Balance-3000) > 1e-9 {
		t.Fatalf("status balance after delete = %.2f, want 3000", st.Summary.Balance)
	}
	if st.Summary.Categories != 0 || st.Summary.Selected != 0 {
		t.Fatalf("status categories/selected = %d/%d, want 0/0", st.Summary.Categories, st.Summary.Selected)
	}

	// A later poll must not report the same removal again.
	s.pollOnce(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	removed := 0
	for _, ev := range s.events {
		if ev.Type != EventCategoryRemoved {
			continue
		}
		removed++
		if len(ev.Delta.Removed) != 2 {
			t.Fatalf("removed IDs = %v, want category and subcategory", ev.Delta.Removed)
		}
		if _, ok := ev.Snapshot.Allocations[food.ID]; ok {
			t.Fatal("removed category still present in event snapshot")
		}
	}
	if removed != 1 {
		t.Fatalf("category_removed events = %d, want 1", removed)
	}

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/v1/categories/"+food.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("second DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second DELETE status = %d, want 404", resp.StatusCode)
	}
}

// removingCatalog deletes a category from inside Categories, the way a
// DELETE request lands while a poll is loading.
type removingCatalog struct {
	*catalog.Memory
	remove func()
}

func (r *removingCatalog) Categories(ctx context.Context) ([]model.Category, error) {
	cats, err := r.Memory.Categories(ctx)
	if r.remove != nil {
		fn := r.remove
		r.remove = nil
		fn()
	}
	return cats, err
}

func TestPollDiscardedAfterConcurrentRemoval(t *testing.T) {
	ctx := context.Background()
	mem := catalog.NewMemory()
	cat := &removingCatalog{Memory: mem}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	engine := budget.New(3000, budget.Monthly, budget.WithClock(func() time.Time { return now }))
	s := New(Config{Interval: 10 * time.Second, EventsBuffer: 50}, pipeline.NewPlanner(cat, engine))

	food := addFood(t, mem)
	s.pollOnce(ctx)

	// The removal goes straight to the catalog and the listener so the
	// planner lock held by Refresh is not re-entered.
	cat.remove = func() {
		if _, err := mem.DeleteCategory(ctx, food.ID); err != nil {
			t.Errorf("DeleteCategory: %v", err)
		}
		s.onEngineEvent(budget.Event{
			Type:     budget.EventRemoved,
			Snapshot: budget.Snapshot{Paycheck: 3000, Cadence: budget.Monthly},
			Removed:  food.EntityIDs(),
		})
	}
	s.pollOnce(ctx)

	s.mu.RLock()
	if _, ok := s.known[food.ID]; ok {
		s.mu.RUnlock()
		t.Fatal("stale poll brought the deleted category back")
	}
	if s.pollCount != 2 {
		s.mu.RUnlock()
		t.Fatalf("pollCount = %d, want 2", s.pollCount)
	}
	s.mu.RUnlock()

	s.pollOnce(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	removed := 0
	for _, ev := range s.events {
		if ev.Type == EventCategoryRemoved {
			removed++
		}
	}
	if removed != 1 {
		t.Fatalf("category_removed events = %d, want 1", removed)
	}
	if math.Abs(s.snapshot.Balance-3000) > 1e-9 {
		t.Fatalf("snapshot balance = %.2f, want 3000", s.snapshot.Balance)
	}
}

func TestHandleBudget(t *testing.T) {
	s, cat := newTestService(t)
	addFood(t, cat)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/budget", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status before first poll = %d, want 503", rec.Code)
	}

	s.pollOnce(context.Background())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/budget", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body BudgetResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if math.Abs(body.Plan.Balance-2800) > 1e-9 {
		t.Fatalf("plan balance = %.2f, want 2800", body.Plan.Balance)
	}
	if body.Plan.Deficit {
		t.Fatal("plan reported a deficit")
	}
	if body.Snapshot.Paycheck != 3000 {
		t.Fatalf("paycheck = %.2f, want 3000", body.Snapshot.Paycheck)
	}
}

func TestHandleStatusAndHealth(t *testing.T) {
	s, cat := newTestService(t)
	addFood(t, cat)
	s.pollOnce(context.Background())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	var st Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.PollCount != 1 || st.EventCount != 1 {
		t.Fatalf("poll/event count = %d/%d, want 1/1", st.PollCount, st.EventCount)
	}
	if st.Summary.Categories != 1 || st.Summary.Selected != 1 {
		t.Fatalf("categories/selected = %d/%d, want 1/1", st.Summary.Categories, st.Summary.Selected)
	}
}

type recordingSink struct {
	got chan string
}

func (r *recordingSink) Publish(_ context.Context, eventType string, _ time.Time, _ any) error {
	r.got <- eventType
	return nil
}

func TestSinkReceivesEvents(t *testing.T) {
	sink := &recordingSink{got: make(chan string, 4)}
	s, cat := newTestService(t, WithSink(sink))
	addFood(t, cat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.drainSink(ctx)
		close(done)
	}()

	s.pollOnce(ctx)

	select {
	case typ := <-sink.got:
		if typ != EventSnapshot {
			t.Fatalf("sink event = %q, want %q", typ, EventSnapshot)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sink did not receive the snapshot event")
	}

	cancel()
	<-done
}
