package planner

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/events"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), nil, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenMigratesIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := Open(path, nil, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	store.Close()

	// Second open re-runs the migration against existing tables.
	store, err = Open(path, nil, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	store.Close()
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("empty ID")
		}
		if seen[id] {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = true
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	bus := events.New()
	ch := bus.Subscribe(16)
	defer bus.Unsubscribe(ch)

	store, err := Open(filepath.Join(t.TempDir(), "test.db"), bus, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	svc := &TaskService{store: store}
	task, err := svc.Create("u1", TaskParams{Title: "Water plants"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case e := <-ch:
		if e.Source != events.SourcePlanner || e.Kind != events.KindEntityCreated {
			t.Errorf("unexpected event: %+v", e)
		}
		if e.Data["entity"] != "task" || e.Data["id"] != task.ID || e.Data["owner"] != "u1" {
			t.Errorf("unexpected event data: %+v", e.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestTimeRoundTrip(t *testing.T) {
	in := time.Date(2026, 9, 1, 14, 30, 15, 123456789, time.FixedZone("CEST", 2*3600))
	out := parseTime(formatTime(in))
	if !out.Equal(in) {
		t.Errorf("round trip changed instant: %v != %v", out, in)
	}
	if out.Location() != time.UTC {
		t.Errorf("stored time not UTC: %v", out.Location())
	}
}
