package planner

import (
	"errors"
	"testing"
	"time"
)

func TestReminderLifecycle(t *testing.T) {
	store := newTestStore(t)
	svc := &ReminderService{store: store}

	due := time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC)
	reminder, err := svc.Create("u1", ReminderParams{Title: "Take medication", Due: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if reminder.Completed {
		t.Error("new reminder must start incomplete")
	}

	done, err := svc.MarkComplete("u1", reminder.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed {
		t.Error("reminder not marked complete")
	}

	if err := svc.Delete("u1", reminder.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete("u1", reminder.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestReminderDue(t *testing.T) {
	store := newTestStore(t)
	svc := &ReminderService{store: store}

	now := time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if _, err := svc.Create("u1", ReminderParams{Title: "ready", Due: &past}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create("u1", ReminderParams{Title: "not yet", Due: &future}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create("u1", ReminderParams{Title: "whenever"}); err != nil {
		t.Fatal(err)
	}

	due, err := svc.Due("u1", now)
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 1 || due[0].Title != "ready" {
		t.Errorf("unexpected due set: %+v", due)
	}

	pending, err := svc.Pending("u1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 3 {
		t.Errorf("expected 3 pending reminders, got %d", len(pending))
	}
}
