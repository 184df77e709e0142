package planner

import (
	"errors"
	"testing"
	"time"
)

func TestTaskLifecycle(t *testing.T) {
	store := newTestStore(t)
	svc := &TaskService{store: store}

	due := time.Date(2026, 9, 3, 17, 0, 0, 0, time.UTC)
	task, err := svc.Create("u1", TaskParams{Title: "File taxes", Due: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Completed {
		t.Error("new task must start incomplete")
	}

	done, err := svc.MarkComplete("u1", task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !done.Completed {
		t.Error("task not marked complete")
	}

	undone, err := svc.MarkIncomplete("u1", task.ID)
	if err != nil {
		t.Fatalf("incomplete: %v", err)
	}
	if undone.Completed {
		t.Error("task not marked incomplete")
	}

	if err := svc.Delete("u1", task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetByID("u1", task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTaskCreateRequiresTitle(t *testing.T) {
	store := newTestStore(t)
	svc := &TaskService{store: store}

	if _, err := svc.Create("u1", TaskParams{}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestTaskPendingOrdering(t *testing.T) {
	store := newTestStore(t)
	svc := &TaskService{store: store}

	later := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	sooner := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)

	if _, err := svc.Create("u1", TaskParams{Title: "no due date"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create("u1", TaskParams{Title: "due later", Due: &later}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create("u1", TaskParams{Title: "due soon", Due: &sooner}); err != nil {
		t.Fatal(err)
	}

	completed, err := svc.Create("u1", TaskParams{Title: "already done"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkComplete("u1", completed.ID); err != nil {
		t.Fatal(err)
	}

	pending, err := svc.Pending("u1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending tasks, got %d", len(pending))
	}
	wantOrder := []string{"due soon", "due later", "no due date"}
	for i, want := range wantOrder {
		if pending[i].Title != want {
			t.Errorf("pending[%d] = %q, want %q", i, pending[i].Title, want)
		}
	}
}

func TestTaskOverdue(t *testing.T) {
	store := newTestStore(t)
	svc := &TaskService{store: store}

	now := time.Date(2026, 9, 5, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	if _, err := svc.Create("u1", TaskParams{Title: "late", Due: &past}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create("u1", TaskParams{Title: "on track", Due: &future}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create("u1", TaskParams{Title: "no deadline"}); err != nil {
		t.Fatal(err)
	}

	// A completed late task is not overdue.
	doneTask, err := svc.Create("u1", TaskParams{Title: "late but done", Due: &past})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.MarkComplete("u1", doneTask.ID); err != nil {
		t.Fatal(err)
	}

	overdue, err := svc.Overdue("u1", now)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].Title != "late" {
		t.Errorf("unexpected overdue set: %+v", overdue)
	}
}
