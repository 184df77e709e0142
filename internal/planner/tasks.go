package planner

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/events"
)

// TaskService provides owner-scoped CRUD over tasks.
type TaskService struct {
	store *Store
}

const taskColumns = `id, owner, title, description, due, completed, created_at`

// Create validates the payload, stamps the owner, and inserts a task.
// The completion flag always defaults to false.
func (svc *TaskService) Create(owner string, p TaskParams) (*Task, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if p.Title == "" {
		return nil, fmt.Errorf("%w: task title is required", ErrValidation)
	}

	t := &Task{
		ID:          NewID(),
		Owner:       owner,
		Title:       p.Title,
		Description: p.Description,
		Due:         p.Due,
		Completed:   false,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := svc.store.db.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`, t.ID, t.Owner, t.Title, t.Description, formatTimePtr(t.Due), formatTime(t.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	svc.store.publish(events.KindEntityCreated, "task", t.ID, owner)
	return t, nil
}

// GetAll returns all of the owner's tasks, newest first.
func (svc *TaskService) GetAll(owner string) ([]*Task, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryTasks(`SELECT `+taskColumns+` FROM tasks WHERE owner = ? ORDER BY created_at DESC`, owner)
}

// GetByID returns one task, or ErrNotFound.
func (svc *TaskService) GetByID(owner, id string) (*Task, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	row := svc.store.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE owner = ? AND id = ?`, owner, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// Pending returns the owner's incomplete tasks, soonest due first.
// Tasks without a due timestamp sort last.
func (svc *TaskService) Pending(owner string) ([]*Task, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryTasks(`
		SELECT `+taskColumns+` FROM tasks
		WHERE owner = ? AND completed = 0
		ORDER BY due IS NULL, due, created_at
	`, owner)
}

// Overdue returns the owner's incomplete tasks whose due timestamp has
// passed as of now.
func (svc *TaskService) Overdue(owner string, now time.Time) ([]*Task, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryTasks(`
		SELECT `+taskColumns+` FROM tasks
		WHERE owner = ? AND completed = 0 AND due IS NOT NULL AND due < ?
		ORDER BY due
	`, owner, formatTime(now))
}

// Update applies a partial update and returns the updated task.
func (svc *TaskService) Update(owner, id string, u TaskUpdate) (*Task, error) {
	t, err := svc.GetByID(owner, id)
	if err != nil {
		return nil, err
	}

	if u.Title != nil {
		if *u.Title == "" {
			return nil, fmt.Errorf("%w: task title cannot be empty", ErrValidation)
		}
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = u.Description
	}
	if u.Due != nil {
		t.Due = u.Due
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}

	completed := 0
	if t.Completed {
		completed = 1
	}

	_, err = svc.store.db.Exec(`
		UPDATE tasks SET title = ?, description = ?, due = ?, completed = ?
		WHERE owner = ? AND id = ?
	`, t.Title, t.Description, formatTimePtr(t.Due), completed, owner, id)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	svc.store.publish(events.KindEntityUpdated, "task", id, owner)
	return t, nil
}

// MarkComplete sets the completion flag.
func (svc *TaskService) MarkComplete(owner, id string) (*Task, error) {
	done := true
	return svc.Update(owner, id, TaskUpdate{Completed: &done})
}

// MarkIncomplete clears the completion flag.
func (svc *TaskService) MarkIncomplete(owner, id string) (*Task, error) {
	done := false
	return svc.Update(owner, id, TaskUpdate{Completed: &done})
}

// Delete removes a task, or returns ErrNotFound.
func (svc *TaskService) Delete(owner, id string) error {
	if owner == "" {
		return ErrUnauthenticated
	}
	res, err := svc.store.db.Exec(`DELETE FROM tasks WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	svc.store.publish(events.KindEntityDeleted, "task", id, owner)
	return nil
}

func (svc *TaskService) queryTasks(query string, args ...any) ([]*Task, error) {
	rows, err := svc.store.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(sc scanner) (*Task, error) {
	var t Task
	var description, due sql.NullString
	var completed int
	var createdAt string

	err := sc.Scan(&t.ID, &t.Owner, &t.Title, &description, &due, &completed, &createdAt)
	if err != nil {
		return nil, err
	}

	t.Description = parseStringCol(description)
	t.Due = parseTimeCol(due)
	t.Completed = completed == 1
	t.CreatedAt = parseTime(createdAt)

	return &t, nil
}
