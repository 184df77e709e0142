package planner

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/events"
)

// ReminderService provides owner-scoped CRUD over reminders.
type ReminderService struct {
	store *Store
}

const reminderColumns = `id, owner, title, due, completed, created_at`

// Create validates the payload, stamps the owner, and inserts a reminder.
func (svc *ReminderService) Create(owner string, p ReminderParams) (*Reminder, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if p.Title == "" {
		return nil, fmt.Errorf("%w: reminder title is required", ErrValidation)
	}

	r := &Reminder{
		ID:        NewID(),
		Owner:     owner,
		Title:     p.Title,
		Due:       p.Due,
		Completed: false,
		CreatedAt: time.Now().UTC(),
	}

	_, err := svc.store.db.Exec(`
		INSERT INTO reminders (`+reminderColumns+`)
		VALUES (?, ?, ?, ?, 0, ?)
	`, r.ID, r.Owner, r.Title, formatTimePtr(r.Due), formatTime(r.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}

	svc.store.publish(events.KindEntityCreated, "reminder", r.ID, owner)
	return r, nil
}

// GetAll returns all of the owner's reminders, newest first.
func (svc *ReminderService) GetAll(owner string) ([]*Reminder, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryReminders(`SELECT `+reminderColumns+` FROM reminders WHERE owner = ? ORDER BY created_at DESC`, owner)
}

// GetByID returns one reminder, or ErrNotFound.
func (svc *ReminderService) GetByID(owner, id string) (*Reminder, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	row := svc.store.db.QueryRow(`SELECT `+reminderColumns+` FROM reminders WHERE owner = ? AND id = ?`, owner, id)
	r, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// Pending returns the owner's incomplete reminders, soonest due first.
func (svc *ReminderService) Pending(owner string) ([]*Reminder, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryReminders(`
		SELECT `+reminderColumns+` FROM reminders
		WHERE owner = ? AND completed = 0
		ORDER BY due IS NULL, due, created_at
	`, owner)
}

// Due returns the owner's incomplete reminders whose due timestamp has
// passed as of now.
func (svc *ReminderService) Due(owner string, now time.Time) ([]*Reminder, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryReminders(`
		SELECT `+reminderColumns+` FROM reminders
		WHERE owner = ? AND completed = 0 AND due IS NOT NULL AND due <= ?
		ORDER BY due
	`, owner, formatTime(now))
}

// Update applies a partial update and returns the updated reminder.
func (svc *ReminderService) Update(owner, id string, u ReminderUpdate) (*Reminder, error) {
	r, err := svc.GetByID(owner, id)
	if err != nil {
		return nil, err
	}

	if u.Title != nil {
		if *u.Title == "" {
			return nil, fmt.Errorf("%w: reminder title cannot be empty", ErrValidation)
		}
		r.Title = *u.Title
	}
	if u.Due != nil {
		r.Due = u.Due
	}
	if u.Completed != nil {
		r.Completed = *u.Completed
	}

	completed := 0
	if r.Completed {
		completed = 1
	}

	_, err = svc.store.db.Exec(`
		UPDATE reminders SET title = ?, due = ?, completed = ?
		WHERE owner = ? AND id = ?
	`, r.Title, formatTimePtr(r.Due), completed, owner, id)
	if err != nil {
		return nil, fmt.Errorf("update reminder: %w", err)
	}

	svc.store.publish(events.KindEntityUpdated, "reminder", id, owner)
	return r, nil
}

// MarkComplete sets the completion flag.
func (svc *ReminderService) MarkComplete(owner, id string) (*Reminder, error) {
	done := true
	return svc.Update(owner, id, ReminderUpdate{Completed: &done})
}

// MarkIncomplete clears the completion flag.
func (svc *ReminderService) MarkIncomplete(owner, id string) (*Reminder, error) {
	done := false
	return svc.Update(owner, id, ReminderUpdate{Completed: &done})
}

// Delete removes a reminder, or returns ErrNotFound.
func (svc *ReminderService) Delete(owner, id string) error {
	if owner == "" {
		return ErrUnauthenticated
	}
	res, err := svc.store.db.Exec(`DELETE FROM reminders WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	svc.store.publish(events.KindEntityDeleted, "reminder", id, owner)
	return nil
}

func (svc *ReminderService) queryReminders(query string, args ...any) ([]*Reminder, error) {
	rows, err := svc.store.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func scanReminder(sc scanner) (*Reminder, error) {
	var r Reminder
	var due sql.NullString
	var completed int
	var createdAt string

	err := sc.Scan(&r.ID, &r.Owner, &r.Title, &due, &completed, &createdAt)
	if err != nil {
		return nil, err
	}

	r.Due = parseTimeCol(due)
	r.Completed = completed == 1
	r.CreatedAt = parseTime(createdAt)

	return &r, nil
}
