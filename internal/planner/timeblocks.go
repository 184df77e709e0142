package planner

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/events"
)

// TimeBlockService provides owner-scoped CRUD over time blocks.
type TimeBlockService struct {
	store *Store
}

const timeBlockColumns = `id, owner, title, start_time, end_time, category, task_id, created_at`

// Create validates the payload, stamps the owner, and inserts a time
// block. Start must be strictly before End.
func (svc *TimeBlockService) Create(owner string, p TimeBlockParams) (*TimeBlock, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if p.Title == "" {
		return nil, fmt.Errorf("%w: time block title is required", ErrValidation)
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return nil, fmt.Errorf("%w: time block start and end are required", ErrValidation)
	}
	if !p.Start.Before(p.End) {
		return nil, fmt.Errorf("%w: start %s, end %s", ErrInvalidRange, p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339))
	}

	b := &TimeBlock{
		ID:        NewID(),
		Owner:     owner,
		Title:     p.Title,
		Start:     p.Start.UTC(),
		End:       p.End.UTC(),
		Category:  p.Category,
		TaskID:    p.TaskID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := svc.store.db.Exec(`
		INSERT INTO time_blocks (`+timeBlockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Owner, b.Title, formatTime(b.Start), formatTime(b.End), b.Category, b.TaskID, formatTime(b.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert time block: %w", err)
	}

	svc.store.publish(events.KindEntityCreated, "time_block", b.ID, owner)
	return b, nil
}

// GetAll returns all of the owner's time blocks ordered by start.
func (svc *TimeBlockService) GetAll(owner string) ([]*TimeBlock, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryBlocks(`SELECT `+timeBlockColumns+` FROM time_blocks WHERE owner = ? ORDER BY start_time`, owner)
}

// GetByID returns one time block, or ErrNotFound.
func (svc *TimeBlockService) GetByID(owner, id string) (*TimeBlock, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	row := svc.store.db.QueryRow(`SELECT `+timeBlockColumns+` FROM time_blocks WHERE owner = ? AND id = ?`, owner, id)
	b, err := scanTimeBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ByRange returns the owner's time blocks overlapping [from, to).
func (svc *TimeBlockService) ByRange(owner string, from, to time.Time) ([]*TimeBlock, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryBlocks(`
		SELECT `+timeBlockColumns+` FROM time_blocks
		WHERE owner = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time
	`, owner, formatTime(to), formatTime(from))
}

// ForTask returns the owner's time blocks linked to a task.
func (svc *TimeBlockService) ForTask(owner, taskID string) ([]*TimeBlock, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryBlocks(`
		SELECT `+timeBlockColumns+` FROM time_blocks
		WHERE owner = ? AND task_id = ?
		ORDER BY start_time
	`, owner, taskID)
}

// Update applies a partial update and returns the updated block. When
// the update touches Start or End, the start-before-end invariant is
// re-checked against the resulting pair.
func (svc *TimeBlockService) Update(owner, id string, u TimeBlockUpdate) (*TimeBlock, error) {
	b, err := svc.GetByID(owner, id)
	if err != nil {
		return nil, err
	}

	if u.Title != nil {
		if *u.Title == "" {
			return nil, fmt.Errorf("%w: time block title cannot be empty", ErrValidation)
		}
		b.Title = *u.Title
	}
	if u.Start != nil {
		b.Start = u.Start.UTC()
	}
	if u.End != nil {
		b.End = u.End.UTC()
	}
	if u.Start != nil || u.End != nil {
		if !b.Start.Before(b.End) {
			return nil, fmt.Errorf("%w: start %s, end %s", ErrInvalidRange, b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
		}
	}
	if u.Category != nil {
		b.Category = u.Category
	}
	if u.TaskID != nil {
		b.TaskID = u.TaskID
	}

	_, err = svc.store.db.Exec(`
		UPDATE time_blocks SET title = ?, start_time = ?, end_time = ?, category = ?, task_id = ?
		WHERE owner = ? AND id = ?
	`, b.Title, formatTime(b.Start), formatTime(b.End), b.Category, b.TaskID, owner, id)
	if err != nil {
		return nil, fmt.Errorf("update time block: %w", err)
	}

	svc.store.publish(events.KindEntityUpdated, "time_block", id, owner)
	return b, nil
}

// Delete removes a time block, or returns ErrNotFound.
func (svc *TimeBlockService) Delete(owner, id string) error {
	if owner == "" {
		return ErrUnauthenticated
	}
	res, err := svc.store.db.Exec(`DELETE FROM time_blocks WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete time block: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	svc.store.publish(events.KindEntityDeleted, "time_block", id, owner)
	return nil
}

func (svc *TimeBlockService) queryBlocks(query string, args ...any) ([]*TimeBlock, error) {
	rows, err := svc.store.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []*TimeBlock
	for rows.Next() {
		b, err := scanTimeBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func scanTimeBlock(sc scanner) (*TimeBlock, error) {
	var b TimeBlock
	var start, end, createdAt string
	var category, taskID sql.NullString

	err := sc.Scan(&b.ID, &b.Owner, &b.Title, &start, &end, &category, &taskID, &createdAt)
	if err != nil {
		return nil, err
	}

	b.Start = parseTime(start)
	b.End = parseTime(end)
	b.Category = parseStringCol(category)
	b.TaskID = parseStringCol(taskID)
	b.CreatedAt = parseTime(createdAt)

	return &b, nil
}
