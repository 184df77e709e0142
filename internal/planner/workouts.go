package planner

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/events"
)

// WorkoutService provides owner-scoped CRUD over workouts.
type WorkoutService struct {
	store *Store
}

const workoutColumns = `id, owner, name, duration_minutes, intensity, scheduled_date, completed, created_at`

// Create validates the payload, stamps the owner, and inserts a workout.
func (svc *WorkoutService) Create(owner string, p WorkoutParams) (*Workout, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if p.Name == "" {
		return nil, fmt.Errorf("%w: workout name is required", ErrValidation)
	}
	if !validDate(p.ScheduledDate) {
		return nil, fmt.Errorf("%w: scheduled_date must be YYYY-MM-DD, got %q", ErrValidation, p.ScheduledDate)
	}
	if p.Intensity != nil && !validIntensity(*p.Intensity) {
		return nil, fmt.Errorf("%w: unknown intensity %q", ErrValidation, *p.Intensity)
	}
	if p.DurationMinutes != nil && *p.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrValidation)
	}

	w := &Workout{
		ID:              NewID(),
		Owner:           owner,
		Name:            p.Name,
		DurationMinutes: p.DurationMinutes,
		Intensity:       p.Intensity,
		ScheduledDate:   p.ScheduledDate,
		Completed:       false,
		CreatedAt:       time.Now().UTC(),
	}

	_, err := svc.store.db.Exec(`
		INSERT INTO workouts (`+workoutColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
	`, w.ID, w.Owner, w.Name, w.DurationMinutes, w.Intensity, w.ScheduledDate, formatTime(w.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert workout: %w", err)
	}

	svc.store.publish(events.KindEntityCreated, "workout", w.ID, owner)
	return w, nil
}

// GetAll returns all of the owner's workouts, newest scheduled first.
func (svc *WorkoutService) GetAll(owner string) ([]*Workout, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryWorkouts(`SELECT `+workoutColumns+` FROM workouts WHERE owner = ? ORDER BY scheduled_date DESC, created_at DESC`, owner)
}

// GetByID returns one workout, or ErrNotFound.
func (svc *WorkoutService) GetByID(owner, id string) (*Workout, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	row := svc.store.db.QueryRow(`SELECT `+workoutColumns+` FROM workouts WHERE owner = ? AND id = ?`, owner, id)
	w, err := scanWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return w, err
}

// ByDate returns the owner's workouts scheduled for one calendar date.
func (svc *WorkoutService) ByDate(owner, date string) ([]*Workout, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if !validDate(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrValidation, date)
	}
	return svc.queryWorkouts(`SELECT `+workoutColumns+` FROM workouts WHERE owner = ? AND scheduled_date = ? ORDER BY created_at`, owner, date)
}

// Upcoming returns the owner's incomplete workouts scheduled on or
// after the given calendar date.
func (svc *WorkoutService) Upcoming(owner, from string) ([]*Workout, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if !validDate(from) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrValidation, from)
	}
	return svc.queryWorkouts(`
		SELECT `+workoutColumns+` FROM workouts
		WHERE owner = ? AND completed = 0 AND scheduled_date >= ?
		ORDER BY scheduled_date, created_at
	`, owner, from)
}

// Update applies a partial update and returns the updated workout.
func (svc *WorkoutService) Update(owner, id string, u WorkoutUpdate) (*Workout, error) {
	w, err := svc.GetByID(owner, id)
	if err != nil {
		return nil, err
	}

	if u.Name != nil {
		if *u.Name == "" {
			return nil, fmt.Errorf("%w: workout name cannot be empty", ErrValidation)
		}
		w.Name = *u.Name
	}
	if u.DurationMinutes != nil {
		if *u.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrValidation)
		}
		w.DurationMinutes = u.DurationMinutes
	}
	if u.Intensity != nil {
		if !validIntensity(*u.Intensity) {
			return nil, fmt.Errorf("%w: unknown intensity %q", ErrValidation, *u.Intensity)
		}
		w.Intensity = u.Intensity
	}
	if u.ScheduledDate != nil {
		if !validDate(*u.ScheduledDate) {
			return nil, fmt.Errorf("%w: scheduled_date must be YYYY-MM-DD, got %q", ErrValidation, *u.ScheduledDate)
		}
		w.ScheduledDate = *u.ScheduledDate
	}
	if u.Completed != nil {
		w.Completed = *u.Completed
	}

	completed := 0
	if w.Completed {
		completed = 1
	}

	_, err = svc.store.db.Exec(`
		UPDATE workouts SET name = ?, duration_minutes = ?, intensity = ?, scheduled_date = ?, completed = ?
		WHERE owner = ? AND id = ?
	`, w.Name, w.DurationMinutes, w.Intensity, w.ScheduledDate, completed, owner, id)
	if err != nil {
		return nil, fmt.Errorf("update workout: %w", err)
	}

	svc.store.publish(events.KindEntityUpdated, "workout", id, owner)
	return w, nil
}

// MarkComplete sets the completion flag.
func (svc *WorkoutService) MarkComplete(owner, id string) (*Workout, error) {
	done := true
	return svc.Update(owner, id, WorkoutUpdate{Completed: &done})
}

// MarkIncomplete clears the completion flag.
func (svc *WorkoutService) MarkIncomplete(owner, id string) (*Workout, error) {
	done := false
	return svc.Update(owner, id, WorkoutUpdate{Completed: &done})
}

// Delete removes a workout, or returns ErrNotFound.
func (svc *WorkoutService) Delete(owner, id string) error {
	if owner == "" {
		return ErrUnauthenticated
	}
	res, err := svc.store.db.Exec(`DELETE FROM workouts WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	svc.store.publish(events.KindEntityDeleted, "workout", id, owner)
	return nil
}

func (svc *WorkoutService) queryWorkouts(query string, args ...any) ([]*Workout, error) {
	rows, err := svc.store.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []*Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func scanWorkout(sc scanner) (*Workout, error) {
	var w Workout
	var duration sql.NullInt64
	var intensity sql.NullString
	var completed int
	var createdAt string

	err := sc.Scan(&w.ID, &w.Owner, &w.Name, &duration, &intensity, &w.ScheduledDate, &completed, &createdAt)
	if err != nil {
		return nil, err
	}

	w.DurationMinutes = parseIntCol(duration)
	w.Intensity = parseStringCol(intensity)
	w.Completed = completed == 1
	w.CreatedAt = parseTime(createdAt)

	return &w, nil
}

func validIntensity(s string) bool {
	switch s {
	case IntensityLow, IntensityModerate, IntensityHigh:
		return true
	}
	return false
}
