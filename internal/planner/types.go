// Package planner implements the owner-scoped record store and the
// per-entity domain services for the five planning domains: meals,
// tasks, workouts, reminders, and time blocks.
package planner

import "time"

// DateLayout is the calendar-date format used for Meal.PlannedDate and
// Workout.ScheduledDate. These fields are dates, not timestamps.
const DateLayout = "2006-01-02"

// Meal categories.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// Workout intensities.
const (
	IntensityLow      = "low"
	IntensityModerate = "moderate"
	IntensityHigh     = "high"
)

// Meal is a planned meal on a calendar date.
type Meal struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	PlannedDate  string    `json:"planned_date"`
	Calories     *int      `json:"calories,omitempty"`
	Ingredients  []string  `json:"ingredients,omitempty"`
	Instructions *string   `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Task is a to-do item with an optional due timestamp.
type Task struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Due         *time.Time `json:"due,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Workout is a scheduled exercise session on a calendar date.
type Workout struct {
	ID              string    `json:"id"`
	Owner           string    `json:"owner"`
	Name            string    `json:"name"`
	DurationMinutes *int      `json:"duration_minutes,omitempty"`
	Intensity       *string   `json:"intensity,omitempty"`
	ScheduledDate   string    `json:"scheduled_date"`
	Completed       bool      `json:"completed"`
	CreatedAt       time.Time `json:"created_at"`
}

// Reminder is a lightweight nudge with an optional due timestamp.
type Reminder struct {
	ID        string     `json:"id"`
	Owner     string     `json:"owner"`
	Title     string     `json:"title"`
	Due       *time.Time `json:"due,omitempty"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
}

// TimeBlock is a calendar slot. Start must be strictly before End.
// TaskID optionally links the block to a Task.
type TimeBlock struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Category  *string   `json:"category,omitempty"`
	TaskID    *string   `json:"task_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Create payloads. Validation happens at the service boundary, before
// any SQL executes.

// MealParams is the payload for creating a meal.
type MealParams struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	PlannedDate  string   `json:"planned_date"`
	Calories     *int     `json:"calories,omitempty"`
	Ingredients  []string `json:"ingredients,omitempty"`
	Instructions *string  `json:"instructions,omitempty"`
}

// TaskParams is the payload for creating a task.
type TaskParams struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Due         *time.Time `json:"due,omitempty"`
}

// WorkoutParams is the payload for creating a workout.
type WorkoutParams struct {
	Name            string  `json:"name"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Intensity       *string `json:"intensity,omitempty"`
	ScheduledDate   string  `json:"scheduled_date"`
}

// ReminderParams is the payload for creating a reminder.
type ReminderParams struct {
	Title string     `json:"title"`
	Due   *time.Time `json:"due,omitempty"`
}

// TimeBlockParams is the payload for creating a time block.
type TimeBlockParams struct {
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Category *string   `json:"category,omitempty"`
	TaskID   *string   `json:"task_id,omitempty"`
}

// Update payloads. Nil fields are left unchanged.

// MealUpdate is a partial update for a meal.
type MealUpdate struct {
	Name         *string   `json:"name,omitempty"`
	Category     *string   `json:"category,omitempty"`
	PlannedDate  *string   `json:"planned_date,omitempty"`
	Calories     *int      `json:"calories,omitempty"`
	Ingredients  *[]string `json:"ingredients,omitempty"`
	Instructions *string   `json:"instructions,omitempty"`
}

// TaskUpdate is a partial update for a task.
type TaskUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Due         *time.Time `json:"due,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

// WorkoutUpdate is a partial update for a workout.
type WorkoutUpdate struct {
	Name            *string `json:"name,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Intensity       *string `json:"intensity,omitempty"`
	ScheduledDate   *string `json:"scheduled_date,omitempty"`
	Completed       *bool   `json:"completed,omitempty"`
}

// ReminderUpdate is a partial update for a reminder.
type ReminderUpdate struct {
	Title     *string    `json:"title,omitempty"`
	Due       *time.Time `json:"due,omitempty"`
	Completed *bool      `json:"completed,omitempty"`
}

// TimeBlockUpdate is a partial update for a time block. Updates that
// touch Start or End are re-validated against the start-before-end
// invariant.
type TimeBlockUpdate struct {
	Title    *string    `json:"title,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
	Category *string    `json:"category,omitempty"`
	TaskID   *string    `json:"task_id,omitempty"`
}
