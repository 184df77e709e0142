package actions

import (
	"context"

	"github.com/lifeplan-ai/lifeplan/internal/planner"
)

func (r *Registry) registerWorkoutActions() {
	r.mustRegister(&Action{
		Name:        "add_workout",
		Description: "Schedule a workout for the user.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":             map[string]any{"type": "string", "description": "Name of the workout"},
				"scheduled_date":   dateProperty("Date the workout is scheduled for"),
				"duration_minutes": map[string]any{"type": "integer", "description": "Planned duration in minutes"},
				"intensity":        map[string]any{"type": "string", "enum": []string{"low", "moderate", "high"}},
			},
			"required": []string{"name", "scheduled_date"},
		},
		Handler: r.handleAddWorkout,
	})

	r.mustRegister(&Action{
		Name:        "list_workouts",
		Description: "List the user's workouts, optionally only those on one date or upcoming.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date":     dateProperty("Only return workouts scheduled on this date"),
				"upcoming": map[string]any{"type": "boolean", "description": "Only return workouts from today onward"},
			},
		},
		Handler: r.handleListWorkouts,
	})

	r.mustRegister(&Action{
		Name:        "complete_workout",
		Description: "Mark a workout as completed by ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string", "description": "ID of the workout"},
			},
			"required": []string{"id"},
		},
		Handler: r.handleCompleteWorkout,
	})

	r.mustRegister(&Action{
		Name:        "delete_workout",
		Description: "Delete a workout by ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string", "description": "ID of the workout"},
			},
			"required": []string{"id"},
		},
		Handler: r.handleDeleteWorkout,
	})
}

func (r *Registry) handleAddWorkout(_ context.Context, owner string, args map[string]any) (any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	return r.services.Workouts.Create(owner, planner.WorkoutParams{
		Name:            name,
		ScheduledDate:   dateArg(args, "scheduled_date"),
		DurationMinutes: optIntArg(args, "duration_minutes"),
		Intensity:       optStringArg(args, "intensity"),
	})
}

func (r *Registry) handleListWorkouts(_ context.Context, owner string, args map[string]any) (any, error) {
	if date := optStringArg(args, "date"); date != nil {
		return r.services.Workouts.ByDate(owner, *date)
	}
	if upcoming, ok := args["upcoming"].(bool); ok && upcoming {
		return r.services.Workouts.Upcoming(owner, timeNow().Format(planner.DateLayout))
	}
	return r.services.Workouts.GetAll(owner)
}

func (r *Registry) handleCompleteWorkout(_ context.Context, owner string, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	return r.services.Workouts.MarkComplete(owner, id)
}

func (r *Registry) handleDeleteWorkout(_ context.Context, owner string, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	if err := r.services.Workouts.Delete(owner, id); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": id}, nil
}
