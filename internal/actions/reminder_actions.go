package actions

import (
	"context"

	"github.com/lifeplan-ai/lifeplan/internal/planner"
)

func (r *Registry) registerReminderActions() {
	r.mustRegister(&Action{
		Name:        "add_reminder",
		Description: "Add a reminder for the user.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{"type": "string", "description": "What to remind the user about"},
				"due":   timestampProperty("When the reminder should fire"),
			},
			"required": []string{"title"},
		},
		Handler: r.handleAddReminder,
	})

	r.mustRegister(&Action{
		Name:        "list_reminders",
		Description: "List the user's reminders. Filter with status: all, pending, or due.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status": map[string]any{"type": "string", "enum": []string{"all", "pending", "due"}},
			},
		},
		Handler: r.handleListReminders,
	})

	r.mustRegister(&Action{
		Name:        "complete_reminder",
		Description: "Mark a reminder as completed by ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string", "description": "ID of the reminder"},
			},
			"required": []string{"id"},
		},
		Handler: r.handleCompleteReminder,
	})

	r.mustRegister(&Action{
		Name:        "delete_reminder",
		Description: "Delete a reminder by ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string", "description": "ID of the reminder"},
			},
			"required": []string{"id"},
		},
		Handler: r.handleDeleteReminder,
	})
}

func (r *Registry) handleAddReminder(_ context.Context, owner string, args map[string]any) (any, error) {
	title, err := stringArg(args, "title")
	if err != nil {
		return nil, err
	}
	due, err := optTimeArg(args, "due")
	if err != nil {
		return nil, err
	}
	return r.services.Reminders.Create(owner, planner.ReminderParams{
		Title: title,
		Due:   due,
	})
}

func (r *Registry) handleListReminders(_ context.Context, owner string, args map[string]any) (any, error) {
	switch status := optStringArg(args, "status"); {
	case status == nil || *status == "all":
		return r.services.Reminders.GetAll(owner)
	case *status == "pending":
		return r.services.Reminders.Pending(owner)
	case *status == "due":
		return r.services.Reminders.Due(owner, timeNow())
	default:
		return r.services.Reminders.GetAll(owner)
	}
}

func (r *Registry) handleCompleteReminder(_ context.Context, owner string, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	return r.services.Reminders.MarkComplete(owner, id)
}

func (r *Registry) handleDeleteReminder(_ context.Context, owner string, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	if err := r.services.Reminders.Delete(owner, id); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": id}, nil
}
