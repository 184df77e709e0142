package actions

import (
	"context"

	"github.com/lifeplan-ai/lifeplan/internal/planner"
)

func (r *Registry) registerTaskActions() {
	r.mustRegister(&Action{
		Name:        "add_task",
		Description: "Add a task to the user's to-do list.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string", "description": "Short title of the task"},
				"description": map[string]any{"type": "string", "description": "Longer details"},
				"due":         timestampProperty("When the task is due"),
			},
			"required": []string{"title"},
		},
		Handler: r.handleAddTask,
	})

	r.mustRegister(&Action{
		Name:        "list_tasks",
		Description: "List the user's tasks. Filter with status: all, pending, or overdue.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status": map[string]any{"type": "string", "enum": []string{"all", "pending", "overdue"}},
			},
		},
		Handler: r.handleListTasks,
	})

	r.mustRegister(&Action{
		Name:        "complete_task",
		Description: "Mark a task as completed by ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string", "description": "ID of the task"},
			},
			"required": []string{"id"},
		},
		Handler: r.handleCompleteTask,
	})

	r.mustRegister(&Action{
		Name:        "delete_task",
		Description: "Delete a task by ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string", "description": "ID of the task"},
			},
			"required": []string{"id"},
		},
		Handler: r.handleDeleteTask,
	})
}

func (r *Registry) handleAddTask(_ context.Context, owner string, args map[string]any) (any, error) {
	title, err := stringArg(args, "title")
	if err != nil {
		return nil, err
	}
	due, err := optTimeArg(args, "due")
	if err != nil {
		return nil, err
	}
	return r.services.Tasks.Create(owner, planner.TaskParams{
		Title:       title,
		Description: optStringArg(args, "description"),
		Due:         due,
	})
}

func (r *Registry) handleListTasks(_ context.Context, owner string, args map[string]any) (any, error) {
	switch status := optStringArg(args, "status"); {
	case status == nil || *status == "all":
		return r.services.Tasks.GetAll(owner)
	case *status == "pending":
		return r.services.Tasks.Pending(owner)
	case *status == "overdue":
		return r.services.Tasks.Overdue(owner, timeNow())
	default:
		return r.services.Tasks.GetAll(owner)
	}
}

func (r *Registry) handleCompleteTask(_ context.Context, owner string, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	return r.services.Tasks.MarkComplete(owner, id)
}

func (r *Registry) handleDeleteTask(_ context.Context, owner string, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	if err := r.services.Tasks.Delete(owner, id); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": id}, nil
}
