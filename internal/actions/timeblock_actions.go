package actions

import (
	"context"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/planner"
)

func (r *Registry) registerTimeBlockActions() {
	r.mustRegister(&Action{
		Name:        "add_time_block",
		Description: "Block out a span of time on the user's calendar.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":    map[string]any{"type": "string", "description": "What the block is for"},
				"start":    timestampProperty("When the block starts"),
				"end":      timestampProperty("When the block ends, must be after start"),
				"category": map[string]any{"type": "string", "description": "Freeform category, e.g. work, meal, exercise"},
				"task_id":  map[string]any{"type": "string", "description": "ID of a task this block is reserved for"},
			},
			"required": []string{"title", "start", "end"},
		},
		Handler: r.handleAddTimeBlock,
	})

	r.mustRegister(&Action{
		Name:        "list_time_blocks",
		Description: "List the user's time blocks, optionally only those overlapping one day.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date": dateProperty("Only return blocks overlapping this date"),
			},
		},
		Handler: r.handleListTimeBlocks,
	})

	r.mustRegister(&Action{
		Name:        "delete_time_block",
		Description: "Delete a time block by ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string", "description": "ID of the time block"},
			},
			"required": []string{"id"},
		},
		Handler: r.handleDeleteTimeBlock,
	})
}

func (r *Registry) handleAddTimeBlock(_ context.Context, owner string, args map[string]any) (any, error) {
	title, err := stringArg(args, "title")
	if err != nil {
		return nil, err
	}
	start, err := timeArg(args, "start")
	if err != nil {
		return nil, err
	}
	end, err := timeArg(args, "end")
	if err != nil {
		return nil, err
	}
	return r.services.TimeBlocks.Create(owner, planner.TimeBlockParams{
		Title:    title,
		Start:    start,
		End:      end,
		Category: optStringArg(args, "category"),
		TaskID:   optStringArg(args, "task_id"),
	})
}

func (r *Registry) handleListTimeBlocks(_ context.Context, owner string, args map[string]any) (any, error) {
	if date := optStringArg(args, "date"); date != nil {
		day, err := time.Parse(planner.DateLayout, *date)
		if err != nil {
			return nil, err
		}
		return r.services.TimeBlocks.ByRange(owner, day, day.AddDate(0, 0, 1))
	}
	return r.services.TimeBlocks.GetAll(owner)
}

func (r *Registry) handleDeleteTimeBlock(_ context.Context, owner string, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	if err := r.services.TimeBlocks.Delete(owner, id); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": id}, nil
}
