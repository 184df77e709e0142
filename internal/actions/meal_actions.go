package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/planner"
)

// Default starting times for meal time blocks created by plan_day_meals,
// used when the model does not supply an explicit time.
var defaultMealTimes = map[string]struct{ hour, minute int }{
	planner.MealBreakfast: {8, 0},
	planner.MealLunch:     {12, 30},
	planner.MealDinner:    {19, 0},
	planner.MealSnack:     {16, 0},
}

const mealBlockDuration = time.Hour

func (r *Registry) registerMealActions() {
	r.mustRegister(&Action{
		Name:        "add_meal",
		Description: "Add a single meal to the user's meal plan.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":         map[string]any{"type": "string", "description": "Name of the meal"},
				"meal_type":    map[string]any{"type": "string", "enum": []string{"breakfast", "lunch", "dinner", "snack"}},
				"planned_date": dateProperty("Date the meal is planned for"),
				"calories":     map[string]any{"type": "integer", "description": "Estimated calories"},
				"ingredients":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"instructions": map[string]any{"type": "string", "description": "Preparation instructions"},
			},
			"required": []string{"name", "meal_type", "planned_date"},
		},
		Handler: r.handleAddMeal,
	})

	r.mustRegister(&Action{
		Name:        "list_meals",
		Description: "List the user's planned meals, optionally filtered to one date.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date": dateProperty("Only return meals planned for this date"),
			},
		},
		Handler: r.handleListMeals,
	})

	r.mustRegister(&Action{
		Name:        "update_meal",
		Description: "Update fields of an existing meal. Only the provided fields change.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":           map[string]any{"type": "string", "description": "ID of the meal to update"},
				"name":         map[string]any{"type": "string"},
				"meal_type":    map[string]any{"type": "string", "enum": []string{"breakfast", "lunch", "dinner", "snack"}},
				"planned_date": dateProperty("New planned date"),
				"calories":     map[string]any{"type": "integer"},
				"ingredients":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"instructions": map[string]any{"type": "string"},
			},
			"required": []string{"id"},
		},
		Handler: r.handleUpdateMeal,
	})

	r.mustRegister(&Action{
		Name:        "delete_meal",
		Description: "Delete a meal from the plan by ID.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id": map[string]any{"type": "string", "description": "ID of the meal to delete"},
			},
			"required": []string{"id"},
		},
		Handler: r.handleDeleteMeal,
	})

	r.mustRegister(&Action{
		Name:        "plan_day_meals",
		Description: "Plan several meals for one day at once, scheduling a time block for each. Use this when the user asks to plan a whole day of eating.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date": dateProperty("Day being planned"),
				"meals": map[string]any{
					"type":        "array",
					"description": "Meals to create for the day",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":         map[string]any{"type": "string"},
							"meal_type":    map[string]any{"type": "string", "enum": []string{"breakfast", "lunch", "dinner", "snack"}},
							"time":         map[string]any{"type": "string", "description": "Start time as HH:MM, defaults by meal type"},
							"calories":     map[string]any{"type": "integer"},
							"ingredients":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							"instructions": map[string]any{"type": "string"},
						},
						"required": []string{"name", "meal_type"},
					},
				},
			},
			"required": []string{"meals"},
		},
		Handler: r.handlePlanDayMeals,
	})
}

func (r *Registry) handleAddMeal(_ context.Context, owner string, args map[string]any) (any, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return nil, err
	}
	category, err := stringArg(args, "meal_type")
	if err != nil {
		return nil, err
	}
	return r.services.Meals.Create(owner, planner.MealParams{
		Name:         name,
		Category:     category,
		PlannedDate:  dateArg(args, "planned_date"),
		Calories:     optIntArg(args, "calories"),
		Ingredients:  mustStringList(args, "ingredients"),
		Instructions: optStringArg(args, "instructions"),
	})
}

func (r *Registry) handleListMeals(_ context.Context, owner string, args map[string]any) (any, error) {
	if date := optStringArg(args, "date"); date != nil {
		return r.services.Meals.ByDate(owner, *date)
	}
	return r.services.Meals.GetAll(owner)
}

func (r *Registry) handleUpdateMeal(_ context.Context, owner string, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	update := planner.MealUpdate{
		Name:         optStringArg(args, "name"),
		Category:     optStringArg(args, "meal_type"),
		PlannedDate:  optStringArg(args, "planned_date"),
		Calories:     optIntArg(args, "calories"),
		Instructions: optStringArg(args, "instructions"),
	}
	if _, ok := args["ingredients"]; ok {
		list, err := stringListArg(args, "ingredients")
		if err != nil {
			return nil, err
		}
		update.Ingredients = &list
	}
	return r.services.Meals.Update(owner, id, update)
}

func (r *Registry) handleDeleteMeal(_ context.Context, owner string, args map[string]any) (any, error) {
	id, err := stringArg(args, "id")
	if err != nil {
		return nil, err
	}
	if err := r.services.Meals.Delete(owner, id); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": id}, nil
}

// planStep records the outcome of one meal within a plan_day_meals
// fan-out. A failed step never rolls back the steps before it.
type planStep struct {
	Meal        string `json:"meal"`
	Success     bool   `json:"success"`
	MealID      string `json:"meal_id,omitempty"`
	TimeBlockID string `json:"time_block_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (r *Registry) handlePlanDayMeals(_ context.Context, owner string, args map[string]any) (any, error) {
	date := dateArg(args, "date")
	day, err := time.Parse(planner.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("date: expected YYYY-MM-DD: %w", err)
	}
	rawMeals, ok := args["meals"].([]any)
	if !ok || len(rawMeals) == 0 {
		return nil, fmt.Errorf("meals is required")
	}

	steps := make([]planStep, 0, len(rawMeals))
	planned := 0
	for i, raw := range rawMeals {
		step := r.planOneMeal(owner, day, date, i, raw)
		if step.Success {
			planned++
		} else {
			r.logger.Warn("plan_day_meals step failed",
				"owner", owner, "date", date, "meal", step.Meal, "error", step.Error)
		}
		steps = append(steps, step)
	}

	return map[string]any{
		"date":    date,
		"planned": planned,
		"failed":  len(steps) - planned,
		"steps":   steps,
	}, nil
}

func (r *Registry) planOneMeal(owner string, day time.Time, date string, idx int, raw any) planStep {
	spec, ok := raw.(map[string]any)
	if !ok {
		return planStep{Meal: fmt.Sprintf("meal %d", idx+1), Error: "expected an object"}
	}
	step := planStep{Meal: fmt.Sprintf("meal %d", idx+1)}
	name, err := stringArg(spec, "name")
	if err != nil {
		step.Error = err.Error()
		return step
	}
	step.Meal = name
	category, err := stringArg(spec, "meal_type")
	if err != nil {
		step.Error = err.Error()
		return step
	}

	meal, err := r.services.Meals.Create(owner, planner.MealParams{
		Name:         name,
		Category:     category,
		PlannedDate:  date,
		Calories:     optIntArg(spec, "calories"),
		Ingredients:  mustStringList(spec, "ingredients"),
		Instructions: optStringArg(spec, "instructions"),
	})
	if err != nil {
		step.Error = err.Error()
		return step
	}
	step.MealID = meal.ID

	start, err := mealBlockStart(day, category, optStringArg(spec, "time"))
	if err != nil {
		step.Error = err.Error()
		return step
	}
	block, err := r.services.TimeBlocks.Create(owner, planner.TimeBlockParams{
		Title:    name,
		Start:    start,
		End:      start.Add(mealBlockDuration),
		Category: &category,
	})
	if err != nil {
		step.Error = err.Error()
		return step
	}
	step.TimeBlockID = block.ID
	step.Success = true
	return step
}

// mealBlockStart resolves the starting time for a meal's block: an
// explicit HH:MM wins, otherwise the default for the meal type.
func mealBlockStart(day time.Time, category string, explicit *string) (time.Time, error) {
	hour, minute := 12, 0
	if at, ok := defaultMealTimes[category]; ok {
		hour, minute = at.hour, at.minute
	}
	if explicit != nil {
		t, err := time.Parse("15:04", *explicit)
		if err != nil {
			return time.Time{}, fmt.Errorf("time: expected HH:MM: %w", err)
		}
		hour, minute = t.Hour(), t.Minute()
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC), nil
}

// mustStringList reads an optional string-list argument, treating a
// malformed list as absent. Handlers that want strict validation use
// stringListArg directly.
func mustStringList(args map[string]any, key string) []string {
	list, err := stringListArg(args, key)
	if err != nil {
		return nil
	}
	return list
}
