package planner

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/events"
)

// MealService provides owner-scoped CRUD over meals.
type MealService struct {
	store *Store
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const mealColumns = `id, owner, name, category, planned_date, calories, ingredients_json, instructions, created_at`

// Create validates the payload, stamps the owner, and inserts a meal.
func (svc *MealService) Create(owner string, p MealParams) (*Meal, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if p.Name == "" {
		return nil, fmt.Errorf("%w: meal name is required", ErrValidation)
	}
	if !validMealCategory(p.Category) {
		return nil, fmt.Errorf("%w: unknown meal category %q", ErrValidation, p.Category)
	}
	if !validDate(p.PlannedDate) {
		return nil, fmt.Errorf("%w: planned_date must be YYYY-MM-DD, got %q", ErrValidation, p.PlannedDate)
	}

	m := &Meal{
		ID:           NewID(),
		Owner:        owner,
		Name:         p.Name,
		Category:     p.Category,
		PlannedDate:  p.PlannedDate,
		Calories:     p.Calories,
		Ingredients:  p.Ingredients,
		Instructions: p.Instructions,
		CreatedAt:    time.Now().UTC(),
	}

	ingredients, err := marshalIngredients(m.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("marshal ingredients: %w", err)
	}

	_, err = svc.store.db.Exec(`
		INSERT INTO meals (`+mealColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Owner, m.Name, m.Category, m.PlannedDate, m.Calories, ingredients, m.Instructions, formatTime(m.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("insert meal: %w", err)
	}

	svc.store.publish(events.KindEntityCreated, "meal", m.ID, owner)
	return m, nil
}

// GetAll returns all of the owner's meals, newest planned date first.
func (svc *MealService) GetAll(owner string) ([]*Meal, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	return svc.queryMeals(`SELECT `+mealColumns+` FROM meals WHERE owner = ? ORDER BY planned_date DESC, created_at DESC`, owner)
}

// GetByID returns one meal, or ErrNotFound.
func (svc *MealService) GetByID(owner, id string) (*Meal, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	row := svc.store.db.QueryRow(`SELECT `+mealColumns+` FROM meals WHERE owner = ? AND id = ?`, owner, id)
	m, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// ByDate returns the owner's meals planned for one calendar date.
func (svc *MealService) ByDate(owner, date string) ([]*Meal, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if !validDate(date) {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrValidation, date)
	}
	return svc.queryMeals(`SELECT `+mealColumns+` FROM meals WHERE owner = ? AND planned_date = ? ORDER BY created_at`, owner, date)
}

// ByDateRange returns the owner's meals planned within [from, to] inclusive.
func (svc *MealService) ByDateRange(owner, from, to string) ([]*Meal, error) {
	if owner == "" {
		return nil, ErrUnauthenticated
	}
	if !validDate(from) || !validDate(to) {
		return nil, fmt.Errorf("%w: date range bounds must be YYYY-MM-DD", ErrValidation)
	}
	return svc.queryMeals(`SELECT `+mealColumns+` FROM meals WHERE owner = ? AND planned_date >= ? AND planned_date <= ? ORDER BY planned_date, created_at`, owner, from, to)
}

// Update applies a partial update and returns the updated meal.
func (svc *MealService) Update(owner, id string, u MealUpdate) (*Meal, error) {
	m, err := svc.GetByID(owner, id)
	if err != nil {
		return nil, err
	}

	if u.Name != nil {
		if *u.Name == "" {
			return nil, fmt.Errorf("%w: meal name cannot be empty", ErrValidation)
		}
		m.Name = *u.Name
	}
	if u.Category != nil {
		if !validMealCategory(*u.Category) {
			return nil, fmt.Errorf("%w: unknown meal category %q", ErrValidation, *u.Category)
		}
		m.Category = *u.Category
	}
	if u.PlannedDate != nil {
		if !validDate(*u.PlannedDate) {
			return nil, fmt.Errorf("%w: planned_date must be YYYY-MM-DD, got %q", ErrValidation, *u.PlannedDate)
		}
		m.PlannedDate = *u.PlannedDate
	}
	if u.Calories != nil {
		m.Calories = u.Calories
	}
	if u.Ingredients != nil {
		m.Ingredients = *u.Ingredients
	}
	if u.Instructions != nil {
		m.Instructions = u.Instructions
	}

	ingredients, err := marshalIngredients(m.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("marshal ingredients: %w", err)
	}

	_, err = svc.store.db.Exec(`
		UPDATE meals SET name = ?, category = ?, planned_date = ?, calories = ?, ingredients_json = ?, instructions = ?
		WHERE owner = ? AND id = ?
	`, m.Name, m.Category, m.PlannedDate, m.Calories, ingredients, m.Instructions, owner, id)
	if err != nil {
		return nil, fmt.Errorf("update meal: %w", err)
	}

	svc.store.publish(events.KindEntityUpdated, "meal", id, owner)
	return m, nil
}

// Delete removes a meal, or returns ErrNotFound.
func (svc *MealService) Delete(owner, id string) error {
	if owner == "" {
		return ErrUnauthenticated
	}
	res, err := svc.store.db.Exec(`DELETE FROM meals WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	svc.store.publish(events.KindEntityDeleted, "meal", id, owner)
	return nil
}

func (svc *MealService) queryMeals(query string, args ...any) ([]*Meal, error) {
	rows, err := svc.store.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []*Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

func scanMeal(sc scanner) (*Meal, error) {
	var m Meal
	var calories sql.NullInt64
	var ingredients, instructions sql.NullString
	var createdAt string

	err := sc.Scan(&m.ID, &m.Owner, &m.Name, &m.Category, &m.PlannedDate, &calories, &ingredients, &instructions, &createdAt)
	if err != nil {
		return nil, err
	}

	m.Calories = parseIntCol(calories)
	m.Instructions = parseStringCol(instructions)
	m.CreatedAt = parseTime(createdAt)

	if ingredients.Valid && ingredients.String != "" {
		if err := json.Unmarshal([]byte(ingredients.String), &m.Ingredients); err != nil {
			return nil, fmt.Errorf("unmarshal ingredients: %w", err)
		}
	}

	return &m, nil
}

func marshalIngredients(list []string) (*string, error) {
	if len(list) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func validMealCategory(c string) bool {
	switch c {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}
