package planner

// Services bundles the five per-entity domain services. One bundle is
// constructed per process and injected explicitly wherever record
// access is needed; there is no ambient or global state.
type Services struct {
	Meals      *MealService
	Tasks      *TaskService
	Workouts   *WorkoutService
	Reminders  *ReminderService
	TimeBlocks *TimeBlockService
}

// NewServices constructs the service bundle over one store.
func NewServices(store *Store) *Services {
	return &Services{
		Meals:      &MealService{store: store},
		Tasks:      &TaskService{store: store},
		Workouts:   &WorkoutService{store: store},
		Reminders:  &ReminderService{store: store},
		TimeBlocks: &TimeBlockService{store: store},
	}
}
