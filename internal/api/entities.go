package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/planner"
)

// owner extracts the acting user from the X-User-ID header. An empty
// header is reported as 401 and the handler should return.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := r.Header.Get("X-User-ID")
	if owner == "" {
		s.serviceError(w, planner.ErrUnauthenticated)
		return "", false
	}
	return owner, true
}

func decodeBody[T any](s *Server, w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return v, false
	}
	return v, true
}

func (s *Server) respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		s.serviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, v, s.logger)
}

func (s *Server) respondDeleted(w http.ResponseWriter, id string, err error) {
	if err != nil {
		s.serviceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"deleted": id}, s.logger)
}

// Meals

func (s *Server) registerMealRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/meals", s.handleMealCreate)
	mux.HandleFunc("GET /api/meals", s.handleMealList)
	mux.HandleFunc("GET /api/meals/{id}", s.handleMealGet)
	mux.HandleFunc("PATCH /api/meals/{id}", s.handleMealUpdate)
	mux.HandleFunc("DELETE /api/meals/{id}", s.handleMealDelete)
}

func (s *Server) handleMealCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	params, ok := decodeBody[planner.MealParams](s, w, r)
	if !ok {
		return
	}
	meal, err := s.services.Meals.Create(owner, params)
	s.respond(w, meal, err)
}

func (s *Server) handleMealList(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	switch {
	case q.Get("date") != "":
		meals, err := s.services.Meals.ByDate(owner, q.Get("date"))
		s.respond(w, meals, err)
	case q.Get("from") != "" && q.Get("to") != "":
		meals, err := s.services.Meals.ByDateRange(owner, q.Get("from"), q.Get("to"))
		s.respond(w, meals, err)
	default:
		meals, err := s.services.Meals.GetAll(owner)
		s.respond(w, meals, err)
	}
}

func (s *Server) handleMealGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	meal, err := s.services.Meals.GetByID(owner, r.PathValue("id"))
	s.respond(w, meal, err)
}

func (s *Server) handleMealUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	update, ok := decodeBody[planner.MealUpdate](s, w, r)
	if !ok {
		return
	}
	meal, err := s.services.Meals.Update(owner, r.PathValue("id"), update)
	s.respond(w, meal, err)
}

func (s *Server) handleMealDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	s.respondDeleted(w, id, s.services.Meals.Delete(owner, id))
}

// Tasks

func (s *Server) registerTaskRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/tasks", s.handleTaskCreate)
	mux.HandleFunc("GET /api/tasks", s.handleTaskList)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleTaskGet)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleTaskUpdate)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleTaskDelete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.handleTaskComplete)
	mux.HandleFunc("POST /api/tasks/{id}/incomplete", s.handleTaskIncomplete)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	params, ok := decodeBody[planner.TaskParams](s, w, r)
	if !ok {
		return
	}
	task, err := s.services.Tasks.Create(owner, params)
	s.respond(w, task, err)
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	switch r.URL.Query().Get("status") {
	case "pending":
		tasks, err := s.services.Tasks.Pending(owner)
		s.respond(w, tasks, err)
	case "overdue":
		tasks, err := s.services.Tasks.Overdue(owner, time.Now())
		s.respond(w, tasks, err)
	default:
		tasks, err := s.services.Tasks.GetAll(owner)
		s.respond(w, tasks, err)
	}
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	task, err := s.services.Tasks.GetByID(owner, r.PathValue("id"))
	s.respond(w, task, err)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	update, ok := decodeBody[planner.TaskUpdate](s, w, r)
	if !ok {
		return
	}
	task, err := s.services.Tasks.Update(owner, r.PathValue("id"), update)
	s.respond(w, task, err)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	s.respondDeleted(w, id, s.services.Tasks.Delete(owner, id))
}

func (s *Server) handleTaskComplete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	task, err := s.services.Tasks.MarkComplete(owner, r.PathValue("id"))
	s.respond(w, task, err)
}

func (s *Server) handleTaskIncomplete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	task, err := s.services.Tasks.MarkIncomplete(owner, r.PathValue("id"))
	s.respond(w, task, err)
}

// Workouts

func (s *Server) registerWorkoutRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/workouts", s.handleWorkoutCreate)
	mux.HandleFunc("GET /api/workouts", s.handleWorkoutList)
	mux.HandleFunc("GET /api/workouts/{id}", s.handleWorkoutGet)
	mux.HandleFunc("PATCH /api/workouts/{id}", s.handleWorkoutUpdate)
	mux.HandleFunc("DELETE /api/workouts/{id}", s.handleWorkoutDelete)
	mux.HandleFunc("POST /api/workouts/{id}/complete", s.handleWorkoutComplete)
	mux.HandleFunc("POST /api/workouts/{id}/incomplete", s.handleWorkoutIncomplete)
}

func (s *Server) handleWorkoutCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	params, ok := decodeBody[planner.WorkoutParams](s, w, r)
	if !ok {
		return
	}
	workout, err := s.services.Workouts.Create(owner, params)
	s.respond(w, workout, err)
}

func (s *Server) handleWorkoutList(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	switch {
	case q.Get("date") != "":
		workouts, err := s.services.Workouts.ByDate(owner, q.Get("date"))
		s.respond(w, workouts, err)
	case q.Get("upcoming") == "true":
		workouts, err := s.services.Workouts.Upcoming(owner, time.Now().Format(planner.DateLayout))
		s.respond(w, workouts, err)
	default:
		workouts, err := s.services.Workouts.GetAll(owner)
		s.respond(w, workouts, err)
	}
}

func (s *Server) handleWorkoutGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	workout, err := s.services.Workouts.GetByID(owner, r.PathValue("id"))
	s.respond(w, workout, err)
}

func (s *Server) handleWorkoutUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	update, ok := decodeBody[planner.WorkoutUpdate](s, w, r)
	if !ok {
		return
	}
	workout, err := s.services.Workouts.Update(owner, r.PathValue("id"), update)
	s.respond(w, workout, err)
}

func (s *Server) handleWorkoutDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	s.respondDeleted(w, id, s.services.Workouts.Delete(owner, id))
}

func (s *Server) handleWorkoutComplete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	workout, err := s.services.Workouts.MarkComplete(owner, r.PathValue("id"))
	s.respond(w, workout, err)
}

func (s *Server) handleWorkoutIncomplete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	workout, err := s.services.Workouts.MarkIncomplete(owner, r.PathValue("id"))
	s.respond(w, workout, err)
}

// Reminders

func (s *Server) registerReminderRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/reminders", s.handleReminderCreate)
	mux.HandleFunc("GET /api/reminders", s.handleReminderList)
	mux.HandleFunc("GET /api/reminders/{id}", s.handleReminderGet)
	mux.HandleFunc("PATCH /api/reminders/{id}", s.handleReminderUpdate)
	mux.HandleFunc("DELETE /api/reminders/{id}", s.handleReminderDelete)
	mux.HandleFunc("POST /api/reminders/{id}/complete", s.handleReminderComplete)
	mux.HandleFunc("POST /api/reminders/{id}/incomplete", s.handleReminderIncomplete)
}

func (s *Server) handleReminderCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	params, ok := decodeBody[planner.ReminderParams](s, w, r)
	if !ok {
		return
	}
	reminder, err := s.services.Reminders.Create(owner, params)
	s.respond(w, reminder, err)
}

func (s *Server) handleReminderList(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	switch r.URL.Query().Get("status") {
	case "pending":
		reminders, err := s.services.Reminders.Pending(owner)
		s.respond(w, reminders, err)
	case "due":
		reminders, err := s.services.Reminders.Due(owner, time.Now())
		s.respond(w, reminders, err)
	default:
		reminders, err := s.services.Reminders.GetAll(owner)
		s.respond(w, reminders, err)
	}
}

func (s *Server) handleReminderGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	reminder, err := s.services.Reminders.GetByID(owner, r.PathValue("id"))
	s.respond(w, reminder, err)
}

func (s *Server) handleReminderUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	update, ok := decodeBody[planner.ReminderUpdate](s, w, r)
	if !ok {
		return
	}
	reminder, err := s.services.Reminders.Update(owner, r.PathValue("id"), update)
	s.respond(w, reminder, err)
}

func (s *Server) handleReminderDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	s.respondDeleted(w, id, s.services.Reminders.Delete(owner, id))
}

func (s *Server) handleReminderComplete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	reminder, err := s.services.Reminders.MarkComplete(owner, r.PathValue("id"))
	s.respond(w, reminder, err)
}

func (s *Server) handleReminderIncomplete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	reminder, err := s.services.Reminders.MarkIncomplete(owner, r.PathValue("id"))
	s.respond(w, reminder, err)
}

// Time blocks

func (s *Server) registerTimeBlockRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/timeblocks", s.handleTimeBlockCreate)
	mux.HandleFunc("GET /api/timeblocks", s.handleTimeBlockList)
	mux.HandleFunc("GET /api/timeblocks/{id}", s.handleTimeBlockGet)
	mux.HandleFunc("PATCH /api/timeblocks/{id}", s.handleTimeBlockUpdate)
	mux.HandleFunc("DELETE /api/timeblocks/{id}", s.handleTimeBlockDelete)
}

func (s *Server) handleTimeBlockCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	params, ok := decodeBody[planner.TimeBlockParams](s, w, r)
	if !ok {
		return
	}
	block, err := s.services.TimeBlocks.Create(owner, params)
	s.respond(w, block, err)
}

func (s *Server) handleTimeBlockList(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	switch {
	case q.Get("from") != "" && q.Get("to") != "":
		from, err := time.Parse(time.RFC3339, q.Get("from"))
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "from: expected RFC3339 timestamp")
			return
		}
		to, err := time.Parse(time.RFC3339, q.Get("to"))
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "to: expected RFC3339 timestamp")
			return
		}
		blocks, err := s.services.TimeBlocks.ByRange(owner, from, to)
		s.respond(w, blocks, err)
	case q.Get("task") != "":
		blocks, err := s.services.TimeBlocks.ForTask(owner, q.Get("task"))
		s.respond(w, blocks, err)
	default:
		blocks, err := s.services.TimeBlocks.GetAll(owner)
		s.respond(w, blocks, err)
	}
}

func (s *Server) handleTimeBlockGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	block, err := s.services.TimeBlocks.GetByID(owner, r.PathValue("id"))
	s.respond(w, block, err)
}

func (s *Server) handleTimeBlockUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	update, ok := decodeBody[planner.TimeBlockUpdate](s, w, r)
	if !ok {
		return
	}
	block, err := s.services.TimeBlocks.Update(owner, r.PathValue("id"), update)
	s.respond(w, block, err)
}

func (s *Server) handleTimeBlockDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.owner(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	s.respondDeleted(w, id, s.services.TimeBlocks.Delete(owner, id))
}
