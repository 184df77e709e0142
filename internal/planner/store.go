package planner

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lifeplan-ai/lifeplan/internal/events"
)

// Store is the owner-scoped record store. Every statement filters by
// owner; two owners never see each other's rows.
type Store struct {
	db     *sql.DB
	bus    *events.Bus
	logger *slog.Logger
}

// Open creates a record store with a SQLite backend. bus may be nil
// when no change feed is wanted.
func Open(dbPath string, bus *events.Bus, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, bus: bus, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meals (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		planned_date TEXT NOT NULL,
		calories INTEGER,
		ingredients_json TEXT,
		instructions TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		due TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS workouts (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		duration_minutes INTEGER,
		intensity TEXT,
		scheduled_date TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		title TEXT NOT NULL,
		due TEXT,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS time_blocks (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		title TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		category TEXT,
		task_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_meals_owner_date ON meals(owner, planned_date);
	CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner);
	CREATE INDEX IF NOT EXISTS idx_workouts_owner_date ON workouts(owner, scheduled_date);
	CREATE INDEX IF NOT EXISTS idx_reminders_owner ON reminders(owner);
	CREATE INDEX IF NOT EXISTS idx_time_blocks_owner_start ON time_blocks(owner, start_time);
	`

	_, err := s.db.Exec(schema)
	return err
}

// NewID generates a new UUIDv7.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		return uuid.New().String()
	}
	return id.String()
}

// publish emits a change-feed event for a mutation. No-op when the
// store was opened without a bus.
func (s *Store) publish(kind, entity, id, owner string) {
	s.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourcePlanner,
		Kind:      kind,
		Data:      map[string]any{"entity": entity, "id": id, "owner": owner},
	})
}

// Timestamp column helpers. Timestamps are stored as RFC3339Nano TEXT;
// optional timestamps as NULL.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseTimeCol(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func parseStringCol(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func parseIntCol(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

// validDate reports whether s is a calendar date in DateLayout.
func validDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
