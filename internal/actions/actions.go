// Package actions defines the function catalog offered to the model
// and the dispatch registry that executes requested calls against the
// domain services.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/llm"
	"github.com/lifeplan-ai/lifeplan/internal/planner"
)

// Action represents one callable catalog entry. Parameters is a
// JSON-schema-shaped map consumed by the model to decide intent and
// shape arguments.
type Action struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     func(ctx context.Context, owner string, args map[string]any) (any, error)
}

// Registry holds the catalog and its handlers. The dispatch table is
// built once at startup; every catalog entry has a handler by
// construction (Register rejects entries without one).
type Registry struct {
	actions  map[string]*Action
	order    []string
	services *planner.Services
	logger   *slog.Logger
}

// NewRegistry creates the registry over an injected service bundle and
// registers the built-in catalog.
func NewRegistry(services *planner.Services, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		actions:  make(map[string]*Action),
		services: services,
		logger:   logger,
	}
	r.registerMealActions()
	r.registerTaskActions()
	r.registerWorkoutActions()
	r.registerReminderActions()
	r.registerTimeBlockActions()
	return r
}

// Register adds an action to the registry. Entries without a handler or
// with a duplicate name are rejected so the catalog and the dispatch
// table cannot drift apart.
func (r *Registry) Register(a *Action) error {
	if a.Handler == nil {
		return fmt.Errorf("action %q has no handler", a.Name)
	}
	if _, exists := r.actions[a.Name]; exists {
		return fmt.Errorf("action %q registered twice", a.Name)
	}
	r.actions[a.Name] = a
	r.order = append(r.order, a.Name)
	return nil
}

// mustRegister is Register for the built-in catalog, where a failure is
// a programming error.
func (r *Registry) mustRegister(a *Action) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Get retrieves an action by name, or nil.
func (r *Registry) Get(name string) *Action {
	return r.actions[name]
}

// Names returns all action names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Definitions returns the catalog in the form offered to the model.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		a := r.actions[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        a.Name,
			Description: a.Description,
			Parameters:  a.Parameters,
		})
	}
	return defs
}

// Execute runs an action by name with a raw JSON argument payload on
// behalf of an owner. Malformed JSON and unknown names are returned as
// errors; callers treat them as per-call failures, not fatal ones.
func (r *Registry) Execute(ctx context.Context, owner, name, argsJSON string) (any, error) {
	a := r.actions[name]
	if a == nil {
		return nil, fmt.Errorf("unknown action: %s", name)
	}

	args := map[string]any{}
	if strings.TrimSpace(argsJSON) != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}

	start := time.Now()
	result, err := a.Handler(ctx, owner, args)
	r.logger.Debug("action executed",
		"action", name,
		"owner", owner,
		"ok", err == nil,
		"duration", time.Since(start),
	)
	return result, err
}

// timeNow is overridable in tests that pin "now".
var timeNow = time.Now

// Argument extraction helpers. JSON numbers arrive as float64.

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func optStringArg(args map[string]any, key string) *string {
	if v, ok := args[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

func optIntArg(args map[string]any, key string) *int {
	if v, ok := args[key].(float64); ok {
		n := int(v)
		return &n
	}
	return nil
}

func timeArg(args map[string]any, key string) (time.Time, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return time.Time{}, fmt.Errorf("%s is required", key)
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected RFC3339 timestamp: %w", key, err)
	}
	return t, nil
}

func optTimeArg(args map[string]any, key string) (*time.Time, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%s: expected RFC3339 timestamp: %w", key, err)
	}
	return &t, nil
}

func stringListArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list of strings", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected a list of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

// dateArg returns a calendar date argument, defaulting to today when absent.
func dateArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return timeNow().Format(planner.DateLayout)
}

// Shared schema fragments.

func dateProperty(desc string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": desc + " (YYYY-MM-DD)",
	}
}

func timestampProperty(desc string) map[string]any {
	return map[string]any{
		"type":        "string",
		"description": desc + " (RFC3339 timestamp, e.g. 2026-09-01T17:00:00Z)",
	}
}
