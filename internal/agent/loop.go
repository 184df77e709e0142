// Package agent runs the chat orchestration loop: it hands the user's
// message and the function catalog to the model, executes the function
// calls the model requests, feeds results back, and repeats until the
// model answers in plain text or the iteration ceiling is hit.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lifeplan-ai/lifeplan/internal/actions"
	"github.com/lifeplan-ai/lifeplan/internal/events"
	"github.com/lifeplan-ai/lifeplan/internal/llm"
)

// ErrNoOwner is returned when a request arrives without an owner.
var ErrNoOwner = errors.New("agent: request has no owner")

// Message is one prior turn supplied by the client.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat turn to orchestrate.
type Request struct {
	Message string    `json:"message"`
	History []Message `json:"messages,omitempty"`
	Owner   string    `json:"-"`
}

// ActionRecord describes one executed function call, in order.
type ActionRecord struct {
	Function  string         `json:"function"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    any            `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Success   bool           `json:"success"`
}

// Response is the outcome of a full orchestration run.
type Response struct {
	Message       string         `json:"message"`
	Actions       []ActionRecord `json:"actions"`
	ActionResults []any          `json:"actionResults"`
	ActiveModule  *string        `json:"activeModule"`
}

// Config tunes the loop. Zero values fall back to sane defaults.
type Config struct {
	MaxIterations     int
	SystemPrompt      string
	FallbackMessage   string
	TruncationMessage string
}

const (
	defaultMaxIterations = 10
	defaultFallback      = "I'm here to help!"
	defaultTruncation    = "I completed the requested actions, but the conversation context may have been truncated."
)

// Loop drives the model/function-call cycle for chat requests.
type Loop struct {
	client   llm.Client
	registry *actions.Registry
	bus      *events.Bus
	logger   *slog.Logger
	cfg      Config
}

// New creates a loop over an injected model client and action registry.
func New(client llm.Client, registry *actions.Registry, bus *events.Bus, logger *slog.Logger, cfg Config) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.FallbackMessage == "" {
		cfg.FallbackMessage = defaultFallback
	}
	if cfg.TruncationMessage == "" {
		cfg.TruncationMessage = defaultTruncation
	}
	return &Loop{
		client:   client,
		registry: registry,
		bus:      bus,
		logger:   logger,
		cfg:      cfg,
	}
}

// Run orchestrates one chat turn. Errors from the model client are
// returned to the caller; errors from individual function calls are
// captured in the action log and fed back to the model instead.
func (l *Loop) Run(ctx context.Context, req Request) (*Response, error) {
	if req.Owner == "" {
		return nil, ErrNoOwner
	}
	if l.client == nil {
		return nil, llm.ErrMissingCredential
	}

	conv := l.seedConversation(req)
	defs := l.registry.Definitions()
	resp := &Response{
		Actions:       []ActionRecord{},
		ActionResults: []any{},
	}

	l.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceAgent,
		Kind:      events.KindRequestStart,
		Data:      map[string]any{"owner": req.Owner, "history_len": len(req.History)},
	})

	iterations := 0
	for iterations < l.cfg.MaxIterations {
		iterations++
		l.bus.Publish(events.Event{
			Timestamp: time.Now(),
			Source:    events.SourceAgent,
			Kind:      events.KindModelCall,
			Data:      map[string]any{"owner": req.Owner, "iter": iterations},
		})

		chat, err := l.client.Chat(ctx, conv, defs)
		if err != nil {
			return nil, fmt.Errorf("model call: %w", err)
		}
		conv = append(conv, chat.Message)

		if len(chat.Message.ToolCalls) == 0 {
			resp.Message = chat.Message.Content
			if resp.Message == "" {
				resp.Message = l.cfg.FallbackMessage
			}
			l.finish(req.Owner, iterations, resp)
			return resp, nil
		}

		for _, call := range chat.Message.ToolCalls {
			record, payload := l.executeCall(ctx, req.Owner, call)
			resp.Actions = append(resp.Actions, record)
			if record.Success {
				resp.ActionResults = append(resp.ActionResults, record.Result)
			}
			conv = append(conv, llm.Message{
				Role:       llm.RoleTool,
				Content:    payload,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}

	// Ceiling hit while the model was still asking for calls.
	l.logger.Warn("iteration ceiling reached", "owner", req.Owner, "iterations", iterations)
	resp.Message = l.cfg.TruncationMessage
	l.finish(req.Owner, iterations, resp)
	return resp, nil
}

// seedConversation builds the model-facing transcript. A fresh
// conversation opens with the system prompt; a continued one replays the
// supplied turns unchanged. The new user message closes either way.
func (l *Loop) seedConversation(req Request) []llm.Message {
	conv := make([]llm.Message, 0, len(req.History)+2)
	if len(req.History) == 0 && l.cfg.SystemPrompt != "" {
		conv = append(conv, llm.Message{Role: llm.RoleSystem, Content: l.cfg.SystemPrompt})
	}
	for _, m := range req.History {
		conv = append(conv, llm.Message{Role: m.Role, Content: m.Content})
	}
	return append(conv, llm.Message{Role: llm.RoleUser, Content: req.Message})
}

// executeCall runs one requested function call and renders the payload
// fed back to the model. Failures become structured tool output rather
// than aborting the run.
func (l *Loop) executeCall(ctx context.Context, owner string, call llm.ToolCall) (ActionRecord, string) {
	record := ActionRecord{Function: call.Name}
	if args := map[string]any{}; json.Unmarshal([]byte(call.Arguments), &args) == nil {
		record.Arguments = args
	}

	l.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceAgent,
		Kind:      events.KindActionCall,
		Data:      map[string]any{"owner": owner, "action": call.Name},
	})

	result, err := l.registry.Execute(ctx, owner, call.Name, call.Arguments)
	var payload []byte
	if err != nil {
		record.Error = err.Error()
		l.logger.Warn("action failed", "action", call.Name, "owner", owner, "error", err)
		payload, _ = json.Marshal(map[string]any{"success": false, "error": err.Error()})
	} else {
		record.Success = true
		record.Result = result
		payload, err = json.Marshal(map[string]any{"success": true, "result": result})
		if err != nil {
			payload = []byte(`{"success": true}`)
		}
	}

	l.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceAgent,
		Kind:      events.KindActionDone,
		Data:      map[string]any{"owner": owner, "action": call.Name, "ok": record.Success},
	})
	return record, string(payload)
}

func (l *Loop) finish(owner string, iterations int, resp *Response) {
	l.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceAgent,
		Kind:      events.KindRequestComplete,
		Data:      map[string]any{"owner": owner, "iterations": iterations, "actions": len(resp.Actions)},
	})
	l.logger.Info("chat turn complete",
		"owner", owner, "iterations", iterations, "actions", len(resp.Actions))
}
