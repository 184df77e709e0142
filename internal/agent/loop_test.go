package agent

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lifeplan-ai/lifeplan/internal/actions"
	"github.com/lifeplan-ai/lifeplan/internal/llm"
	"github.com/lifeplan-ai/lifeplan/internal/planner"
)

// mockLLM replays a canned sequence of responses and records the
// conversations it was shown.
type mockLLM struct {
	responses []*llm.ChatResponse
	calls     [][]llm.Message
	err       error
}

func (m *mockLLM) Chat(_ context.Context, msgs []llm.Message, _ []llm.ToolDefinition) (*llm.ChatResponse, error) {
	m.calls = append(m.calls, append([]llm.Message(nil), msgs...))
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return textResponse("done"), nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp, nil
}

func (m *mockLLM) Ping(context.Context) error { return nil }

func textResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Message:      llm.Message{Role: llm.RoleAssistant, Content: content},
		FinishReason: "stop",
	}
}

func callResponse(calls ...llm.ToolCall) *llm.ChatResponse {
	return &llm.ChatResponse{
		Message:      llm.Message{Role: llm.RoleAssistant, ToolCalls: calls},
		FinishReason: "tool_calls",
	}
}

func newTestLoop(t *testing.T, mock *mockLLM, cfg Config) (*Loop, *planner.Services) {
	t.Helper()
	store, err := planner.Open(filepath.Join(t.TempDir(), "test.db"), nil, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	svcs := planner.NewServices(store)
	return New(mock, actions.NewRegistry(svcs, nil), nil, nil, cfg), svcs
}

func TestRunRequiresOwner(t *testing.T) {
	loop, _ := newTestLoop(t, &mockLLM{}, Config{})

	_, err := loop.Run(context.Background(), Request{Message: "hi"})
	if !errors.Is(err, ErrNoOwner) {
		t.Errorf("expected ErrNoOwner, got %v", err)
	}
}

func TestRunRequiresClient(t *testing.T) {
	store, err := planner.Open(filepath.Join(t.TempDir(), "test.db"), nil, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	loop := New(nil, actions.NewRegistry(planner.NewServices(store), nil), nil, nil, Config{})

	_, err = loop.Run(context.Background(), Request{Message: "hi", Owner: "u1"})
	if !errors.Is(err, llm.ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
}

func TestTextOnlyTurnTerminates(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{textResponse("Hello there!")}}
	loop, _ := newTestLoop(t, mock, Config{SystemPrompt: "You are a planner."})

	resp, err := loop.Run(context.Background(), Request{Message: "hi", Owner: "u1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Message != "Hello there!" {
		t.Errorf("message = %q", resp.Message)
	}
	if len(resp.Actions) != 0 {
		t.Errorf("expected no actions, got %d", len(resp.Actions))
	}
	if resp.ActiveModule != nil {
		t.Errorf("expected nil active module")
	}
	if len(mock.calls) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(mock.calls))
	}
	conv := mock.calls[0]
	if conv[0].Role != llm.RoleSystem || conv[0].Content != "You are a planner." {
		t.Errorf("system prompt not seeded: %+v", conv[0])
	}
	if last := conv[len(conv)-1]; last.Role != llm.RoleUser || last.Content != "hi" {
		t.Errorf("user message not trailing: %+v", last)
	}
}

func TestEmptyAnswerFallsBack(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{textResponse("")}}
	loop, _ := newTestLoop(t, mock, Config{FallbackMessage: "How can I help?"})

	resp, err := loop.Run(context.Background(), Request{Message: "…", Owner: "u1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Message != "How can I help?" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestFunctionCallRoundTrip(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{
		callResponse(llm.ToolCall{
			ID:        "call_1",
			Name:      "add_task",
			Arguments: `{"title":"Call the dentist","due":"2026-09-02T09:00:00Z"}`,
		}),
		textResponse("I've added that task for you."),
	}}
	loop, svcs := newTestLoop(t, mock, Config{})

	resp, err := loop.Run(context.Background(), Request{Message: "Remind me to call the dentist", Owner: "u1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Message != "I've added that task for you." {
		t.Errorf("message = %q", resp.Message)
	}
	if len(resp.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(resp.Actions))
	}
	act := resp.Actions[0]
	if act.Function != "add_task" || !act.Success || act.Error != "" {
		t.Errorf("unexpected action record: %+v", act)
	}
	if act.Arguments["title"] != "Call the dentist" {
		t.Errorf("arguments not captured: %+v", act.Arguments)
	}
	if len(resp.ActionResults) != 1 {
		t.Errorf("expected 1 action result, got %d", len(resp.ActionResults))
	}

	tasks, err := svcs.Tasks.GetAll("u1")
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Call the dentist" {
		t.Errorf("task not persisted: %+v", tasks)
	}

	// The second model call must carry the tool result turn.
	if len(mock.calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(mock.calls))
	}
	second := mock.calls[1]
	last := second[len(second)-1]
	if last.Role != llm.RoleTool || last.ToolCallID != "call_1" {
		t.Errorf("tool result not appended: %+v", last)
	}
	if !strings.Contains(last.Content, `"success":true`) {
		t.Errorf("tool payload missing success flag: %s", last.Content)
	}
}

func TestMalformedArgumentsAreCapturedNotFatal(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{
		callResponse(llm.ToolCall{ID: "call_1", Name: "add_task", Arguments: `{"title": `}),
		textResponse("Something went wrong with that."),
	}}
	loop, _ := newTestLoop(t, mock, Config{})

	resp, err := loop.Run(context.Background(), Request{Message: "add a task", Owner: "u1"})
	if err != nil {
		t.Fatalf("run should not fail on a bad call: %v", err)
	}
	if len(resp.Actions) != 1 {
		t.Fatalf("expected 1 action record, got %d", len(resp.Actions))
	}
	act := resp.Actions[0]
	if act.Success || act.Error == "" {
		t.Errorf("failure not recorded: %+v", act)
	}
	if len(resp.ActionResults) != 0 {
		t.Errorf("failed call leaked a result: %+v", resp.ActionResults)
	}

	second := mock.calls[1]
	last := second[len(second)-1]
	if last.Role != llm.RoleTool || !strings.Contains(last.Content, `"success":false`) {
		t.Errorf("failure payload not fed back: %+v", last)
	}
}

func TestUnknownActionIsCapturedNotFatal(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{
		callResponse(llm.ToolCall{ID: "call_1", Name: "launch_rocket", Arguments: `{}`}),
		textResponse("I can't do that."),
	}}
	loop, _ := newTestLoop(t, mock, Config{})

	resp, err := loop.Run(context.Background(), Request{Message: "go", Owner: "u1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Actions[0].Success || !strings.Contains(resp.Actions[0].Error, "unknown action") {
		t.Errorf("unexpected record: %+v", resp.Actions[0])
	}
}

// The loop never makes more model calls than the configured ceiling,
// even if the model keeps asking for functions forever.
func TestIterationCeiling(t *testing.T) {
	greedy := callResponse(llm.ToolCall{ID: "c", Name: "list_tasks", Arguments: `{}`})
	mock := &mockLLM{responses: []*llm.ChatResponse{greedy}}
	loop, _ := newTestLoop(t, mock, Config{MaxIterations: 3, TruncationMessage: "Ran out of room."})

	resp, err := loop.Run(context.Background(), Request{Message: "loop forever", Owner: "u1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mock.calls) != 3 {
		t.Errorf("expected exactly 3 model calls, got %d", len(mock.calls))
	}
	if resp.Message != "Ran out of room." {
		t.Errorf("message = %q", resp.Message)
	}
	if len(resp.Actions) != 3 {
		t.Errorf("expected 3 action records, got %d", len(resp.Actions))
	}
}

func TestModelErrorIsReturned(t *testing.T) {
	wantErr := errors.New("boom")
	loop, _ := newTestLoop(t, &mockLLM{err: wantErr}, Config{})

	_, err := loop.Run(context.Background(), Request{Message: "hi", Owner: "u1"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped model error, got %v", err)
	}
}

// A continued conversation replays the supplied turns verbatim; the
// system prompt is only seeded on the first turn.
func TestHistoryIsReplayedInOrder(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{textResponse("ok")}}
	loop, _ := newTestLoop(t, mock, Config{SystemPrompt: "sys"})

	req := Request{
		Message: "and now?",
		Owner:   "u1",
		History: []Message{
			{Role: "user", Content: "plan my week"},
			{Role: "assistant", Content: "sure, starting with Monday"},
		},
	}
	if _, err := loop.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}

	conv := mock.calls[0]
	wantRoles := []string{llm.RoleUser, llm.RoleAssistant, llm.RoleUser}
	if len(conv) != len(wantRoles) {
		t.Fatalf("conversation has %d turns, want %d: %+v", len(conv), len(wantRoles), conv)
	}
	for i, role := range wantRoles {
		if conv[i].Role != role {
			t.Errorf("turn %d role = %q, want %q", i, conv[i].Role, role)
		}
	}
	if conv[0].Content != "plan my week" {
		t.Errorf("first turn content = %q", conv[0].Content)
	}
}

// Roles the loop does not produce itself still pass through as the
// caller supplied them.
func TestHistoryRolesAreNotRewritten(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{textResponse("ok")}}
	loop, _ := newTestLoop(t, mock, Config{})

	req := Request{
		Message: "continue",
		Owner:   "u1",
		History: []Message{
			{Role: "user", Content: "add a task"},
			{Role: "function-result", Content: `{"success":true}`},
		},
	}
	if _, err := loop.Run(context.Background(), req); err != nil {
		t.Fatalf("run: %v", err)
	}

	conv := mock.calls[0]
	if conv[1].Role != "function-result" {
		t.Errorf("role rewritten to %q, want function-result", conv[1].Role)
	}
}

// Planning a dinner end to end: the model asks for a meal and a time
// block, then summarizes.
func TestPlanDinnerScenario(t *testing.T) {
	mock := &mockLLM{responses: []*llm.ChatResponse{
		callResponse(
			llm.ToolCall{
				ID:        "call_meal",
				Name:      "add_meal",
				Arguments: `{"name":"Salmon teriyaki","meal_type":"dinner","planned_date":"2026-09-01"}`,
			},
			llm.ToolCall{
				ID:        "call_block",
				Name:      "add_time_block",
				Arguments: `{"title":"Dinner","start":"2026-09-01T19:00:00Z","end":"2026-09-01T20:00:00Z","category":"meal"}`,
			},
		),
		textResponse("Dinner is planned: salmon teriyaki at 7pm."),
	}}
	loop, svcs := newTestLoop(t, mock, Config{})

	resp, err := loop.Run(context.Background(), Request{Message: "Plan my dinner", Owner: "u1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(resp.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(resp.Actions))
	}
	for _, act := range resp.Actions {
		if !act.Success {
			t.Errorf("action %s failed: %s", act.Function, act.Error)
		}
	}

	meals, _ := svcs.Meals.ByDate("u1", "2026-09-01")
	if len(meals) != 1 {
		t.Errorf("expected 1 meal, got %d", len(meals))
	}
	blocks, _ := svcs.TimeBlocks.GetAll("u1")
	if len(blocks) != 1 {
		t.Errorf("expected 1 time block, got %d", len(blocks))
	}
}
