package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{
			name: "quota code",
			err:  &openai.APIError{Code: "insufficient_quota", HTTPStatusCode: http.StatusTooManyRequests},
			want: FailureQuota,
		},
		{
			name: "quota type",
			err:  &openai.APIError{Type: "insufficient_quota", HTTPStatusCode: http.StatusTooManyRequests},
			want: FailureQuota,
		},
		{
			name: "invalid key code",
			err:  &openai.APIError{Code: "invalid_api_key", HTTPStatusCode: http.StatusUnauthorized},
			want: FailureAuth,
		},
		{
			name: "bare 401",
			err:  &openai.APIError{HTTPStatusCode: http.StatusUnauthorized},
			want: FailureAuth,
		},
		{
			name: "server error",
			err:  &openai.APIError{HTTPStatusCode: http.StatusInternalServerError},
			want: FailureOther,
		},
		{
			name: "transport error",
			err:  errors.New("connection refused"),
			want: FailureOther,
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("chat completion: %w", &openai.APIError{Code: "insufficient_quota"}),
			want: FailureQuota,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToOpenAIMessagesRoundTrip(t *testing.T) {
	in := []Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "plan my dinner"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "add_meal", Arguments: `{"name":"pasta"}`}}},
		{Role: RoleTool, Content: `{"id":"m1"}`, ToolCallID: "call_1", Name: "add_meal"},
	}

	out := toOpenAIMessages(in)
	if len(out) != 4 {
		t.Fatalf("got %d messages, want 4", len(out))
	}
	if out[2].ToolCalls[0].Function.Name != "add_meal" {
		t.Errorf("tool call name = %q, want add_meal", out[2].ToolCalls[0].Function.Name)
	}
	if out[3].ToolCallID != "call_1" {
		t.Errorf("tool call id = %q, want call_1", out[3].ToolCallID)
	}
}

func TestToOpenAITools(t *testing.T) {
	defs := []ToolDefinition{
		{Name: "add_task", Description: "Add a task", Parameters: map[string]any{"type": "object"}},
	}

	out := toOpenAITools(defs)
	if len(out) != 1 {
		t.Fatalf("got %d tools, want 1", len(out))
	}
	if out[0].Function == nil || out[0].Function.Name != "add_task" {
		t.Errorf("unexpected function definition: %+v", out[0].Function)
	}

	if toOpenAITools(nil) != nil {
		t.Error("expected nil for empty tool set")
	}
}
