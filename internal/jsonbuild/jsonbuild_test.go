package jsonbuild

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestEscapeStringControlChars(t *testing.T) {
	got := EscapeString("a\"b\\c\nd\x01e")
	want := `a\"b\\c\nde`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestFixedWriterOverflow(t *testing.T) {
	w := NewFixedWriter(4)
	if err := w.WriteString("ab"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.WriteString("cde"); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if w.Len() != 2 {
		t.Fatalf("overflowing write must not mutate, got len %d", w.Len())
	}
}

func TestBuildChatRequestIsValidJSON(t *testing.T) {
	tcJSON, err := WriteToolCallsJSON([]ToolCallBuild{{ID: "call_0", Name: "ping", Arguments: `{"a":1}`}}, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body, err := BuildChatRequest(ChatRequestParams{
		Model: "gpt-test",
		Messages: []Message{
			{Role: RoleSystem, Content: "be terse", HasContent: true},
			{Role: RoleUser, Content: "hi", HasContent: true},
			{Role: RoleAssistant, ToolCallsJSON: tcJSON},
			{Role: RoleTool, ToolCallID: "call_0", ToolName: "ping", Content: "pong", HasContent: true},
		},
		Stream:       true,
		IncludeUsage: true,
		ParamsJSON:   `{"temperature":0.1}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\nbody: %s", err, body)
	}
	messages := decoded["messages"].([]any)
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	for _, m := range messages {
		msg := m.(map[string]any)
		if _, ok := msg["role"]; !ok {
			t.Fatalf("message missing role: %v", msg)
		}
	}
	assistantMsg := messages[2].(map[string]any)
	if _, ok := assistantMsg["tool_calls"]; !ok {
		t.Fatalf("assistant message missing tool_calls")
	}
	toolMsg := messages[3].(map[string]any)
	if toolMsg["tool_call_id"] != "call_0" || toolMsg["name"] != "ping" {
		t.Fatalf("tool message missing fields: %v", toolMsg)
	}
	so, ok := decoded["stream_options"].(map[string]any)
	if !ok || so["include_usage"] != true {
		t.Fatalf("expected stream_options.include_usage=true, got %v", decoded["stream_options"])
	}
}

func TestWriteToolCallsJSONRejectsEmpty(t *testing.T) {
	if _, err := WriteToolCallsJSON([]ToolCallBuild{{Name: "", Arguments: "{}"}}, 0, 0); !errors.Is(err, ErrEmptyToolCall) {
		t.Fatalf("expected ErrEmptyToolCall, got %v", err)
	}
}

func TestWriteToolCallsJSONRejectsOversizedArgs(t *testing.T) {
	_, err := WriteToolCallsJSON([]ToolCallBuild{{Name: "ping", Arguments: `{"a":12345}`}}, 4, 0)
	if !errors.Is(err, ErrToolArgsTooLarge) {
		t.Fatalf("expected ErrToolArgsTooLarge, got %v", err)
	}
}

func TestWriteToolCallsJSONRejectsOverflow(t *testing.T) {
	_, err := WriteToolCallsJSON([]ToolCallBuild{{ID: "call_0", Name: "ping", Arguments: `{"a":1}`}}, 0, 8)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestWriteRequestOptionsRejectsNonFinite(t *testing.T) {
	_, err := WriteRequestOptions(RequestOptions{Temperature: math.NaN(), HasTemperature: true}, 0)
	if !errors.Is(err, ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite for NaN, got %v", err)
	}
	_, err = WriteRequestOptions(RequestOptions{TopP: math.Inf(1), HasTopP: true}, 0)
	if !errors.Is(err, ErrNonFinite) {
		t.Fatalf("expected ErrNonFinite for +Inf, got %v", err)
	}
}

func TestWriteRequestOptionsDeterministicOrder(t *testing.T) {
	opts := RequestOptions{
		Temperature: 0.5, HasTemperature: true,
		Seed: 42, HasSeed: true,
		MaxTokens: 100, HasMaxTokens: true,
	}
	a, err := WriteRequestOptions(opts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := WriteRequestOptions(opts, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Fatalf("non-deterministic output: %q vs %q", a, b)
	}
	want := `"temperature":0.5,"max_tokens":100,"seed":42`
	if a != want {
		t.Fatalf("got %q want %q", a, want)
	}
}

func TestWriteRequestOptionsStopCaps(t *testing.T) {
	_, err := WriteRequestOptions(RequestOptions{
		Stop: []string{"a", "b", "c"}, HasStop: true, MaxStopStrings: 2,
	}, 0)
	if !errors.Is(err, ErrTooManyStopStrings) {
		t.Fatalf("expected ErrTooManyStopStrings, got %v", err)
	}

	_, err = WriteRequestOptions(RequestOptions{
		Stop: []string{"toolong"}, HasStop: true, MaxStopBytes: 3,
	}, 0)
	if !errors.Is(err, ErrStopStringTooLarge) {
		t.Fatalf("expected ErrStopStringTooLarge, got %v", err)
	}
}

func TestWriteRequestOptionsRejectsOverflow(t *testing.T) {
	_, err := WriteRequestOptions(RequestOptions{
		Temperature: 0.5, HasTemperature: true,
		MaxTokens: 100, HasMaxTokens: true,
	}, 8)
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestBuildEmbeddingsRequestCaps(t *testing.T) {
	_, err := BuildEmbeddingsRequest(EmbeddingsRequestParams{
		Model: "m", Input: []string{"a", "b", "c"}, MaxInputCount: 2,
	})
	if !errors.Is(err, ErrTooManyInputs) {
		t.Fatalf("expected ErrTooManyInputs, got %v", err)
	}

	_, err = BuildEmbeddingsRequest(EmbeddingsRequestParams{
		Model: "m", Input: []string{"toolong"}, MaxInputBytes: 3,
	})
	if !errors.Is(err, ErrInputTooLarge) {
		t.Fatalf("expected ErrInputTooLarge, got %v", err)
	}
}
