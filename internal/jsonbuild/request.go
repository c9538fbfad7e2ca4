package jsonbuild

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/buger/jsonparser"
)

// ErrEmptyToolCall is returned when a tool call is missing a required
// name or arguments field.
var ErrEmptyToolCall = errors.New("jsonbuild: tool call missing name or arguments")

// ErrToolArgsTooLarge is returned when a single tool call's arguments
// exceed maxArgsBytesPerCall.
var ErrToolArgsTooLarge = errors.New("jsonbuild: tool call arguments exceed per-call byte cap")

// ErrTooManyContentParts and ErrContentPartsTooLarge guard a message's
// ContentPartsJSON against the caller's content-part caps.
var (
	ErrTooManyContentParts   = errors.New("jsonbuild: content parts exceed max content parts")
	ErrContentPartsTooLarge  = errors.New("jsonbuild: content parts JSON exceeds max content parts bytes")
	ErrContentPartsMalformed = errors.New("jsonbuild: content parts is not a JSON array")
)

// newCapWriter returns a FixedWriter bounded at maxBytes, or effectively
// unbounded if maxBytes is 0 or negative.
func newCapWriter(maxBytes int) *FixedWriter {
	if maxBytes <= 0 {
		maxBytes = math.MaxInt32
	}
	return NewFixedWriter(maxBytes)
}

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCallBuild describes one tool call to render into an assistant
// message's raw tool_calls array.
type ToolCallBuild struct {
	ID        string // optional
	Name      string
	Arguments string // a JSON object source, embedded as a JSON string
}

// Message is one chat message to render into a request body. Content and
// ContentPartsJSON are mutually exclusive; ToolCallsJSON is assistant-only;
// ToolCallID and ToolName are tool-role fields (assistant forbids both).
type Message struct {
	Role             Role
	Content          string
	HasContent       bool
	ContentPartsJSON string // raw JSON array, caller-validated
	ToolCallsJSON    string // raw JSON array, caller-validated (assistant only)
	ToolCallID       string // tool role
	ToolName         string // tool role, optional
}

// WriteToolCallsJSON renders calls as a JSON array suitable for an
// assistant message's tool_calls field, into a fixed-capacity buffer of
// maxOutputBytes (0 = unbounded), rejecting any call whose arguments
// exceed maxArgsBytesPerCall (0 = unbounded). It fails if any call lacks
// a name or arguments, if a per-call cap is exceeded, or if the total
// rendered size overflows maxOutputBytes.
func WriteToolCallsJSON(calls []ToolCallBuild, maxArgsBytesPerCall, maxOutputBytes int) (string, error) {
	w := newCapWriter(maxOutputBytes)
	var werr error
	write := func(s string) {
		if werr != nil {
			return
		}
		werr = w.WriteString(s)
	}

	write("[")
	for i, c := range calls {
		if c.Name == "" || c.Arguments == "" {
			return "", ErrEmptyToolCall
		}
		if maxArgsBytesPerCall > 0 && len(c.Arguments) > maxArgsBytesPerCall {
			return "", ErrToolArgsTooLarge
		}
		if i > 0 {
			write(",")
		}
		write("{")
		if c.ID != "" {
			write(fmt.Sprintf(`"id":%s,`, QuoteString(c.ID)))
		}
		write(`"type":"function","function":{`)
		write(fmt.Sprintf(`"name":%s,`, QuoteString(c.Name)))
		write(fmt.Sprintf(`"arguments":%s`, QuoteString(c.Arguments)))
		write("}}")
	}
	write("]")

	if werr != nil {
		return "", werr
	}
	return string(w.Bytes()), nil
}

func writeMessage(b *strings.Builder, m Message, maxContentParts, maxContentPartsBytes int) error {
	b.WriteByte('{')
	fmt.Fprintf(b, `"role":%s`, QuoteString(string(m.Role)))

	switch {
	case m.ContentPartsJSON != "":
		if err := validateContentParts(m.ContentPartsJSON, maxContentParts, maxContentPartsBytes); err != nil {
			return err
		}
		fmt.Fprintf(b, `,"content":%s`, m.ContentPartsJSON)
	case m.HasContent:
		fmt.Fprintf(b, `,"content":%s`, QuoteString(m.Content))
	default:
		b.WriteString(`,"content":null`)
	}

	if m.Role == RoleAssistant && m.ToolCallsJSON != "" {
		fmt.Fprintf(b, `,"tool_calls":%s`, m.ToolCallsJSON)
	}
	if m.Role == RoleTool {
		fmt.Fprintf(b, `,"tool_call_id":%s`, QuoteString(m.ToolCallID))
		if m.ToolName != "" {
			fmt.Fprintf(b, `,"name":%s`, QuoteString(m.ToolName))
		}
	}
	b.WriteByte('}')
	return nil
}

// validateContentParts enforces the part-count and total-byte caps on a
// message's raw content-parts array (0 = unbounded for either).
func validateContentParts(raw string, maxParts, maxBytes int) error {
	if maxBytes > 0 && len(raw) > maxBytes {
		return ErrContentPartsTooLarge
	}
	if maxParts <= 0 {
		return nil
	}
	count := 0
	_, err := jsonparser.ArrayEach([]byte(raw), func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		count++
	})
	if err != nil {
		return ErrContentPartsMalformed
	}
	if count > maxParts {
		return ErrTooManyContentParts
	}
	return nil
}

// spliceObjectBody strips the outer braces of a caller-supplied JSON
// object (if present) so its keys can be merged as siblings into another
// object; otherwise it is assumed to already be raw "key":value pairs.
func spliceObjectBody(raw string) string {
	t := strings.TrimSpace(raw)
	if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
		return strings.TrimSpace(t[1 : len(t)-1])
	}
	return t
}

// ChatRequestParams holds everything needed to render a chat completions
// request body.
type ChatRequestParams struct {
	Model              string
	Messages           []Message
	Stream             bool
	IncludeUsage       bool
	ParamsJSON         string // optional, spliced as sibling keys
	ToolingJSON        string // optional, spliced as sibling keys (tools, tool_choice, ...)
	ResponseFormatJSON string // optional, set verbatim

	MaxContentParts      int // per message, 0 = unbounded
	MaxContentPartsBytes int // per message, 0 = unbounded
}

// BuildChatRequest renders a /v1/chat/completions request body.
func BuildChatRequest(p ChatRequestParams) (string, error) {
	var b strings.Builder
	b.WriteByte('{')
	fmt.Fprintf(&b, `"model":%s,"messages":[`, QuoteString(p.Model))
	for i, m := range p.Messages {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeMessage(&b, m, p.MaxContentParts, p.MaxContentPartsBytes); err != nil {
			return "", err
		}
	}
	b.WriteByte(']')

	if p.Stream {
		b.WriteString(`,"stream":true`)
		if p.IncludeUsage {
			b.WriteString(`,"stream_options":{"include_usage":true}`)
		}
	}
	if p.ResponseFormatJSON != "" {
		fmt.Fprintf(&b, `,"response_format":%s`, p.ResponseFormatJSON)
	}
	if p.ParamsJSON != "" {
		if s := spliceObjectBody(p.ParamsJSON); s != "" {
			fmt.Fprintf(&b, `,%s`, s)
		}
	}
	if p.ToolingJSON != "" {
		if s := spliceObjectBody(p.ToolingJSON); s != "" {
			fmt.Fprintf(&b, `,%s`, s)
		}
	}
	b.WriteByte('}')
	return b.String(), nil
}

// CompletionsRequestParams holds everything needed to render a
// /v1/completions request body.
type CompletionsRequestParams struct {
	Model       string
	Prompt      string
	Stream      bool
	IncludeUsage bool
	ParamsJSON  string
}

// BuildCompletionsRequest renders a /v1/completions request body.
func BuildCompletionsRequest(p CompletionsRequestParams) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `{"model":%s,"prompt":%s`, QuoteString(p.Model), QuoteString(p.Prompt))
	if p.Stream {
		b.WriteString(`,"stream":true`)
		if p.IncludeUsage {
			b.WriteString(`,"stream_options":{"include_usage":true}`)
		}
	}
	if p.ParamsJSON != "" {
		if s := spliceObjectBody(p.ParamsJSON); s != "" {
			fmt.Fprintf(&b, `,%s`, s)
		}
	}
	b.WriteByte('}')
	return b.String(), nil
}

// ErrTooManyInputs and ErrInputTooLarge guard embeddings request limits.
var (
	ErrTooManyInputs = errors.New("jsonbuild: embeddings input count exceeds limit")
	ErrInputTooLarge = errors.New("jsonbuild: embeddings input string exceeds byte limit")
)

// EmbeddingsRequestParams holds everything needed to render a
// /v1/embeddings request body.
type EmbeddingsRequestParams struct {
	Model             string
	Input             []string
	MaxInputBytes     int // per string, 0 = unbounded
	MaxInputCount     int // 0 = unbounded
	ParamsJSON        string
}

// BuildEmbeddingsRequest renders a /v1/embeddings request body, validating
// per-string and count caps before emitting anything.
func BuildEmbeddingsRequest(p EmbeddingsRequestParams) (string, error) {
	if p.MaxInputCount > 0 && len(p.Input) > p.MaxInputCount {
		return "", ErrTooManyInputs
	}
	for _, s := range p.Input {
		if p.MaxInputBytes > 0 && len(s) > p.MaxInputBytes {
			return "", ErrInputTooLarge
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, `{"model":%s,"input":[`, QuoteString(p.Model))
	for i, s := range p.Input {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(QuoteString(s))
	}
	b.WriteByte(']')
	if p.ParamsJSON != "" {
		if s := spliceObjectBody(p.ParamsJSON); s != "" {
			fmt.Fprintf(&b, `,%s`, s)
		}
	}
	b.WriteByte('}')
	return b.String(), nil
}
