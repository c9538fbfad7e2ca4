package protocol

import (
	"encoding/json"

	"github.com/buger/jsonparser"
)

// ToolCall is a parsed tool call. Its fields are decoded copies of the
// response's string values; a field absent from the response is left
// empty.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ChatChoice is one entry of a chat response's choices array.
type ChatChoice struct {
	Index                int
	FinishReason         FinishReason
	Content              string
	HasContent           bool
	ReasoningContent     string
	HasReasoningContent  bool
	ToolCalls            []ToolCall
	ToolCallsJSON        string // raw array span, empty if absent
}

// ChatResult owns the response buffer and exposes its choices in input
// order. Choice0 is a convenience alias into Choices[0]; both share the
// same backing buffer.
type ChatResult struct {
	Raw     []byte
	Choices []ChatChoice
}

// Choice0 returns the first choice, mirroring the top-level convenience
// alias a non-stream chat result exposes. ok is false for an empty result.
func (r *ChatResult) Choice0() (ChatChoice, bool) {
	if len(r.Choices) == 0 {
		return ChatChoice{}, false
	}
	return r.Choices[0], true
}

// Choice returns the choice at index, or ErrChoiceIndexOutOfRange.
func (r *ChatResult) Choice(index int) (ChatChoice, error) {
	if index < 0 || index >= len(r.Choices) {
		return ChatChoice{}, ErrChoiceIndexOutOfRange
	}
	return r.Choices[index], nil
}

// ParseChatResponse parses a non-stream /v1/chat/completions response
// body. The result keeps raw as Raw; its string fields are decoded copies
// and do not alias raw.
func ParseChatResponse(raw []byte) (*ChatResult, error) {
	if !json.Valid(raw) {
		return nil, ErrJSON
	}
	choicesVal, dt, _, err := jsonparser.Get(raw, "choices")
	if err != nil || dt != jsonparser.Array {
		return nil, ErrProtocol
	}

	var choices []ChatChoice
	var parseErr error
	_, err = jsonparser.ArrayEach(choicesVal, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if err != nil || parseErr != nil {
			return
		}
		c, e := parseChatChoice(value)
		if e != nil {
			parseErr = e
			return
		}
		choices = append(choices, c)
	})
	if err != nil || parseErr != nil {
		return nil, ErrProtocol
	}
	return &ChatResult{Raw: raw, Choices: choices}, nil
}

func parseChatChoice(value []byte) (ChatChoice, error) {
	var c ChatChoice

	if idx, err := jsonparser.GetInt(value, "index"); err == nil {
		c.Index = int(idx)
	}
	if fr, err := jsonparser.GetString(value, "finish_reason"); err == nil {
		c.FinishReason = ParseFinishReason(fr)
	} else {
		c.FinishReason = FinishUnknown
	}
	if content, err := jsonparser.GetString(value, "message", "content"); err == nil {
		c.Content = content
		c.HasContent = true
	}
	if reasoning, err := jsonparser.GetString(value, "message", "reasoning_content"); err == nil {
		c.ReasoningContent = reasoning
		c.HasReasoningContent = true
	}

	tcVal, dt, _, err := jsonparser.Get(value, "message", "tool_calls")
	if err == nil && dt == jsonparser.Array {
		c.ToolCallsJSON = string(tcVal)
		_, _ = jsonparser.ArrayEach(tcVal, func(v []byte, dataType jsonparser.ValueType, offset int, err error) {
			if err != nil {
				return
			}
			var tc ToolCall
			if id, e := jsonparser.GetString(v, "id"); e == nil {
				tc.ID = id
			}
			if name, e := jsonparser.GetString(v, "function", "name"); e == nil {
				tc.Name = name
			}
			if args, e := jsonparser.GetString(v, "function", "arguments"); e == nil {
				tc.Arguments = args
			}
			c.ToolCalls = append(c.ToolCalls, tc)
		})
	}

	return c, nil
}
