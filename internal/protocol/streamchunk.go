package protocol

import (
	"encoding/json"

	"github.com/buger/jsonparser"
)

// ToolCallDelta is one tool-call observation within a single streamed
// chunk. Index identifies which in-progress tool call it belongs to.
type ToolCallDelta struct {
	Index             int
	ID                string
	HasID             bool
	Name              string
	HasName           bool
	ArgumentsFragment string
	HasArguments      bool
}

// Usage carries token accounting, present at most once per stream (the
// final chunk when stream_options.include_usage is set).
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatChunkDelta is the parsed content of one SSE data payload, scoped to
// a single requested choice index.
type ChatChunkDelta struct {
	ContentDelta   string
	HasContent     bool
	ReasoningDelta string
	HasReasoning   bool
	ToolCalls      []ToolCallDelta
	Usage          *Usage
	FinishReason   FinishReason
	HasFinish      bool
}

// ParseChatChunk parses a single chat-completions SSE payload, selecting
// the choice whose "index" field equals choiceIndex. If no choice carries
// an explicit index field, choiceIndex==0 falls back to the array's first
// element (compatibility behavior for servers that omit "index" on a
// single-choice stream). Absence of any matching choice yields a neutral
// delta with no error — only malformed JSON or a non-array "choices"
// field is an error.
func ParseChatChunk(payload []byte, choiceIndex int) (ChatChunkDelta, error) {
	var delta ChatChunkDelta
	if !json.Valid(payload) {
		return delta, ErrJSON
	}

	if usageVal, dt, _, err := jsonparser.Get(payload, "usage"); err == nil && dt == jsonparser.Object {
		u := &Usage{}
		if v, e := jsonparser.GetInt(usageVal, "prompt_tokens"); e == nil {
			u.PromptTokens = int(v)
		}
		if v, e := jsonparser.GetInt(usageVal, "completion_tokens"); e == nil {
			u.CompletionTokens = int(v)
		}
		if v, e := jsonparser.GetInt(usageVal, "total_tokens"); e == nil {
			u.TotalTokens = int(v)
		}
		delta.Usage = u
	}

	choicesVal, dt, _, err := jsonparser.Get(payload, "choices")
	if err != nil {
		// No choices field at all (e.g. a usage-only chunk): neutral delta.
		return delta, nil
	}
	if dt != jsonparser.Array {
		return delta, ErrProtocol
	}

	choiceVal, ok, err := findChoice(choicesVal, choiceIndex)
	if err != nil {
		return delta, ErrProtocol
	}
	if !ok {
		return delta, nil
	}

	if content, err := jsonparser.GetString(choiceVal, "delta", "content"); err == nil {
		delta.ContentDelta = content
		delta.HasContent = true
	}
	if reasoning, err := jsonparser.GetString(choiceVal, "delta", "reasoning_content"); err == nil {
		delta.ReasoningDelta = reasoning
		delta.HasReasoning = true
	}
	if tcVal, dt, _, err := jsonparser.Get(choiceVal, "delta", "tool_calls"); err == nil && dt == jsonparser.Array {
		_, _ = jsonparser.ArrayEach(tcVal, func(v []byte, dataType jsonparser.ValueType, offset int, err error) {
			if err != nil {
				return
			}
			var d ToolCallDelta
			if idx, e := jsonparser.GetInt(v, "index"); e == nil {
				d.Index = int(idx)
			}
			if id, e := jsonparser.GetString(v, "id"); e == nil {
				d.ID = id
				d.HasID = true
			}
			if name, e := jsonparser.GetString(v, "function", "name"); e == nil {
				d.Name = name
				d.HasName = true
			}
			if args, e := jsonparser.GetString(v, "function", "arguments"); e == nil {
				d.ArgumentsFragment = args
				d.HasArguments = true
			}
			delta.ToolCalls = append(delta.ToolCalls, d)
		})
	}
	if fr, err := jsonparser.GetString(choiceVal, "finish_reason"); err == nil && fr != "" {
		delta.FinishReason = ParseFinishReason(fr)
		delta.HasFinish = true
	}

	return delta, nil
}

// findChoice scans choicesVal (a JSON array) for the entry whose "index"
// field equals choiceIndex. If no entry in the array carries an explicit
// "index" field, choiceIndex==0 falls back to the first element.
func findChoice(choicesVal []byte, choiceIndex int) (choice []byte, ok bool, err error) {
	var first []byte
	var firstSeen bool
	var anyHasIndex bool
	var found []byte
	var foundOK bool

	_, arrErr := jsonparser.ArrayEach(choicesVal, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if err != nil {
			return
		}
		if !firstSeen {
			first = value
			firstSeen = true
		}
		if iv, e := jsonparser.GetInt(value, "index"); e == nil {
			anyHasIndex = true
			if int(iv) == choiceIndex {
				found = value
				foundOK = true
			}
		}
	})
	if arrErr != nil {
		return nil, false, arrErr
	}
	if foundOK {
		return found, true, nil
	}
	if choiceIndex == 0 && !anyHasIndex && firstSeen {
		return first, true, nil
	}
	return nil, false, nil
}
