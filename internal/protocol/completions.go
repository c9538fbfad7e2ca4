package protocol

import (
	"encoding/json"

	"github.com/buger/jsonparser"
)

// CompletionsChoice is one entry of a /v1/completions response.
type CompletionsChoice struct {
	Index        int
	Text         string
	FinishReason FinishReason
}

// CompletionsResult owns the response buffer and exposes its choices in
// input order.
type CompletionsResult struct {
	Raw     []byte
	Choices []CompletionsChoice
}

// Choice0 mirrors ChatResult.Choice0.
func (r *CompletionsResult) Choice0() (CompletionsChoice, bool) {
	if len(r.Choices) == 0 {
		return CompletionsChoice{}, false
	}
	return r.Choices[0], true
}

// Choice returns the choice at index, or ErrChoiceIndexOutOfRange.
func (r *CompletionsResult) Choice(index int) (CompletionsChoice, error) {
	if index < 0 || index >= len(r.Choices) {
		return CompletionsChoice{}, ErrChoiceIndexOutOfRange
	}
	return r.Choices[index], nil
}

// ParseCompletionsResponse parses a non-stream /v1/completions response.
func ParseCompletionsResponse(raw []byte) (*CompletionsResult, error) {
	if !json.Valid(raw) {
		return nil, ErrJSON
	}
	choicesVal, dt, _, err := jsonparser.Get(raw, "choices")
	if err != nil || dt != jsonparser.Array {
		return nil, ErrProtocol
	}

	var choices []CompletionsChoice
	var parseErr error
	_, err = jsonparser.ArrayEach(choicesVal, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if err != nil || parseErr != nil {
			return
		}
		var c CompletionsChoice
		if idx, e := jsonparser.GetInt(value, "index"); e == nil {
			c.Index = int(idx)
		}
		if text, e := jsonparser.GetString(value, "text"); e == nil {
			c.Text = text
		}
		if fr, e := jsonparser.GetString(value, "finish_reason"); e == nil {
			c.FinishReason = ParseFinishReason(fr)
		} else {
			c.FinishReason = FinishUnknown
		}
		choices = append(choices, c)
	})
	if err != nil || parseErr != nil {
		return nil, ErrProtocol
	}
	return &CompletionsResult{Raw: raw, Choices: choices}, nil
}
