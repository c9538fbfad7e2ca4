package llmclient

import (
	"context"

	"github.com/corellm/llmclient/internal/headers"
	"github.com/corellm/llmclient/internal/jsonbuild"
	"github.com/corellm/llmclient/internal/protocol"
)

// CompletionsRequest is the caller-facing set of text-completion
// parameters.
type CompletionsRequest struct {
	Prompt     string
	ParamsJSON string
	Headers    []headers.Header
}

// CompletionsResult is the public, non-stream text-completion outcome.
type CompletionsResult = protocol.CompletionsResult

// Completions issues a non-stream /v1/completions request.
func (c *Client) Completions(ctx context.Context, req CompletionsRequest) (*CompletionsResult, *Error) {
	body, err := jsonbuild.BuildCompletionsRequest(jsonbuild.CompletionsRequestParams{
		Model:      c.model,
		Prompt:     req.Prompt,
		ParamsJSON: req.ParamsJSON,
	})
	if err != nil {
		e := newFailed(StageNone)
		e.Message = err.Error()
		return nil, e
	}

	raw, transportErr := c.doRequest(ctx, c.endpointURL("v1/completions"), []byte(body), req.Headers)
	if transportErr != nil {
		return nil, transportErr
	}

	result, perr := protocol.ParseCompletionsResponse(raw)
	if perr != nil {
		return nil, parseErrorToStaged(perr, raw)
	}
	return result, nil
}
