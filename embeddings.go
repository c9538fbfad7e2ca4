package llmclient

import (
	"context"

	"github.com/corellm/llmclient/internal/headers"
	"github.com/corellm/llmclient/internal/jsonbuild"
	"github.com/corellm/llmclient/internal/protocol"
)

// EmbeddingsRequest is the caller-facing set of embeddings parameters.
type EmbeddingsRequest struct {
	Input      []string
	ParamsJSON string
	Headers    []headers.Header
}

// EmbeddingsResult is the public, non-stream embeddings outcome.
type EmbeddingsResult = protocol.EmbeddingsResult

// Embeddings issues a /v1/embeddings request, validating the per-string
// and input-count caps before any bytes are sent.
func (c *Client) Embeddings(ctx context.Context, req EmbeddingsRequest) (*EmbeddingsResult, *Error) {
	body, err := jsonbuild.BuildEmbeddingsRequest(jsonbuild.EmbeddingsRequestParams{
		Model:         c.model,
		Input:         req.Input,
		MaxInputBytes: c.limits.MaxEmbeddingInputBytes,
		MaxInputCount: c.limits.MaxEmbeddingInputCount,
		ParamsJSON:    req.ParamsJSON,
	})
	if err != nil {
		e := newFailed(StageNone)
		e.Message = err.Error()
		return nil, e
	}

	raw, transportErr := c.doRequest(ctx, c.endpointURL("v1/embeddings"), []byte(body), req.Headers)
	if transportErr != nil {
		return nil, transportErr
	}

	result, perr := protocol.ParseEmbeddingsResponse(raw)
	if perr != nil {
		return nil, parseErrorToStaged(perr, raw)
	}
	return result, nil
}
