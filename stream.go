package llmclient

import (
	"context"
	"log/slog"
	"sort"

	"github.com/corellm/llmclient/internal/jsonbuild"
	"github.com/corellm/llmclient/internal/protocol"
	"github.com/corellm/llmclient/internal/sse"
	"github.com/corellm/llmclient/internal/toolaccum"
)

// StreamCallbacks are the fan-out targets for a streaming chat-completion
// call. All are optional; nil callbacks are simply not invoked. They are
// called synchronously, serialized, on the goroutine that called
// ChatCompletionsStream — never concurrently, never reentrantly.
type StreamCallbacks struct {
	OnContentDelta     func(content string)
	OnReasoningDelta   func(reasoning string)
	OnToolCallDelta    func(index int, id string, hasID bool, name string, hasName bool)
	OnToolArgsFragment func(index int, fragment string)
	OnToolArgsComplete func(index int, argumentsJSON string)
	OnUsage            func(u protocol.Usage)
	OnFinishReason     func(fr protocol.FinishReason)

	// IncludeUsage requests stream_options.include_usage=true on the
	// outgoing request, so the server emits a final usage-only chunk.
	IncludeUsage bool

	// AbortFunc is polled at SSE frame boundaries. Returning true
	// transitions the call to a CodeCancelled *Error; no further
	// callbacks fire.
	AbortFunc func() bool
}

// ChatCompletionsStream issues a streaming /v1/chat/completions request
// and fans out incremental deltas to cb as they arrive.
func (c *Client) ChatCompletionsStream(ctx context.Context, req ChatRequest, cb StreamCallbacks) *Error {
	body, err := jsonbuild.BuildChatRequest(jsonbuild.ChatRequestParams{
		Model:                c.model,
		Messages:             req.Messages,
		Stream:               true,
		IncludeUsage:         cb.IncludeUsage,
		ParamsJSON:           req.ParamsJSON,
		ToolingJSON:          req.ToolingJSON,
		ResponseFormatJSON:   req.ResponseFormatJSON,
		MaxContentParts:      c.limits.MaxContentParts,
		MaxContentPartsBytes: c.limits.MaxContentPartsBytes,
	})
	if err != nil {
		e := newFailed(StageNone)
		e.Message = err.Error()
		return e
	}

	c.clearLastError()

	url := c.endpointURL("v1/chat/completions")
	isPost := true
	treq, herr := c.transportRequest(url, []byte(body), req.Headers, isPost)
	if herr != nil {
		e := newFailed(StageNone)
		e.Message = herr.Error()
		c.recordLastError(e)
		c.logger.Error(ctx, "stream request build failed", slog.String("url", url), slog.String("error", e.Message))
		return e
	}
	c.logger.Debug(ctx, "stream request sent", slog.String("url", url), slog.Int("body_bytes", len(body)))

	registry := toolaccum.NewRegistry(c.limits.MaxToolArgsBytesPerCall)
	emitted := map[int]bool{}
	var sseErr error

	emitComplete := func(index int) {
		if emitted[index] {
			return
		}
		result, ok := registry.Get(index)
		if !ok {
			return
		}
		registry.Freeze(index)
		emitted[index] = true
		if cb.OnToolArgsComplete != nil {
			cb.OnToolArgsComplete(index, result.Arguments)
		}
	}

	scanner := sse.New(sse.Limits{
		MaxLineBytes:      c.limits.MaxSSELineBytes,
		MaxFrameBytes:     c.limits.MaxSSEFrameBytes,
		MaxSSEBufferBytes: c.limits.MaxSSEBufferBytes,
	})
	scanner.OnFrame = func() bool {
		if cb.AbortFunc != nil && cb.AbortFunc() {
			return false
		}
		return true
	}
	scanner.OnEvent = func(eventType string, data []byte) {
		if sseErr != nil {
			return
		}
		delta, perr := protocol.ParseChatChunk(data, 0)
		if perr != nil {
			sseErr = perr
			return
		}
		if delta.HasContent && cb.OnContentDelta != nil {
			cb.OnContentDelta(delta.ContentDelta)
		}
		if delta.HasReasoning && cb.OnReasoningDelta != nil {
			cb.OnReasoningDelta(delta.ReasoningDelta)
		}
		for _, tc := range delta.ToolCalls {
			if cb.OnToolCallDelta != nil {
				cb.OnToolCallDelta(tc.Index, tc.ID, tc.HasID, tc.Name, tc.HasName)
			}
			feedErr := registry.Feed(toolaccum.Delta{
				Index:             tc.Index,
				ID:                tc.ID,
				HasID:             tc.HasID,
				Name:              tc.Name,
				HasName:           tc.HasName,
				ArgumentsFragment: tc.ArgumentsFragment,
				HasArguments:      tc.HasArguments,
			})
			if feedErr != nil {
				sseErr = feedErr
				return
			}
			if tc.HasArguments && cb.OnToolArgsFragment != nil {
				cb.OnToolArgsFragment(tc.Index, tc.ArgumentsFragment)
			}
		}
		if delta.Usage != nil && cb.OnUsage != nil {
			cb.OnUsage(*delta.Usage)
		}
		if delta.HasFinish {
			if delta.FinishReason == protocol.FinishToolCalls {
				indices := registry.Indices()
				sort.Ints(indices)
				for _, idx := range indices {
					emitComplete(idx)
				}
			}
			if cb.OnFinishReason != nil {
				cb.OnFinishReason(delta.FinishReason)
			}
		}
	}

	status, transportErr := c.transport.PostStream(ctx, treq, func(chunk []byte) bool {
		if err := scanner.Feed(chunk); err != nil {
			return false
		}
		return sseErr == nil
	})

	if sseErr != nil {
		e := newFailed(StageJSON)
		c.recordLastError(e)
		c.logger.Warn(ctx, "stream chunk parse failed", slog.String("url", url), slog.String("error", sseErr.Error()))
		return e
	}
	if scanErr := scanner.Err(); scanErr != nil {
		if scanErr == sse.ErrAborted {
			e := newCancelled(StageSSE)
			c.recordLastError(e)
			c.logger.Warn(ctx, "stream aborted", slog.String("url", url))
			return e
		}
		e := newFailed(StageSSE)
		e.Message = scanErr.Error()
		c.recordLastError(e)
		c.logger.Warn(ctx, "stream framing failed", slog.String("url", url), slog.String("error", e.Message))
		return e
	}
	if transportErr != nil {
		if ctx.Err() != nil {
			e := newCancelled(StageTransport)
			c.recordLastError(e)
			c.logger.Warn(ctx, "stream cancelled", slog.String("url", url))
			return e
		}
		stage := StageTransport
		if status.TLSError {
			stage = StageTLS
		}
		e := newFailed(stage)
		e.HTTPStatus = status.HTTPStatus
		e.Message = transportErr.Error()
		c.recordLastError(e)
		c.logger.Error(ctx, "stream transport failed", slog.String("url", url), slog.String("stage", stage.String()), slog.String("error", e.Message))
		return e
	}
	if status.HTTPStatus >= 400 {
		e := newFailed(StageProtocol)
		e.HTTPStatus = status.HTTPStatus
		c.recordLastError(e)
		c.logger.Warn(ctx, "stream staged failure", slog.String("url", url), slog.Int("status", status.HTTPStatus))
		return e
	}

	// Stream ended normally: freeze and emit completion for any tool
	// call that never received an explicit finish_reason frame.
	indices := registry.Indices()
	sort.Ints(indices)
	for _, idx := range indices {
		emitComplete(idx)
	}

	c.logger.Debug(ctx, "stream completed", slog.String("url", url), slog.Int("status", status.HTTPStatus))
	return nil
}
