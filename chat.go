package llmclient

import (
	"context"

	"github.com/corellm/llmclient/internal/headers"
	"github.com/corellm/llmclient/internal/jsonbuild"
	"github.com/corellm/llmclient/internal/protocol"
)

// Message mirrors jsonbuild.Message at the public surface, so callers
// don't need to import an internal package to build a conversation.
type Message = jsonbuild.Message

// Role re-exports the chat message role constants.
type Role = jsonbuild.Role

const (
	RoleSystem    = jsonbuild.RoleSystem
	RoleUser      = jsonbuild.RoleUser
	RoleAssistant = jsonbuild.RoleAssistant
	RoleTool      = jsonbuild.RoleTool
)

// RequestOptions mirrors jsonbuild.RequestOptions at the public surface.
type RequestOptions = jsonbuild.RequestOptions

// ToolCallBuild mirrors jsonbuild.ToolCallBuild at the public surface,
// for callers assembling a Message's ToolCallsJSON field by hand (for
// example when seeding conversation history from storage rather than
// from a live ChatCompletions response).
type ToolCallBuild = jsonbuild.ToolCallBuild

// BuildRequestOptions renders o into the bounded JSON fragment expected
// by ChatRequest.ParamsJSON / CompletionsRequest.ParamsJSON, enforcing
// c's stop-array and overall-size caps.
func (c *Client) BuildRequestOptions(o RequestOptions) (string, error) {
	o.MaxStopStrings = c.limits.MaxStopStrings
	o.MaxStopBytes = c.limits.MaxStopBytes
	return jsonbuild.WriteRequestOptions(o, c.limits.MaxRequestOptionsBytes)
}

// BuildToolCallsJSON renders calls into the bounded JSON array expected
// by Message.ToolCallsJSON, enforcing c's per-call and total tool-calls
// size caps.
func (c *Client) BuildToolCallsJSON(calls []ToolCallBuild) (string, error) {
	return jsonbuild.WriteToolCallsJSON(calls, c.limits.MaxToolArgsBytesPerCall, c.limits.MaxToolCallsJSONBytes)
}

// ChatRequest is the caller-facing set of chat-completion parameters.
type ChatRequest struct {
	Messages           []Message
	ParamsJSON         string
	ToolingJSON        string
	ResponseFormatJSON string
	Headers            []headers.Header
}

// ChatResult is the public, non-stream chat-completion outcome. It owns
// the response buffer its choices borrow spans from.
type ChatResult = protocol.ChatResult

// ChatCompletions issues a non-stream /v1/chat/completions request.
func (c *Client) ChatCompletions(ctx context.Context, req ChatRequest) (*ChatResult, *Error) {
	body, err := jsonbuild.BuildChatRequest(jsonbuild.ChatRequestParams{
		Model:                c.model,
		Messages:             req.Messages,
		ParamsJSON:           req.ParamsJSON,
		ToolingJSON:          req.ToolingJSON,
		ResponseFormatJSON:   req.ResponseFormatJSON,
		MaxContentParts:      c.limits.MaxContentParts,
		MaxContentPartsBytes: c.limits.MaxContentPartsBytes,
	})
	if err != nil {
		e := newFailed(StageNone)
		e.Message = err.Error()
		return nil, e
	}

	raw, transportErr := c.doRequest(ctx, c.endpointURL("v1/chat/completions"), []byte(body), req.Headers)
	if transportErr != nil {
		return nil, transportErr
	}

	result, perr := protocol.ParseChatResponse(raw)
	if perr != nil {
		return nil, parseErrorToStaged(perr, raw)
	}
	return result, nil
}

func parseErrorToStaged(perr error, raw []byte) *Error {
	stage := StageProtocol
	if perr == protocol.ErrJSON {
		stage = StageJSON
	}
	e := newFailed(stage)
	e.RawBody = raw
	return e
}
