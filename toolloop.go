package llmclient

import (
	"context"
	"log/slog"

	"github.com/corellm/llmclient/internal/protocol"
)

// Dispatcher synchronously executes one tool call and returns its result
// as JSON text. Returning ok=false is treated as a fatal failure for that
// turn; the loop never retries a failed dispatch.
type Dispatcher func(name, argumentsJSON string) (resultJSON string, ok bool)

// ToolLoopRequest bundles the passthrough fields forwarded unchanged on
// every turn.
type ToolLoopRequest struct {
	History             []Message
	ParamsJSON          string
	ToolingJSON         string
	ResponseFormatJSON  string
}

// ToolLoopConfig bounds and observes a tool loop run.
type ToolLoopConfig struct {
	MaxTurns  int
	AbortFunc func() bool
}

// ToolLoopResult is a completed tool loop's outcome.
type ToolLoopResult struct {
	FinalContent string
	History      []Message
	Turns        int
}

// RunToolLoop drives request → receive tool_calls → dispatch → append →
// request to completion or a bounded cap, per the state machine: it
// terminates successfully the first turn the model replies with a
// finish_reason other than tool_calls, fails on turn/byte-budget
// exhaustion, and fails if two consecutive turns emit an identical
// tool_calls array (the model is stuck repeating itself).
func (c *Client) RunToolLoop(ctx context.Context, req ToolLoopRequest, dispatch Dispatcher, cfg ToolLoopConfig) (*ToolLoopResult, *Error) {
	history := append([]Message(nil), req.History...)
	var prevToolCallsJSON string
	totalToolOutputBytes := 0

	for turn := 1; ; turn++ {
		if cfg.AbortFunc != nil && cfg.AbortFunc() {
			c.logger.Warn(ctx, "tool loop cancelled", slog.Int("turn", turn))
			return nil, newCancelled(StageNone)
		}
		if cfg.MaxTurns > 0 && turn > cfg.MaxTurns {
			c.logger.Warn(ctx, "tool loop exceeded max turns", slog.Int("turn", turn), slog.Int("max_turns", cfg.MaxTurns))
			return nil, newFailed(StageNone)
		}

		c.logger.Debug(ctx, "tool loop turn started", slog.Int("turn", turn), slog.Int("history_len", len(history)))

		result, err := c.ChatCompletions(ctx, ChatRequest{
			Messages:           history,
			ParamsJSON:         req.ParamsJSON,
			ToolingJSON:        req.ToolingJSON,
			ResponseFormatJSON: req.ResponseFormatJSON,
		})
		if err != nil {
			return nil, err
		}
		choice0, ok := result.Choice0()
		if !ok {
			c.logger.Error(ctx, "tool loop response had no choices", slog.Int("turn", turn))
			return nil, newFailed(StageProtocol)
		}

		if choice0.FinishReason != protocol.FinishToolCalls {
			c.logger.Debug(ctx, "tool loop finished", slog.Int("turns", turn), slog.String("finish_reason", choice0.FinishReason.String()))
			return &ToolLoopResult{FinalContent: choice0.Content, History: history, Turns: turn}, nil
		}

		if prevToolCallsJSON != "" && choice0.ToolCallsJSON == prevToolCallsJSON {
			c.logger.Warn(ctx, "tool loop detected repeated tool_calls", slog.Int("turn", turn))
			return nil, newFailed(StageNone)
		}
		prevToolCallsJSON = choice0.ToolCallsJSON

		turnArgsBytes := 0
		for _, tc := range choice0.ToolCalls {
			turnArgsBytes += len(tc.Arguments)
		}
		if c.limits.MaxToolArgsBytesPerTurn > 0 && turnArgsBytes > c.limits.MaxToolArgsBytesPerTurn {
			c.logger.Warn(ctx, "tool loop turn argument budget exceeded", slog.Int("turn", turn), slog.Int("turn_args_bytes", turnArgsBytes))
			return nil, newFailed(StageNone)
		}

		toolMessages := make([]Message, 0, len(choice0.ToolCalls))
		for _, tc := range choice0.ToolCalls {
			if cfg.AbortFunc != nil && cfg.AbortFunc() {
				c.logger.Warn(ctx, "tool loop cancelled mid-dispatch", slog.Int("turn", turn))
				return nil, newCancelled(StageNone)
			}
			resultJSON, dispatchOK := dispatch(tc.Name, tc.Arguments)
			if !dispatchOK {
				c.logger.Error(ctx, "tool dispatch failed", slog.Int("turn", turn), slog.String("tool", tc.Name))
				return nil, newFailed(StageNone)
			}
			totalToolOutputBytes += len(resultJSON)
			if c.limits.MaxToolOutputBytesTotal > 0 && totalToolOutputBytes > c.limits.MaxToolOutputBytesTotal {
				c.logger.Warn(ctx, "tool loop output budget exceeded", slog.Int("turn", turn), slog.Int("total_output_bytes", totalToolOutputBytes))
				return nil, newFailed(StageNone)
			}
			toolMessages = append(toolMessages, Message{
				Role:       RoleTool,
				ToolCallID: tc.ID,
				ToolName:   tc.Name,
				Content:    resultJSON,
				HasContent: true,
			})
		}

		history = append(history, Message{Role: RoleAssistant, ToolCallsJSON: choice0.ToolCallsJSON})
		history = append(history, toolMessages...)
	}
}
