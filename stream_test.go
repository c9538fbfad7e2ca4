package llmclient_test

import (
	"context"
	"testing"

	"github.com/corellm/llmclient"
	"github.com/corellm/llmclient/internal/faketransport"
	"github.com/corellm/llmclient/internal/protocol"
)

// feedInChunks splits a frame script into fixed-size chunks, regardless
// of frame boundaries, the way an arbitrary TCP read would.
func feedInChunks(script []byte, size int) [][]byte {
	var chunks [][]byte
	for len(script) > 0 {
		n := size
		if n > len(script) {
			n = len(script)
		}
		chunks = append(chunks, script[:n])
		script = script[n:]
	}
	return chunks
}

// TestStreamToolCallDeltasSplitAcrossFrames exercises the streaming
// tool-call-deltas scenario: two frames carrying fragments of the same
// tool call's arguments, fed in small arbitrary chunks.
func TestStreamToolCallDeltasSplitAcrossFrames(t *testing.T) {
	script := []byte("data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"id\":\"call_0\",\"function\":{\"name\":\"ping\",\"arguments\":\"{\\\"a\\\":1,\\\"note\\\":\\\"hi\"}}]}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"tool_calls\":[{\"index\":0,\"function\":{\"arguments\":\"\\\\nthere\\\"}\"}}]}}]}\n\n" +
		"data: [DONE]\n\n")

	fake := &faketransport.Fake{
		StreamResponses: []faketransport.StreamResponse{{
			Chunks: feedInChunks(script, 7),
			Status: llmclient.TransportStatus{HTTPStatus: 200},
		}},
	}
	c := llmclient.New("https://api.example.com", "m", llmclient.WithTransport(fake))

	var deltaCalls int
	var fragments []string
	var completeIndex = -1
	var completeArgs string
	var gotID, gotName string

	err := c.ChatCompletionsStream(context.Background(), llmclient.ChatRequest{
		Messages: []llmclient.Message{{Role: llmclient.RoleUser, Content: "hi", HasContent: true}},
	}, llmclient.StreamCallbacks{
		OnToolCallDelta: func(index int, id string, hasID bool, name string, hasName bool) {
			deltaCalls++
			if hasID {
				gotID = id
			}
			if hasName {
				gotName = name
			}
		},
		OnToolArgsFragment: func(index int, fragment string) {
			fragments = append(fragments, fragment)
		},
		OnToolArgsComplete: func(index int, argumentsJSON string) {
			completeIndex = index
			completeArgs = argumentsJSON
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deltaCalls != 2 {
		t.Fatalf("expected 2 on_tool_call_delta calls, got %d", deltaCalls)
	}
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d: %v", len(fragments), fragments)
	}
	concatenated := fragments[0] + fragments[1]
	if concatenated != `{"a":1,"note":"hi\nthere"}` {
		t.Fatalf("unexpected concatenated arguments: %q", concatenated)
	}
	if completeIndex != 0 || completeArgs != `{"a":1,"note":"hi\nthere"}` {
		t.Fatalf("unexpected completion: index=%d args=%q", completeIndex, completeArgs)
	}
	if gotID != "call_0" || gotName != "ping" {
		t.Fatalf("unexpected id/name: id=%q name=%q", gotID, gotName)
	}
}

// TestStreamCancellationMidStream covers abort_cb returning true after
// the first content frame: the call must report CANCELLED, the content
// already observed must stand, and no further callback may fire.
func TestStreamCancellationMidStream(t *testing.T) {
	script := []byte("data: {\"choices\":[{\"delta\":{\"content\":\"hello\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\" world\"},\"finish_reason\":\"stop\"}]}\n\n" +
		"data: [DONE]\n\n")

	fake := &faketransport.Fake{
		StreamResponses: []faketransport.StreamResponse{{
			Chunks: [][]byte{script},
			Status: llmclient.TransportStatus{HTTPStatus: 200},
		}},
	}
	c := llmclient.New("https://api.example.com", "m", llmclient.WithTransport(fake))

	var content string
	frames := 0
	finishFired := false

	err := c.ChatCompletionsStream(context.Background(), llmclient.ChatRequest{
		Messages: []llmclient.Message{{Role: llmclient.RoleUser, Content: "hi", HasContent: true}},
	}, llmclient.StreamCallbacks{
		OnContentDelta: func(delta string) {
			content += delta
			frames++
		},
		OnFinishReason: func(fr protocol.FinishReason) {
			finishFired = true
		},
		AbortFunc: func() bool { return frames >= 1 },
	})
	if err == nil || err.Code != llmclient.CodeCancelled {
		t.Fatalf("expected cancelled error, got %+v", err)
	}
	if content != "hello" {
		t.Fatalf("expected captured content exactly %q, got %q", "hello", content)
	}
	if finishFired {
		t.Fatal("on_finish_reason must not fire after cancellation")
	}
}

// TestStreamLineCapOverflowShortCircuits covers the SSE line-cap
// overflow scenario: a payload with no newline, fed in 5-byte chunks
// under max_line_bytes=8, must fail the call with a FAILED/SSE-stage
// error and no content callback having fired.
func TestStreamLineCapOverflowShortCircuits(t *testing.T) {
	script := []byte("data: 123456789")

	fake := &faketransport.Fake{
		StreamResponses: []faketransport.StreamResponse{{
			Chunks: feedInChunks(script, 5),
			Status: llmclient.TransportStatus{HTTPStatus: 200},
		}},
	}
	c := llmclient.New("https://api.example.com", "m", llmclient.WithTransport(fake),
		llmclient.WithLimits(llmclient.Limits{MaxSSELineBytes: 8, MaxSSEFrameBytes: 64, MaxSSEBufferBytes: 64}))

	fired := false
	err := c.ChatCompletionsStream(context.Background(), llmclient.ChatRequest{
		Messages: []llmclient.Message{{Role: llmclient.RoleUser, Content: "hi", HasContent: true}},
	}, llmclient.StreamCallbacks{
		OnContentDelta: func(string) { fired = true },
	})
	if err == nil || err.Code != llmclient.CodeFailed || err.Stage != llmclient.StageSSE {
		t.Fatalf("expected failed/SSE-stage error, got %+v", err)
	}
	if fired {
		t.Fatal("no content callback should have fired before the overflow")
	}
}
