// Package faketransport implements the llmclient.Transport contract
// deterministically, for driver, streaming, and tool-loop tests that
// must not depend on a real network or TLS stack.
package faketransport

import (
	"context"

	"github.com/corellm/llmclient"
)

// Response is one canned non-stream response.
type Response struct {
	Body   []byte
	Status llmclient.TransportStatus
	Err    error
}

// StreamResponse is one canned streaming response: Chunks are delivered
// to onChunk in order, already split the way the test wants them
// observed (e.g. mid-frame, one byte at a time).
type StreamResponse struct {
	Chunks [][]byte
	Status llmclient.TransportStatus
	Err    error
}

// Recorded captures one call made against the fake, for assertions.
type Recorded struct {
	Method string
	URL    string
	Body   []byte
}

// Fake is a scripted, call-counting stand-in for a real Transport. Queue
// responses with GetResponses/PostResponses/StreamResponses; each call
// consumes the next entry in its queue in order.
type Fake struct {
	GetResponses    []Response
	PostResponses   []Response
	StreamResponses []StreamResponse

	Calls []Recorded

	getIdx, postIdx, streamIdx int
}

func (f *Fake) record(method string, req llmclient.TransportRequest) {
	f.Calls = append(f.Calls, Recorded{Method: method, URL: req.URL, Body: append([]byte(nil), req.Body...)})
}

// Get implements Transport.
func (f *Fake) Get(ctx context.Context, req llmclient.TransportRequest) (llmclient.TransportResponse, error) {
	f.record("GET", req)
	if f.getIdx >= len(f.GetResponses) {
		return llmclient.TransportResponse{}, errNoMoreResponses
	}
	r := f.GetResponses[f.getIdx]
	f.getIdx++
	return llmclient.TransportResponse{Body: r.Body, Status: r.Status}, r.Err
}

// Post implements Transport.
func (f *Fake) Post(ctx context.Context, req llmclient.TransportRequest) (llmclient.TransportResponse, error) {
	f.record("POST", req)
	if f.postIdx >= len(f.PostResponses) {
		return llmclient.TransportResponse{}, errNoMoreResponses
	}
	r := f.PostResponses[f.postIdx]
	f.postIdx++
	return llmclient.TransportResponse{Body: r.Body, Status: r.Status}, r.Err
}

// PostStream implements Transport, feeding each queued chunk to onChunk
// in order and stopping early if onChunk returns false.
func (f *Fake) PostStream(ctx context.Context, req llmclient.TransportRequest, onChunk func([]byte) bool) (llmclient.TransportStatus, error) {
	f.record("POST_STREAM", req)
	if f.streamIdx >= len(f.StreamResponses) {
		return llmclient.TransportStatus{}, errNoMoreResponses
	}
	r := f.StreamResponses[f.streamIdx]
	f.streamIdx++
	for _, chunk := range r.Chunks {
		select {
		case <-ctx.Done():
			return r.Status, ctx.Err()
		default:
		}
		if !onChunk(chunk) {
			return r.Status, nil
		}
	}
	return r.Status, r.Err
}

// PostCount returns how many POST (non-stream) calls have been recorded.
func (f *Fake) PostCount() int {
	n := 0
	for _, c := range f.Calls {
		if c.Method == "POST" {
			n++
		}
	}
	return n
}

var errNoMoreResponses = fakeError("faketransport: no more scripted responses")

type fakeError string

func (e fakeError) Error() string { return string(e) }
