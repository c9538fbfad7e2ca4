package llmclient

import (
	"errors"
	"fmt"
)

// Code is the top-level outcome of a failed operation.
type Code int

const (
	CodeNone Code = iota
	CodeCancelled
	CodeFailed
)

// String returns the stable, non-localized name for a Code.
func (c Code) String() string {
	switch c {
	case CodeCancelled:
		return "cancelled"
	case CodeFailed:
		return "failed"
	default:
		return "none"
	}
}

// Stage identifies where in the pipeline a failure originated.
type Stage int

const (
	StageNone Stage = iota
	StageTransport
	StageTLS
	StageSSE
	StageJSON
	StageProtocol
)

// String returns the stable, non-localized name for a Stage.
func (s Stage) String() string {
	switch s {
	case StageTransport:
		return "transport"
	case StageTLS:
		return "tls"
	case StageSSE:
		return "sse"
	case StageJSON:
		return "json"
	case StageProtocol:
		return "protocol"
	default:
		return "none"
	}
}

// ErrCancelled and ErrFailed are sentinels matched via errors.Is against
// the *Error an operation returns.
var (
	ErrCancelled = errors.New("llmclient: operation cancelled")
	ErrFailed    = errors.New("llmclient: operation failed")
)

// Error is the structured error taxonomy every failing operation returns.
// Message, Type, and ErrorCode are populated best-effort from a non-2xx
// response body; RawBody is an independent copy of that body so a
// caller-supplied Error and the client's last-error slot never alias.
type Error struct {
	Code       Code
	Stage      Stage
	HTTPStatus int
	Message    string
	Type       string
	ErrorCode  string
	RawBody    []byte
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("llmclient: %s (code=%s stage=%s status=%d)", e.Message, e.Code, e.Stage, e.HTTPStatus)
	}
	return fmt.Sprintf("llmclient: %s at stage %s (status=%d)", e.Code, e.Stage, e.HTTPStatus)
}

// Unwrap makes errors.Is(err, ErrCancelled) / errors.Is(err, ErrFailed)
// work against an *Error.
func (e *Error) Unwrap() error {
	switch e.Code {
	case CodeCancelled:
		return ErrCancelled
	case CodeFailed:
		return ErrFailed
	default:
		return nil
	}
}

func newCancelled(stage Stage) *Error {
	return &Error{Code: CodeCancelled, Stage: stage}
}

func newFailed(stage Stage) *Error {
	return &Error{Code: CodeFailed, Stage: stage}
}
