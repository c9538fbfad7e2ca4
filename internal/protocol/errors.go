package protocol

import "errors"

// ErrJSON signals the response body is not well-formed JSON.
var ErrJSON = errors.New("protocol: malformed JSON")

// ErrProtocol signals the JSON is well-formed but its shape does not match
// the expected response schema.
var ErrProtocol = errors.New("protocol: unexpected response shape")

// ErrChoiceIndexOutOfRange is returned by choice-lookup helpers when the
// requested index does not exist.
var ErrChoiceIndexOutOfRange = errors.New("protocol: choice index out of range")
