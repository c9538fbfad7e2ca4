package protocol

import (
	"encoding/json"

	"github.com/buger/jsonparser"
)

// EmbeddingsResult owns the response buffer and exposes one raw JSON
// array span per input, in input order. Decoding each span to floats is
// the caller's responsibility.
type EmbeddingsResult struct {
	Raw        []byte
	Embeddings []string // raw JSON array spans, e.g. "[0.1,0.2,...]"
}

// ParseEmbeddingsResponse parses a non-stream /v1/embeddings response.
func ParseEmbeddingsResponse(raw []byte) (*EmbeddingsResult, error) {
	if !json.Valid(raw) {
		return nil, ErrJSON
	}
	dataVal, dt, _, err := jsonparser.Get(raw, "data")
	if err != nil || dt != jsonparser.Array {
		return nil, ErrProtocol
	}

	var embeddings []string
	var parseErr error
	_, err = jsonparser.ArrayEach(dataVal, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if err != nil || parseErr != nil {
			return
		}
		embVal, edt, _, e := jsonparser.Get(value, "embedding")
		if e != nil || edt != jsonparser.Array {
			parseErr = ErrProtocol
			return
		}
		embeddings = append(embeddings, string(embVal))
	})
	if err != nil || parseErr != nil {
		return nil, ErrProtocol
	}
	return &EmbeddingsResult{Raw: raw, Embeddings: embeddings}, nil
}
