package llmclient

import (
	"context"
	"encoding/json"

	"github.com/buger/jsonparser"

	"github.com/corellm/llmclient/internal/protocol"
)

// Health issues GET /health and reports whether the server is reachable
// and returned a 2xx status.
func (c *Client) Health(ctx context.Context) *Error {
	_, err := c.doRequest(ctx, c.endpointURL("health"), nil, nil)
	return err
}

// Models issues GET /v1/models and returns the "id" field of each entry
// in the response's "data" array.
func (c *Client) Models(ctx context.Context) ([]string, *Error) {
	raw, err := c.doRequest(ctx, c.endpointURL("v1/models"), nil, nil)
	if err != nil {
		return nil, err
	}
	ids, perr := extractModelIDs(raw)
	if perr != nil {
		return nil, parseErrorToStaged(perr, raw)
	}
	return ids, nil
}

// Props issues GET /props and returns the raw JSON object body. The
// source's own implementation sometimes targets /health for this call;
// this client always targets /props, per the canonical contract.
func (c *Client) Props(ctx context.Context) ([]byte, *Error) {
	return c.doRequest(ctx, c.endpointURL("props"), nil, nil)
}

func extractModelIDs(raw []byte) ([]string, error) {
	if !json.Valid(raw) {
		return nil, protocol.ErrJSON
	}
	dataVal, dt, _, err := jsonparser.Get(raw, "data")
	if err != nil || dt != jsonparser.Array {
		return nil, protocol.ErrProtocol
	}
	var ids []string
	var parseErr error
	_, err = jsonparser.ArrayEach(dataVal, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if err != nil || parseErr != nil {
			return
		}
		id, e := jsonparser.GetString(value, "id")
		if e != nil {
			parseErr = protocol.ErrProtocol
			return
		}
		ids = append(ids, id)
	})
	if err != nil || parseErr != nil {
		return nil, protocol.ErrProtocol
	}
	return ids, nil
}
