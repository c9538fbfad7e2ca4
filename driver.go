package llmclient

import (
	"context"
	"log/slog"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/kaptinlin/jsonrepair"

	"github.com/corellm/llmclient/internal/headers"
)

func (c *Client) endpointURL(path string) string {
	return strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) transportRequest(url string, body []byte, perCall []headers.Header, isPost bool) (TransportRequest, error) {
	hs, err := c.buildHeaders(perCall, isPost)
	if err != nil {
		return TransportRequest{}, err
	}
	return TransportRequest{
		URL:               url,
		Body:              body,
		Headers:           hs,
		ConnectTimeout:    c.timeouts.Connect,
		OverallTimeout:    c.timeouts.Overall,
		StreamIdleTimeout: c.timeouts.StreamIdle,
		MaxResponseBytes:  c.limits.MaxResponseBytes,
		TLS:               c.tls,
		Proxy:             c.proxy,
	}, nil
}

// doRequest issues a GET or POST and translates the transport outcome
// into either a successful raw body or a staged *Error, per §4.4's error
// translation table. The last-error slot (if enabled) is populated on
// failure with an independent copy of the raw body.
func (c *Client) doRequest(ctx context.Context, url string, body []byte, perCall []headers.Header) ([]byte, *Error) {
	c.clearLastError()

	isPost := body != nil
	treq, err := c.transportRequest(url, body, perCall, isPost)
	if err != nil {
		e := newFailed(StageNone)
		e.Message = err.Error()
		c.recordLastError(e)
		c.logger.Error(ctx, "request build failed", slog.String("url", url), slog.String("error", e.Message))
		return nil, e
	}

	method := "GET"
	if isPost {
		method = "POST"
	}
	c.logger.Debug(ctx, "request sent", slog.String("method", method), slog.String("url", url), slog.Int("body_bytes", len(body)))

	var resp TransportResponse
	var transportErr error
	if isPost {
		resp, transportErr = c.transport.Post(ctx, treq)
	} else {
		resp, transportErr = c.transport.Get(ctx, treq)
	}

	if transportErr != nil {
		if ctx.Err() != nil {
			e := newCancelled(StageTransport)
			c.recordLastError(e)
			c.logger.Warn(ctx, "request cancelled", slog.String("url", url))
			return nil, e
		}
		stage := StageTransport
		if resp.Status.TLSError {
			stage = StageTLS
		}
		e := newFailed(stage)
		e.HTTPStatus = resp.Status.HTTPStatus
		e.Message = transportErr.Error()
		c.recordLastError(e)
		c.logger.Error(ctx, "request failed", slog.String("url", url), slog.String("stage", stage.String()), slog.String("error", e.Message))
		return nil, e
	}

	c.logger.Debug(ctx, "response received", slog.String("url", url), slog.Int("status", resp.Status.HTTPStatus), slog.Int("body_bytes", len(resp.Body)))

	if resp.Status.HTTPStatus >= 400 {
		e := newFailed(StageProtocol)
		e.HTTPStatus = resp.Status.HTTPStatus
		e.RawBody = resp.Body
		populateErrorDetail(e, resp.Body)
		c.recordLastError(e)
		c.logger.Warn(ctx, "staged failure", slog.String("url", url), slog.Int("status", resp.Status.HTTPStatus))
		return nil, e
	}

	return resp.Body, nil
}

// populateErrorDetail best-effort extracts error.{message,type,code} from
// a non-2xx response body, repairing malformed JSON before giving up.
func populateErrorDetail(e *Error, body []byte) {
	src := body
	if msg, err := jsonparser.GetString(src, "error", "message"); err == nil {
		e.Message = msg
	} else if repaired, rerr := jsonrepair.JSONRepair(string(body)); rerr == nil {
		src = []byte(repaired)
		if msg, err := jsonparser.GetString(src, "error", "message"); err == nil {
			e.Message = msg
		}
	}
	if t, err := jsonparser.GetString(src, "error", "type"); err == nil {
		e.Type = t
	}
	if code, err := jsonparser.GetString(src, "error", "code"); err == nil {
		e.ErrorCode = code
	}
}
