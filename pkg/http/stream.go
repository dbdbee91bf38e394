package http

import (
	"context"
	"io"
	"net/http"
)

// StreamResponse is an open response body the caller reads incrementally.
type StreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser

	resp *http.Response
}

// Trailer returns the response trailer. It is only complete once Body has been read to EOF.
func (s *StreamResponse) Trailer() http.Header {
	if s.resp.Trailer == nil {
		return http.Header{}
	}
	return s.resp.Trailer
}

// Close releases the underlying connection
func (s *StreamResponse) Close() error {
	return s.Body.Close()
}

// DoStreamRequest sends a JSON request and returns the unread response body.
// Non-2xx responses are returned as *HTTPError.
// Cancelling ctx aborts the in-flight read.
func (c *Connector) DoStreamRequest(ctx context.Context, method, endpoint string, reqBody any, opts ...RequestOpt) (*StreamResponse, error) {
	req, err := c.newRequest(ctx, method, endpoint, reqBody, "text/event-stream", opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return &StreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
		resp:       resp,
	}, nil
}

// HTTPClient exposes the configured client so SDKs can reuse the transport chain
func (c *Connector) HTTPClient() *http.Client {
	return c.httpClient
}
