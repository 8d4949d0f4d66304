package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// DoRequest performs a single HTTP round-trip and returns the status code
// and body. Connection-level failures are wrapped as *TransportError so the
// executor can distinguish them from provider rejections. Interpreting the
// status code is left to the calling adapter, since backends disagree on
// what a failure looks like.
func DoRequest(ctx context.Context, hc *http.Client, p ID, method, url string, headers http.Header, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: create request: %w", p, err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Provider: p, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Provider: p, Err: fmt.Errorf("read response: %w", err)}
	}

	return resp.StatusCode, respBody, nil
}
