// Package kolors provides the HTTP adapter for the Kling Kolors virtual
// try-on API. Authentication is a short-lived HMAC-signed token regenerated
// per request. Failures arrive either as a non-2xx {code,message} body or
// inside a 200 polling payload with task_status "failed".
package kolors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/tryonlabs/tryonkit/internal/auth"
	"github.com/tryonlabs/tryonkit/internal/provider"
)

// Static errors for Kolors client operations.
var (
	// ErrSignerRequired is returned when no auth signer is provided.
	ErrSignerRequired = errors.New("kolors: auth signer is required")
	// ErrNoTaskID is returned when the submit response has no task id.
	ErrNoTaskID = errors.New("kolors: submit returned no task id")
)

const (
	defaultBaseURL = "https://api.klingai.com"
	tryonPath      = "/v1/images/kolors-virtual-try-on"
)

// Client is the Kolors implementation of the provider Adapter.
type Client struct {
	signer     auth.Signer
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the Kling API.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Kolors adapter. The signer is expected to mint a fresh
// signed token per call.
func NewClient(signer auth.Signer, opts ...Option) (*Client, error) {
	if signer == nil {
		return nil, ErrSignerRequired
	}
	c := &Client{
		signer:     signer,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the backend identifier.
func (c *Client) Name() provider.ID {
	return provider.IDKolors
}

// Artifact returns the kind of media Kolors produces.
func (c *Client) Artifact() provider.Artifact {
	return provider.ArtifactImage
}

// Submit issues the try-on creation call.
func (c *Client) Submit(ctx context.Context, in provider.SubmitInput) (provider.TaskHandle, error) {
	humanB64, err := in.ModelImage.Base64()
	if err != nil {
		return provider.TaskHandle{}, fmt.Errorf("kolors: human image: %w", err)
	}
	clothB64, err := in.GarmentImage.Base64()
	if err != nil {
		return provider.TaskHandle{}, fmt.Errorf("kolors: cloth image: %w", err)
	}

	reqBody := createRequest{
		ModelName:   in.Options.String("model_name", "kolors-virtual-try-on-v1"),
		HumanImage:  humanB64,
		ClothImage:  clothB64,
		CallbackURL: "",
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return provider.TaskHandle{}, fmt.Errorf("kolors: marshal request: %w", err)
	}

	headers, err := c.headers()
	if err != nil {
		return provider.TaskHandle{}, err
	}

	status, respBody, err := provider.DoRequest(ctx, c.httpClient, c.Name(),
		http.MethodPost, c.baseURL+tryonPath, headers, body)
	if err != nil {
		return provider.TaskHandle{}, err
	}
	if status < 200 || status >= 300 {
		return provider.TaskHandle{}, klingServiceError(c.Name(), status, respBody)
	}

	var resp createResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return provider.TaskHandle{}, fmt.Errorf("kolors: unmarshal response: %w", err)
	}
	if resp.Code != 0 {
		return provider.TaskHandle{}, &provider.ServiceError{
			Provider: c.Name(), HTTPStatus: status,
			Code: strconv.Itoa(resp.Code), Message: resp.Message,
		}
	}
	if resp.Data.TaskID == "" {
		return provider.TaskHandle{}, ErrNoTaskID
	}

	return provider.TaskHandle{Provider: c.Name(), TaskID: resp.Data.TaskID}, nil
}

// Poll issues one status check against the task endpoint.
func (c *Client) Poll(ctx context.Context, handle provider.TaskHandle) (provider.PollOutcome, error) {
	headers, err := c.headers()
	if err != nil {
		return provider.PollOutcome{}, err
	}

	status, respBody, err := provider.DoRequest(ctx, c.httpClient, c.Name(),
		http.MethodGet, fmt.Sprintf("%s%s/%s", c.baseURL, tryonPath, handle.TaskID), headers, nil)
	if err != nil {
		return provider.PollOutcome{}, err
	}
	if status < 200 || status >= 300 {
		return provider.PollOutcome{}, klingServiceError(c.Name(), status, respBody)
	}

	var resp taskResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return provider.PollOutcome{}, fmt.Errorf("kolors: unmarshal status: %w", err)
	}

	switch resp.Data.TaskStatus {
	case "succeed":
		return provider.PollOutcome{State: provider.StateSucceeded, Raw: respBody}, nil
	case "failed":
		return provider.PollOutcome{
			State: provider.StateFailed,
			Err: &provider.ServiceError{
				Provider: c.Name(), HTTPStatus: status,
				Code: strconv.Itoa(resp.Code), Message: resp.Data.TaskStatusMsg,
			},
		}, nil
	default:
		return provider.PollOutcome{State: provider.StateRunning}, nil
	}
}

// ParseResult extracts the generated image URLs from a succeed payload.
func (c *Client) ParseResult(raw json.RawMessage) (*provider.Result, error) {
	var resp taskResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("kolors: parse result: %w", err)
	}
	urls := make([]string, 0, len(resp.Data.TaskResult.Images))
	for _, img := range resp.Data.TaskResult.Images {
		urls = append(urls, img.URL)
	}
	return &provider.Result{
		ArtifactURLs: urls,
		Raw:          raw,
	}, nil
}

func (c *Client) headers() (http.Header, error) {
	h, err := c.signer.Headers()
	if err != nil {
		return nil, &provider.AuthError{Provider: c.Name(), Message: err.Error()}
	}
	h.Set("Content-Type", "application/json")
	return h, nil
}

// klingServiceError normalizes a non-2xx Kling body into a ServiceError.
func klingServiceError(p provider.ID, status int, body []byte) error {
	var e struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	msg := string(body)
	code := ""
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		msg = e.Message
		code = strconv.Itoa(e.Code)
	}
	return &provider.ServiceError{Provider: p, HTTPStatus: status, Code: code, Message: msg}
}

// Compile-time check that Client implements the adapter contract.
var _ provider.Adapter = (*Client)(nil)
