// Package replicate provides the HTTP adapter for running the IDM-VTON
// try-on model via the Replicate predictions API. Unlike the inline-bytes
// backends it takes remote image URLs, plus numeric and boolean tuning
// parameters (steps, seed, crop flags).
package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tryonlabs/tryonkit/internal/auth"
	"github.com/tryonlabs/tryonkit/internal/provider"
)

// Static errors for Replicate client operations.
var (
	// ErrSignerRequired is returned when no auth signer is provided.
	ErrSignerRequired = errors.New("replicate: auth signer is required")
	// ErrNoPredictionID is returned when the submit response has no id.
	ErrNoPredictionID = errors.New("replicate: submit returned no prediction id")
	// ErrRemoteURLRequired is returned when an input asset has no remote URL.
	ErrRemoteURLRequired = errors.New("replicate: input images must be remote URLs")
)

const (
	defaultBaseURL = "https://api.replicate.com"
	// defaultVersion pins the IDM-VTON model version.
	defaultVersion = "c871bb9b046607b680449ecbae55fd8c6d945e0a1948644bf2361b3d021d3ff4"
)

// Client is the Replicate implementation of the provider Adapter.
type Client struct {
	signer     auth.Signer
	baseURL    string
	version    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the Replicate API.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithVersion overrides the pinned model version.
func WithVersion(version string) Option {
	return func(c *Client) {
		c.version = version
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Replicate adapter.
func NewClient(signer auth.Signer, opts ...Option) (*Client, error) {
	if signer == nil {
		return nil, ErrSignerRequired
	}
	c := &Client{
		signer:     signer,
		baseURL:    defaultBaseURL,
		version:    defaultVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the backend identifier.
func (c *Client) Name() provider.ID {
	return provider.IDReplicate
}

// Artifact returns the kind of media this backend produces.
func (c *Client) Artifact() provider.Artifact {
	return provider.ArtifactImage
}

// Submit creates a prediction from remote image URLs.
func (c *Client) Submit(ctx context.Context, in provider.SubmitInput) (provider.TaskHandle, error) {
	if in.ModelImage.URL == "" || in.GarmentImage.URL == "" {
		return provider.TaskHandle{}, ErrRemoteURLRequired
	}

	opts := in.Options
	reqBody := predictionRequest{
		Version: c.version,
		Input: predictionInput{
			HumanImg:   in.ModelImage.URL,
			GarmImg:    in.GarmentImage.URL,
			GarmentDes: in.Prompt,
			Category:   opts.String("category", "upper_body"),
			Steps:      opts.Int("steps", 30),
			Seed:       opts.Int("seed", 42),
			Crop:       opts.Bool("crop", false),
			ForceDC:    opts.Bool("force_dc", false),
			MaskOnly:   opts.Bool("mask_only", false),
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return provider.TaskHandle{}, fmt.Errorf("replicate: marshal request: %w", err)
	}

	headers, err := c.headers()
	if err != nil {
		return provider.TaskHandle{}, err
	}

	status, respBody, err := provider.DoRequest(ctx, c.httpClient, c.Name(),
		http.MethodPost, c.baseURL+"/v1/predictions", headers, body)
	if err != nil {
		return provider.TaskHandle{}, err
	}
	if status < 200 || status >= 300 {
		return provider.TaskHandle{}, c.serviceError(status, respBody)
	}

	var resp predictionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return provider.TaskHandle{}, fmt.Errorf("replicate: unmarshal response: %w", err)
	}
	if resp.ID == "" {
		return provider.TaskHandle{}, ErrNoPredictionID
	}

	return provider.TaskHandle{Provider: c.Name(), TaskID: resp.ID}, nil
}

// Poll issues one status check against the prediction endpoint.
func (c *Client) Poll(ctx context.Context, handle provider.TaskHandle) (provider.PollOutcome, error) {
	headers, err := c.headers()
	if err != nil {
		return provider.PollOutcome{}, err
	}

	status, respBody, err := provider.DoRequest(ctx, c.httpClient, c.Name(),
		http.MethodGet, fmt.Sprintf("%s/v1/predictions/%s", c.baseURL, handle.TaskID), headers, nil)
	if err != nil {
		return provider.PollOutcome{}, err
	}
	if status < 200 || status >= 300 {
		return provider.PollOutcome{}, c.serviceError(status, respBody)
	}

	var resp predictionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return provider.PollOutcome{}, fmt.Errorf("replicate: unmarshal status: %w", err)
	}

	switch resp.Status {
	case "succeeded":
		return provider.PollOutcome{State: provider.StateSucceeded, Raw: respBody}, nil
	case "failed", "canceled":
		return provider.PollOutcome{
			State: provider.StateFailed,
			Err: &provider.ServiceError{
				Provider: c.Name(), HTTPStatus: status,
				Code: resp.Status, Message: resp.Error,
			},
		}, nil
	default:
		return provider.PollOutcome{State: provider.StateRunning}, nil
	}
}

// ParseResult extracts the output URLs and the reported predict time.
// Output arrives as a bare URL string or an array of URLs depending on the
// model; both are handled here.
func (c *Client) ParseResult(raw json.RawMessage) (*provider.Result, error) {
	var resp predictionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("replicate: parse result: %w", err)
	}

	urls, err := resp.OutputURLs()
	if err != nil {
		return nil, fmt.Errorf("replicate: parse result: %w", err)
	}

	res := &provider.Result{
		ArtifactURLs: urls,
		Raw:          raw,
	}
	if resp.Metrics.PredictTime > 0 {
		res.Timing.DurationSeconds = resp.Metrics.PredictTime
	}
	return res, nil
}

func (c *Client) headers() (http.Header, error) {
	h, err := c.signer.Headers()
	if err != nil {
		return nil, &provider.AuthError{Provider: c.Name(), Message: err.Error()}
	}
	h.Set("Content-Type", "application/json")
	return h, nil
}

// serviceError normalizes a non-2xx body, typically {detail,status}, into a
// ServiceError.
func (c *Client) serviceError(status int, body []byte) error {
	var e struct {
		Detail string `json:"detail"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != "" {
		msg = e.Detail
	}
	return &provider.ServiceError{Provider: c.Name(), HTTPStatus: status, Message: msg}
}

// Compile-time check that Client implements the adapter contract.
var _ provider.Adapter = (*Client)(nil)
