// Package fashn provides the HTTP adapter for the Fashn virtual try-on API.
// Fashn authenticates with a static bearer key, takes inline base64 data-URI
// images, and signals failure either as a non-2xx status with a structured
// body or as a 200 polling payload with status "failed".
package fashn

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

// Static errors for Fashn client operations.
var (
	// ErrSignerRequired is returned when no auth signer is provided.
	ErrSignerRequired = errors.New("fashn: auth signer is required")
	// ErrNoPredictionID is returned when the submit response has no id.
	ErrNoPredictionID = errors.New("fashn: submit returned no prediction id")
)

const defaultBaseURL = "https://api.fashn.ai/v1"

// Client is the Fashn implementation of the provider Adapter.
type Client struct {
	signer     auth.Signer
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the Fashn API.
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

// NewClient creates a Fashn adapter using the given signer for per-request
// authorization headers.
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
	return provider.IDFashn
}

// Artifact returns the kind of media Fashn produces.
func (c *Client) Artifact() provider.Artifact {
	return provider.ArtifactImage
}

// Submit issues the try-on creation call and returns the prediction handle.
func (c *Client) Submit(ctx context.Context, in provider.SubmitInput) (provider.TaskHandle, error) {
	modelURI, err := in.ModelImage.DataURI()
	if err != nil {
		return provider.TaskHandle{}, fmt.Errorf("fashn: model image: %w", err)
	}
	garmentURI, err := in.GarmentImage.DataURI()
	if err != nil {
		return provider.TaskHandle{}, fmt.Errorf("fashn: garment image: %w", err)
	}

	opts := in.Options
	reqBody := runRequest{
		ModelImage:        modelURI,
		GarmentImage:      garmentURI,
		Category:          opts.String("category", "tops"),
		Mode:              opts.String("mode", "balanced"),
		GarmentPhotoType:  opts.String("garment_photo_type", "auto"),
		NSFWFilter:        opts.Bool("nsfw_filter", true),
		CoverFeet:         opts.Bool("cover_feet", false),
		AdjustHands:       opts.Bool("adjust_hands", false),
		RestoreBackground: opts.Bool("restore_background", false),
		RestoreClothes:    opts.Bool("restore_clothes", false),
		LongTop:           opts.Bool("long_top", false),
		Seed:              opts.Int("seed", 42),
		NumSamples:        opts.Int("num_samples", 1),
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return provider.TaskHandle{}, fmt.Errorf("fashn: marshal request: %w", err)
	}

	headers, err := c.headers()
	if err != nil {
		return provider.TaskHandle{}, err
	}

	status, respBody, err := provider.DoRequest(ctx, c.httpClient, c.Name(),
		http.MethodPost, c.baseURL+"/run", headers, body)
	if err != nil {
		return provider.TaskHandle{}, err
	}
	if status < 200 || status >= 300 {
		return provider.TaskHandle{}, serviceError(status, respBody)
	}

	var resp runResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return provider.TaskHandle{}, fmt.Errorf("fashn: unmarshal response: %w", err)
	}
	if resp.ID == "" {
		if resp.Error != "" {
			return provider.TaskHandle{}, &provider.ServiceError{
				Provider: c.Name(), HTTPStatus: status, Message: resp.Error,
			}
		}
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
		http.MethodGet, fmt.Sprintf("%s/status/%s", c.baseURL, handle.TaskID), headers, nil)
	if err != nil {
		return provider.PollOutcome{}, err
	}
	if status < 200 || status >= 300 {
		return provider.PollOutcome{}, serviceError(status, respBody)
	}

	var resp statusResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return provider.PollOutcome{}, fmt.Errorf("fashn: unmarshal status: %w", err)
	}

	switch resp.Status {
	case "completed":
		return provider.PollOutcome{State: provider.StateSucceeded, Raw: respBody}, nil
	case "failed":
		return provider.PollOutcome{
			State: provider.StateFailed,
			Err: &provider.ServiceError{
				Provider: c.Name(), HTTPStatus: status,
				Code: "failed", Message: resp.ErrorMessage(),
			},
		}, nil
	default:
		return provider.PollOutcome{State: provider.StateRunning}, nil
	}
}

// ParseResult extracts the output image URLs from a completed payload.
func (c *Client) ParseResult(raw json.RawMessage) (*provider.Result, error) {
	var resp statusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("fashn: parse result: %w", err)
	}
	return &provider.Result{
		ArtifactURLs: resp.Output,
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

// serviceError normalizes a non-2xx body, which may carry {name,message} or
// a bare message, into a ServiceError.
func serviceError(status int, body []byte) error {
	var e struct {
		Name    string `json:"name"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := string(body)
	code := ""
	if err := json.Unmarshal(body, &e); err == nil {
		code = e.Name
		if e.Message != "" {
			msg = e.Message
		} else if e.Error != "" {
			msg = e.Error
		}
	}
	return &provider.ServiceError{
		Provider: provider.IDFashn, HTTPStatus: status, Code: code, Message: msg,
	}
}

// Compile-time check that Client implements the adapter contract.
var _ provider.Adapter = (*Client)(nil)
