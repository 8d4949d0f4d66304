// Package klingvideo provides the HTTP adapter for the Kling image-to-video
// generation API. It shares the Kolors authentication scheme (fresh HMAC
// signed token per request) and failure envelope, and additionally accepts a
// free-text prompt, negative prompt, guidance scale and seed.
package klingvideo

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

// Static errors for Kling video client operations.
var (
	// ErrSignerRequired is returned when no auth signer is provided.
	ErrSignerRequired = errors.New("klingvideo: auth signer is required")
	// ErrNoTaskID is returned when the submit response has no task id.
	ErrNoTaskID = errors.New("klingvideo: submit returned no task id")
)

const (
	defaultBaseURL = "https://api.klingai.com"
	videoPath      = "/v1/videos/image2video"
)

// Client is the Kling video implementation of the provider Adapter.
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

// NewClient creates a Kling video adapter.
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
	return provider.IDKlingVideo
}

// Artifact returns the kind of media this backend produces.
func (c *Client) Artifact() provider.Artifact {
	return provider.ArtifactVideo
}

// Submit issues the video generation call. Options have already passed the
// {model_version, mode, duration} enumerations; an invalid combination never
// reaches this method.
func (c *Client) Submit(ctx context.Context, in provider.SubmitInput) (provider.TaskHandle, error) {
	imageB64, err := in.ModelImage.Base64()
	if err != nil {
		return provider.TaskHandle{}, fmt.Errorf("klingvideo: source image: %w", err)
	}

	opts := in.Options
	reqBody := createRequest{
		ModelName:      opts.String("model_version", "kling-v1-5"),
		Mode:           opts.String("mode", "std"),
		Duration:       opts.String("duration", "5"),
		Image:          imageB64,
		Prompt:         in.Prompt,
		NegativePrompt: in.NegativePrompt,
		CfgScale:       opts.Float("cfg_scale", 0.5),
	}
	if opts.Has("seed") {
		seed := opts.Int("seed", 0)
		reqBody.Seed = &seed
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return provider.TaskHandle{}, fmt.Errorf("klingvideo: marshal request: %w", err)
	}

	headers, err := c.headers()
	if err != nil {
		return provider.TaskHandle{}, err
	}

	status, respBody, err := provider.DoRequest(ctx, c.httpClient, c.Name(),
		http.MethodPost, c.baseURL+videoPath, headers, body)
	if err != nil {
		return provider.TaskHandle{}, err
	}
	if status < 200 || status >= 300 {
		return provider.TaskHandle{}, c.serviceError(status, respBody)
	}

	var resp createResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return provider.TaskHandle{}, fmt.Errorf("klingvideo: unmarshal response: %w", err)
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
		http.MethodGet, fmt.Sprintf("%s%s/%s", c.baseURL, videoPath, handle.TaskID), headers, nil)
	if err != nil {
		return provider.PollOutcome{}, err
	}
	if status < 200 || status >= 300 {
		return provider.PollOutcome{}, c.serviceError(status, respBody)
	}

	var resp taskResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return provider.PollOutcome{}, fmt.Errorf("klingvideo: unmarshal status: %w", err)
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

// ParseResult extracts the video URLs and the provider-reported clip length
// from a succeed payload. Kling reports the length as a string of seconds;
// it is normalized here so no format difference leaks past this boundary.
func (c *Client) ParseResult(raw json.RawMessage) (*provider.Result, error) {
	var resp taskResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("klingvideo: parse result: %w", err)
	}

	res := &provider.Result{Raw: raw}
	for _, v := range resp.Data.TaskResult.Videos {
		res.ArtifactURLs = append(res.ArtifactURLs, v.URL)
	}
	if len(resp.Data.TaskResult.Videos) > 0 {
		if sec, err := provider.ParseElapsed(resp.Data.TaskResult.Videos[0].Duration); err == nil {
			res.MediaDurationSeconds = sec
		}
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

// serviceError normalizes a non-2xx {code,message} body into a ServiceError.
func (c *Client) serviceError(status int, body []byte) error {
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
	return &provider.ServiceError{Provider: c.Name(), HTTPStatus: status, Code: code, Message: msg}
}

// Compile-time check that Client implements the adapter contract.
var _ provider.Adapter = (*Client)(nil)
