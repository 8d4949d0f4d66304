// Package vmodel provides the HTTP adapter for the VModel virtual try-on
// API. It submits a multipart form with the raw image files, authenticates
// with a bare header key (no Bearer prefix), and drives polling off a
// numeric result code: one code means done, one means permanent failure,
// anything else means still processing.
package vmodel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tryonlabs/tryonkit/internal/auth"
	"github.com/tryonlabs/tryonkit/internal/provider"
)

// Static errors for VModel client operations.
var (
	// ErrSignerRequired is returned when no auth signer is provided.
	ErrSignerRequired = errors.New("vmodel: auth signer is required")
	// ErrNoJobID is returned when the create-job response has no job id.
	ErrNoJobID = errors.New("vmodel: create-job returned no job id")
)

const defaultBaseURL = "https://developer.vmodel.ai/api/vmodel/v1/ai-virtual-try-on"

// Job result codes from the VModel API.
const (
	// codeOK marks both an accepted request and a finished job.
	codeOK = 100000
	// codeGenerationFailed marks a permanent generation failure.
	codeGenerationFailed = 300104
)

// Client is the VModel implementation of the provider Adapter.
type Client struct {
	signer     auth.Signer
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the VModel API.
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

// NewClient creates a VModel adapter.
func NewClient(signer auth.Signer, opts ...Option) (*Client, error) {
	if signer == nil {
		return nil, ErrSignerRequired
	}
	c := &Client{
		signer:     signer,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the backend identifier.
func (c *Client) Name() provider.ID {
	return provider.IDVModel
}

// Artifact returns the kind of media VModel produces.
func (c *Client) Artifact() provider.Artifact {
	return provider.ArtifactImage
}

// Submit uploads the image files as a multipart form and returns the job
// handle.
func (c *Client) Submit(ctx context.Context, in provider.SubmitInput) (provider.TaskHandle, error) {
	body, contentType, err := c.buildForm(in)
	if err != nil {
		return provider.TaskHandle{}, err
	}

	headers, err := c.headers()
	if err != nil {
		return provider.TaskHandle{}, err
	}
	headers.Set("Content-Type", contentType)

	status, respBody, err := provider.DoRequest(ctx, c.httpClient, c.Name(),
		http.MethodPost, c.baseURL+"/create-job", headers, body)
	if err != nil {
		return provider.TaskHandle{}, err
	}
	if status < 200 || status >= 300 {
		return provider.TaskHandle{}, &provider.ServiceError{
			Provider: c.Name(), HTTPStatus: status, Message: string(respBody),
		}
	}

	var resp jobResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return provider.TaskHandle{}, fmt.Errorf("vmodel: unmarshal response: %w", err)
	}
	if resp.Code != codeOK {
		return provider.TaskHandle{}, &provider.ServiceError{
			Provider: c.Name(), HTTPStatus: status,
			Code: strconv.Itoa(resp.Code), Message: resp.Text(),
		}
	}
	if resp.Result.JobID == "" {
		return provider.TaskHandle{}, ErrNoJobID
	}

	return provider.TaskHandle{Provider: c.Name(), TaskID: resp.Result.JobID}, nil
}

// Poll issues one job-status check. The numeric code decides the outcome:
// codeOK with output URLs is done, codeGenerationFailed is a permanent
// failure, anything else is still processing.
func (c *Client) Poll(ctx context.Context, handle provider.TaskHandle) (provider.PollOutcome, error) {
	headers, err := c.headers()
	if err != nil {
		return provider.PollOutcome{}, err
	}

	status, respBody, err := provider.DoRequest(ctx, c.httpClient, c.Name(),
		http.MethodGet, fmt.Sprintf("%s/get-job/%s", c.baseURL, handle.TaskID), headers, nil)
	if err != nil {
		return provider.PollOutcome{}, err
	}
	if status < 200 || status >= 300 {
		return provider.PollOutcome{}, &provider.ServiceError{
			Provider: c.Name(), HTTPStatus: status, Message: string(respBody),
		}
	}

	var resp jobResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return provider.PollOutcome{}, fmt.Errorf("vmodel: unmarshal status: %w", err)
	}

	switch {
	case resp.Code == codeOK && len(resp.Result.OutputImageURL) > 0:
		return provider.PollOutcome{State: provider.StateSucceeded, Raw: respBody}, nil
	case resp.Code == codeGenerationFailed:
		return provider.PollOutcome{
			State: provider.StateFailed,
			Err: &provider.ServiceError{
				Provider: c.Name(), HTTPStatus: status,
				Code: strconv.Itoa(resp.Code), Message: resp.Text(),
			},
		}, nil
	default:
		return provider.PollOutcome{State: provider.StateRunning}, nil
	}
}

// ParseResult extracts the output image URLs from a finished payload.
func (c *Client) ParseResult(raw json.RawMessage) (*provider.Result, error) {
	var resp jobResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("vmodel: parse result: %w", err)
	}
	return &provider.Result{
		ArtifactURLs: resp.Result.OutputImageURL,
		Raw:          raw,
	}, nil
}

// buildForm assembles the multipart body with both image files and the
// clothes_type and prompt fields.
func (c *Client) buildForm(in provider.SubmitInput) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := addFile(w, "clothes_image", in.GarmentImage.Path); err != nil {
		return nil, "", err
	}
	if err := addFile(w, "custom_model", in.ModelImage.Path); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("clothes_type", in.Options.String("clothes_type", "upper_body")); err != nil {
		return nil, "", fmt.Errorf("vmodel: write field: %w", err)
	}
	if err := w.WriteField("prompt", in.Prompt); err != nil {
		return nil, "", fmt.Errorf("vmodel: write field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("vmodel: close form: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func addFile(w *multipart.Writer, field, path string) error {
	if path == "" {
		return fmt.Errorf("vmodel: %s has no local path", field)
	}
	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return fmt.Errorf("vmodel: open %s: %w", field, err)
	}
	defer func() { _ = f.Close() }()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("vmodel: create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("vmodel: copy %s: %w", field, err)
	}
	return nil
}

func (c *Client) headers() (http.Header, error) {
	h, err := c.signer.Headers()
	if err != nil {
		return nil, &provider.AuthError{Provider: c.Name(), Message: err.Error()}
	}
	h.Set("Accept", "application/json")
	return h, nil
}

// Compile-time check that Client implements the adapter contract.
var _ provider.Adapter = (*Client)(nil)
