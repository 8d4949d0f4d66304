// Package provider defines the common contract implemented by every try-on
// and video-generation backend: submit a task, poll it, and parse the terminal
// payload into a normalized Result. Retry cadence and sleeping are the
// executor's responsibility; adapters perform exactly one HTTP call per
// operation and hold no mutable state between calls.
package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ID identifies a concrete backend.
type ID string

const (
	IDFashn      ID = "fashn"
	IDKolors     ID = "kolors"
	IDReplicate  ID = "replicate"
	IDVModel     ID = "vmodel"
	IDKlingVideo ID = "kling-video"
)

// Artifact is the kind of media a backend produces.
type Artifact string

const (
	ArtifactImage Artifact = "image"
	ArtifactVideo Artifact = "video"
)

// Asset references one input image, either on local disk or at a remote URL.
// Backends that submit raw bytes read Path; URL-input backends use URL.
type Asset struct {
	Path string
	URL  string
}

// IsZero returns true if the asset references nothing.
func (a Asset) IsZero() bool {
	return a.Path == "" && a.URL == ""
}

// Base64 reads the asset from disk and returns its base64 encoding.
func (a Asset) Base64() (string, error) {
	if a.Path == "" {
		return "", fmt.Errorf("asset has no local path")
	}
	data, err := os.ReadFile(a.Path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return "", fmt.Errorf("read asset: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DataURI returns the asset bytes as a base64 data URI, the encoding the
// Fashn API expects for inline images.
func (a Asset) DataURI() (string, error) {
	b64, err := a.Base64()
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + b64, nil
}

// SubmitInput carries the validated inputs for one submission.
// Options has already passed schema validation; adapters read known options
// through the Params accessors and forward unknown ones untouched.
type SubmitInput struct {
	ModelImage     Asset
	GarmentImage   Asset
	Prompt         string
	NegativePrompt string
	Options        Params
}

// TaskHandle identifies a submitted task at its provider.
type TaskHandle struct {
	Provider ID
	TaskID   string
}

// PollState is the outcome class of a single status check.
type PollState string

const (
	// StateRunning means the remote task has not reached a terminal state.
	StateRunning PollState = "running"
	// StateSucceeded means the remote task finished; Raw holds the payload.
	StateSucceeded PollState = "succeeded"
	// StateFailed means the remote task reported a definitive failure.
	StateFailed PollState = "failed"
)

// PollOutcome is the normalized result of one poll call. On StateSucceeded,
// Raw carries the provider payload for ParseResult. On StateFailed, Err
// carries the provider-reported failure, normally a *ServiceError.
type PollOutcome struct {
	State PollState
	Raw   json.RawMessage
	Err   error
}

// Timing records when a task was submitted and finished, and the elapsed
// seconds between the two. DurationSeconds may come from the provider
// (ParseResult) or be derived from the timestamps by the executor.
type Timing struct {
	SubmittedAt     time.Time `json:"submitted_at"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Result is the normalized terminal payload of a succeeded task.
// Raw retains the provider response verbatim for diagnostics; it is parsed
// exactly once, by ParseResult.
type Result struct {
	ArtifactURLs []string
	Artifact     Artifact
	Timing       Timing
	// MediaDurationSeconds is the provider-reported length of a generated
	// video, zero for image backends.
	MediaDurationSeconds float64
	Raw                  json.RawMessage
}

// Adapter is the capability set every backend implements.
type Adapter interface {
	// Name returns the backend identifier.
	Name() ID

	// Artifact returns the kind of media this backend produces.
	Artifact() Artifact

	// Submit issues the creation call and returns the provider task handle.
	// A non-success HTTP status or an embedded provider error code is
	// surfaced as a *ServiceError, never swallowed.
	Submit(ctx context.Context, in SubmitInput) (TaskHandle, error)

	// Poll issues exactly one status check. It must not sleep or retry;
	// cadence belongs to the executor.
	Poll(ctx context.Context, handle TaskHandle) (PollOutcome, error)

	// ParseResult extracts artifact URLs and any inline timing from a
	// terminal success payload. It never performs downloads.
	ParseResult(raw json.RawMessage) (*Result, error)
}
