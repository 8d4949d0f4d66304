// Package tryon is the facade the rest of the system calls: it validates one
// try-on request, resolves the model to its adapter, runs the job to a
// terminal state and materializes the resulting artifact.
package tryon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tryonlabs/tryonkit/internal/job"
	"github.com/tryonlabs/tryonkit/internal/materialize"
	"github.com/tryonlabs/tryonkit/internal/provider"
)

// Request describes one try-on generation. Model and garment images may be
// given as local paths or remote URLs; which one a backend needs is its
// adapter's concern. Options carry model-specific parameters and are
// validated against the model's schema before any network call.
type Request struct {
	Model string `json:"model" validate:"required"`

	ModelImagePath string `json:"model_image_path,omitempty" validate:"required_without=ModelImageURL"`
	ModelImageURL  string `json:"model_image_url,omitempty"`

	GarmentImagePath string `json:"garment_image_path,omitempty"`
	GarmentImageURL  string `json:"garment_image_url,omitempty"`

	Prompt         string `json:"prompt,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`

	Options map[string]any `json:"options,omitempty"`

	// DownloadPath, when set, receives a local copy of the artifact.
	DownloadPath string `json:"download_path,omitempty"`

	// Upload pushes the artifact (and a thumbnail for images) to durable
	// storage under generated keys.
	Upload bool `json:"upload,omitempty"`
}

// Response is the terminal outcome of a successful try-on run.
type Response struct {
	JobID string
	Model string

	ArtifactURLs []string
	LocalPath    string
	DurableURL   string
	ThumbnailURL string

	// Resolution is "WxH" for image artifacts.
	Resolution      string
	DurationSeconds float64

	// MediaDurationSeconds is the clip length for video artifacts.
	MediaDurationSeconds float64
}

// Service wires validation, the provider registry, the polling executor and
// the materializer into one entry point.
type Service struct {
	registry     *provider.Registry
	executor     *job.Executor
	materializer *materialize.Materializer
	validate     *validator.Validate
	logger       *slog.Logger
}

// NewService creates a Service. The materializer may be nil when callers
// only need remote artifact URLs.
func NewService(registry *provider.Registry, executor *job.Executor, mat *materialize.Materializer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:     registry,
		executor:     executor,
		materializer: mat,
		validate:     validator.New(),
		logger:       logger,
	}
}

// Models returns the model identifiers this service can run.
func (s *Service) Models() []string {
	return s.registry.Models()
}

// Run executes one try-on end to end. Option validation happens before any
// provider call, so a request with a bad option never costs an HTTP round
// trip. The returned error preserves the provider error chain for callers
// that branch on *provider.ServiceError or provider.ErrTimedOut.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &provider.ValidationError{Option: "request", Message: err.Error()}
	}

	entry, err := s.registry.Resolve(req.Model)
	if err != nil {
		return nil, err
	}

	opts, err := entry.Schema.Validate(req.Options)
	if err != nil {
		return nil, err
	}

	input := provider.SubmitInput{
		ModelImage:     provider.Asset{Path: req.ModelImagePath, URL: req.ModelImageURL},
		GarmentImage:   provider.Asset{Path: req.GarmentImagePath, URL: req.GarmentImageURL},
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Options:        opts,
	}

	j := job.New(req.Model, entry.Adapter.Name(), input)
	s.logger.Info("try-on started",
		slog.String("job_id", j.ID),
		slog.String("model", req.Model),
	)

	res, err := s.executor.Run(ctx, j, entry.Adapter, entry.Policy)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		JobID:                j.ID,
		Model:                req.Model,
		ArtifactURLs:         res.ArtifactURLs,
		DurationSeconds:      res.Timing.DurationSeconds,
		MediaDurationSeconds: res.MediaDurationSeconds,
	}

	if req.DownloadPath == "" && !req.Upload {
		return resp, nil
	}
	if s.materializer == nil {
		return nil, errors.New("tryon: materialization requested but no materializer configured")
	}

	in := materialize.Input{Result: res, LocalPath: req.DownloadPath}
	if req.Upload {
		name := uuid.NewString()
		in.Key = fmt.Sprintf("tryons/%s%s", name, artifactExt(res))
		if res.Artifact == provider.ArtifactImage {
			in.ThumbKey = fmt.Sprintf("thumbnails/tryons/%s.jpg", name)
		}
	}

	out, err := s.materializer.Materialize(ctx, in)
	if err != nil {
		return nil, err
	}

	resp.LocalPath = out.LocalPath
	resp.DurableURL = out.DurableURL
	resp.ThumbnailURL = out.ThumbnailURL
	resp.Resolution = out.Resolution
	return resp, nil
}

// artifactExt picks a storage key extension from the artifact URL, falling
// back to a sensible default per artifact kind.
func artifactExt(res *provider.Result) string {
	if len(res.ArtifactURLs) > 0 {
		if ext := path.Ext(strings.SplitN(res.ArtifactURLs[0], "?", 2)[0]); ext != "" && len(ext) <= 5 {
			return ext
		}
	}
	if res.Artifact == provider.ArtifactVideo {
		return ".mp4"
	}
	return ".jpg"
}
