// Package materialize turns a succeeded task's remote artifacts into durable
// files: it downloads each URL to a scoped temporary location, derives
// metadata (pixel resolution for images), optionally produces a bounded
// thumbnail, and moves the final bytes to the caller-specified destination.
// Every temporary file created here is removed on success and failure paths
// alike.
package materialize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/tryonlabs/tryonkit/internal/provider"
	"github.com/tryonlabs/tryonkit/internal/storage"
)

// defaultThumbMax caps the longest side of generated thumbnails.
const defaultThumbMax = 600

// Input describes one materialization: which result to fetch and where the
// bytes should end up. Key and ThumbKey are durable storage keys; either may
// be empty to skip the upload. LocalPath is an optional on-disk destination.
type Input struct {
	Result    *provider.Result
	Key       string
	ThumbKey  string
	LocalPath string
}

// Output reports where the artifact was materialized and what was derived
// from it.
type Output struct {
	// LocalPath is set when the caller asked for an on-disk copy.
	LocalPath string
	// DurableURL is set when the artifact was uploaded under Key.
	DurableURL string
	// ThumbnailURL is set when a thumbnail was generated and uploaded.
	ThumbnailURL string
	// Resolution is "WxH" for images, empty for videos.
	Resolution string
}

// Materializer downloads artifacts and derives local assets.
type Materializer struct {
	store      storage.Storage
	httpClient *http.Client
	logger     *slog.Logger
	thumbMax   int
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithHTTPClient sets a custom HTTP client for artifact downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Materializer) {
		m.httpClient = hc
	}
}

// WithThumbMax overrides the thumbnail bound.
func WithThumbMax(px int) Option {
	return func(m *Materializer) {
		if px > 0 {
			m.thumbMax = px
		}
	}
}

// New creates a Materializer backed by the given storage.
func New(store storage.Storage, logger *slog.Logger, opts ...Option) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Materializer{
		store:      store,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
		thumbMax:   defaultThumbMax,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize fetches the primary artifact and produces the requested
// outputs. Re-running with the same result and destination produces
// byte-identical output. All temporaries are cleaned up before return,
// whatever the exit path.
func (m *Materializer) Materialize(ctx context.Context, in Input) (out *Output, err error) {
	if in.Result == nil || len(in.Result.ArtifactURLs) == 0 {
		return nil, fmt.Errorf("materialize: result has no artifact URLs")
	}
	url := in.Result.ArtifactURLs[0]

	var temps []string
	defer func() {
		if cerr := m.store.CleanupTemp(ctx, temps); cerr != nil {
			m.logger.Warn("temp cleanup incomplete", slog.String("error", cerr.Error()))
		}
	}()

	tempPath, err := m.download(ctx, url)
	if err != nil {
		return nil, err
	}
	temps = append(temps, tempPath)

	out = &Output{}

	if in.Result.Artifact == provider.ArtifactImage {
		res, derr := imageResolution(tempPath)
		if derr != nil {
			return nil, &provider.DownloadError{URL: url, Err: derr}
		}
		out.Resolution = res

		if in.ThumbKey != "" {
			thumbPath, terr := m.makeThumbnail(ctx, tempPath)
			if terr != nil {
				return nil, &provider.DownloadError{URL: url, Err: terr}
			}
			temps = append(temps, thumbPath)

			thumbURL, uerr := m.uploadFile(ctx, in.ThumbKey, thumbPath)
			if uerr != nil {
				return nil, uerr
			}
			out.ThumbnailURL = thumbURL
		}
	}

	if in.Key != "" {
		durableURL, uerr := m.uploadFile(ctx, in.Key, tempPath)
		if uerr != nil {
			return nil, uerr
		}
		out.DurableURL = durableURL
	}

	if in.LocalPath != "" {
		if cerr := copyFile(tempPath, in.LocalPath); cerr != nil {
			return nil, &provider.DownloadError{URL: url, Err: cerr}
		}
		out.LocalPath = in.LocalPath
	}

	m.logger.Info("artifact materialized",
		slog.String("url", url),
		slog.String("key", in.Key),
		slog.String("resolution", out.Resolution),
	)
	return out, nil
}

// download fetches the artifact into a temporary file and returns its path.
func (m *Materializer) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &provider.DownloadError{URL: url, Err: err}
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", &provider.DownloadError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &provider.DownloadError{
			URL: url,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	path, err := m.store.SaveTemp(ctx, "artifact", resp.Body)
	if err != nil {
		return "", &provider.DownloadError{URL: url, Err: err}
	}
	return path, nil
}

// uploadFile streams a temp file into durable storage.
func (m *Materializer) uploadFile(ctx context.Context, key, path string) (string, error) {
	f, err := m.store.LoadTemp(ctx, path)
	if err != nil {
		return "", fmt.Errorf("materialize: %w", err)
	}
	defer func() { _ = f.Close() }()

	url, err := m.store.Upload(ctx, key, f)
	if err != nil {
		return "", fmt.Errorf("materialize: upload %s: %w", key, err)
	}
	return url, nil
}

// copyFile writes src's bytes to dst, truncating any existing file so
// repeated materializations stay byte-identical.
func copyFile(src, dst string) error {
	in, err := os.Open(src) // #nosec G304 - src is a temp file we created
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) // #nosec G304 - dst is provided by trusted caller
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
