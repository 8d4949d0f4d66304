// Package batch fans a set of try-on requests out over a fixed pool of
// workers and records every outcome, success or failure, in a JSON report
// that is flushed to disk after each completion so a crash loses at most the
// in-flight entries.
package batch

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tryonlabs/tryonkit/internal/tryon"
)

// defaultWorkers bounds concurrent provider calls.
const defaultWorkers = 5

// Entry is one finished request in the report.
type Entry struct {
	Model           string    `json:"model"`
	JobID           string    `json:"job_id,omitempty"`
	Status          string    `json:"status"`
	ArtifactURLs    []string  `json:"artifact_urls,omitempty"`
	LocalPath       string    `json:"local_path,omitempty"`
	DurableURL      string    `json:"durable_url,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	Resolution      string    `json:"resolution,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	Error           string    `json:"error,omitempty"`
	FinishedAt      time.Time `json:"finished_at"`
}

// Report accumulates entries across workers and persists itself after each
// append. Path may be empty to keep the report in memory only.
type Report struct {
	mu      sync.Mutex
	path    string
	Entries []Entry `json:"entries"`
}

// NewReport creates a report persisted at path on every append.
func NewReport(path string) *Report {
	return &Report{path: path}
}

// Append records an entry and rewrites the report file. Persistence errors
// are returned but the entry is always retained in memory.
func (r *Report) Append(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
	if r.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(struct {
		Entries []Entry `json:"entries"`
	}{r.Entries}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}

// Len returns the number of recorded entries.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Entries)
}

// Failures returns the entries that did not succeed.
func (r *Report) Failures() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for _, e := range r.Entries {
		if e.Status != "succeeded" {
			out = append(out, e)
		}
	}
	return out
}

// Runner executes try-on requests concurrently.
type Runner struct {
	service *tryon.Service
	workers int
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the pool size.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewRunner creates a Runner over the given service.
func NewRunner(service *tryon.Service, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{service: service, workers: defaultWorkers, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every request, isolating failures: one request failing never
// stops the others. The report holds exactly one entry per request when Run
// returns.
func (r *Runner) Run(ctx context.Context, reqs []tryon.Request, report *Report) {
	jobs := make(chan tryon.Request)
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range jobs {
				r.runOne(ctx, req, report)
			}
		}()
	}

	for _, req := range reqs {
		jobs <- req
	}
	close(jobs)
	wg.Wait()
}

func (r *Runner) runOne(ctx context.Context, req tryon.Request, report *Report) {
	entry := Entry{Model: req.Model, FinishedAt: time.Now().UTC()}

	resp, err := r.service.Run(ctx, req)
	if err != nil {
		entry.Status = "failed"
		entry.Error = err.Error()
		r.logger.Error("batch request failed",
			slog.String("model", req.Model),
			slog.String("error", err.Error()),
		)
	} else {
		entry.Status = "succeeded"
		entry.JobID = resp.JobID
		entry.ArtifactURLs = resp.ArtifactURLs
		entry.LocalPath = resp.LocalPath
		entry.DurableURL = resp.DurableURL
		entry.ThumbnailURL = resp.ThumbnailURL
		entry.Resolution = resp.Resolution
		entry.DurationSeconds = resp.DurationSeconds
		r.logger.Info("batch request succeeded",
			slog.String("model", req.Model),
			slog.String("job_id", resp.JobID),
		)
	}
	entry.FinishedAt = time.Now().UTC()

	if perr := report.Append(entry); perr != nil {
		r.logger.Warn("report persistence failed",
			slog.String("error", perr.Error()),
		)
	}
}
