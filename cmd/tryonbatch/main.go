// Package main provides the tryonbatch command, which runs one garment and
// person image pair against one or more try-on models concurrently and
// writes a JSON report of the outcomes.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/tryonlabs/tryonkit/internal/batch"
	"github.com/tryonlabs/tryonkit/internal/bootstrap"
	"github.com/tryonlabs/tryonkit/internal/config"
	"github.com/tryonlabs/tryonkit/internal/storage"
	"github.com/tryonlabs/tryonkit/internal/tryon"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		models          = flag.String("models", "", "comma-separated model identifiers (empty runs every configured model)")
		modelImage      = flag.String("model-image", "", "path to the person image, or s3://<key> in the configured bucket")
		modelImageURL   = flag.String("model-image-url", "", "remote URL of the person image")
		garmentImage    = flag.String("garment-image", "", "path to the garment image, or s3://<key> in the configured bucket")
		garmentImageURL = flag.String("garment-image-url", "", "remote URL of the garment image")
		prompt          = flag.String("prompt", "", "garment description or generation prompt")
		negativePrompt  = flag.String("negative-prompt", "", "negative prompt, for models that accept one")
		outputDir       = flag.String("output-dir", "", "directory to download artifacts into")
		upload          = flag.Bool("upload", false, "push artifacts and thumbnails to durable storage")
		reportPath      = flag.String("report", "tryon_report.json", "path of the JSON report")
		manifestPath    = flag.String("manifest", "", "JSON file with an array of requests, overrides the per-flag request")
	)
	var optionFlags keyValueList
	flag.Var(&optionFlags, "option", "model option as key=value, repeatable")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	logger.Info("starting tryonbatch", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	reqs, err := buildRequests(deps.Service, requestFlags{
		models:          *models,
		modelImage:      *modelImage,
		modelImageURL:   *modelImageURL,
		garmentImage:    *garmentImage,
		garmentImageURL: *garmentImageURL,
		prompt:          *prompt,
		negativePrompt:  *negativePrompt,
		outputDir:       *outputDir,
		upload:          *upload,
		manifestPath:    *manifestPath,
		options:         optionFlags.Map(),
	})
	if err != nil {
		return err
	}
	if err := resolveS3Inputs(ctx, deps.Store, reqs); err != nil {
		return err
	}

	report := batch.NewReport(*reportPath)
	deps.Runner.Run(ctx, reqs, report)

	failures := report.Failures()
	logger.Info("batch finished",
		slog.Int("total", report.Len()),
		slog.Int("failed", len(failures)),
		slog.String("report", *reportPath),
	)
	if len(failures) == report.Len() && report.Len() > 0 {
		return fmt.Errorf("all %d requests failed", report.Len())
	}
	return nil
}

type requestFlags struct {
	models          string
	modelImage      string
	modelImageURL   string
	garmentImage    string
	garmentImageURL string
	prompt          string
	negativePrompt  string
	outputDir       string
	upload          bool
	manifestPath    string
	options         map[string]any
}

// buildRequests turns the CLI flags into one request per selected model, or
// loads a full request list from the manifest file when one is given.
func buildRequests(svc *tryon.Service, f requestFlags) ([]tryon.Request, error) {
	if f.manifestPath != "" {
		return loadManifest(f.manifestPath)
	}

	if f.modelImage == "" && f.modelImageURL == "" {
		return nil, fmt.Errorf("one of -model-image or -model-image-url is required")
	}

	selected := svc.Models()
	if f.models != "" {
		selected = strings.Split(f.models, ",")
	}

	reqs := make([]tryon.Request, 0, len(selected))
	for _, model := range selected {
		model = strings.TrimSpace(model)
		req := tryon.Request{
			Model:            model,
			ModelImagePath:   f.modelImage,
			ModelImageURL:    f.modelImageURL,
			GarmentImagePath: f.garmentImage,
			GarmentImageURL:  f.garmentImageURL,
			Prompt:           f.prompt,
			NegativePrompt:   f.negativePrompt,
			Options:          f.options,
			Upload:           f.upload,
		}
		if f.outputDir != "" {
			req.DownloadPath = filepath.Join(f.outputDir, model+".jpg")
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// loadManifest reads a JSON array of requests from disk.
func loadManifest(path string) ([]tryon.Request, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var reqs []tryon.Request
	if err := json.Unmarshal(data, &reqs); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("manifest %s contains no requests", path)
	}
	return reqs, nil
}

// s3Scheme prefixes input references that name an object key in the
// configured durable bucket.
const s3Scheme = "s3://"

// resolveS3Inputs downloads every s3:// input reference into the temp dir
// and rewrites the request to point at the local copy. Plain paths pass
// through untouched; remote http(s) URLs travel in the URL fields and are
// never resolved here.
func resolveS3Inputs(ctx context.Context, store storage.Storage, reqs []tryon.Request) error {
	for i := range reqs {
		for _, ref := range []*string{&reqs[i].ModelImagePath, &reqs[i].GarmentImagePath} {
			local, err := resolveInput(ctx, store, *ref)
			if err != nil {
				return err
			}
			*ref = local
		}
	}
	return nil
}

// resolveInput stages a single s3:// reference as a temp file.
func resolveInput(ctx context.Context, store storage.Storage, ref string) (string, error) {
	if !strings.HasPrefix(ref, s3Scheme) {
		return ref, nil
	}
	key := strings.TrimPrefix(ref, s3Scheme)

	var buf bytes.Buffer
	if err := store.Download(ctx, key, &buf); err != nil {
		return "", fmt.Errorf("download input %s: %w", ref, err)
	}
	path, err := store.SaveTemp(ctx, filepath.Base(key), &buf)
	if err != nil {
		return "", fmt.Errorf("stage input %s: %w", ref, err)
	}
	return path, nil
}

// keyValueList collects repeated key=value flags.
type keyValueList []string

func (l *keyValueList) String() string { return strings.Join(*l, ",") }

func (l *keyValueList) Set(v string) error {
	if !strings.Contains(v, "=") {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	*l = append(*l, v)
	return nil
}

// Map parses the collected pairs. Values stay strings; schema validation
// canonicalizes them downstream.
func (l keyValueList) Map() map[string]any {
	if len(l) == 0 {
		return nil
	}
	m := make(map[string]any, len(l))
	for _, kv := range l {
		parts := strings.SplitN(kv, "=", 2)
		m[parts[0]] = parts[1]
	}
	return m
}
