// Package bootstrap provides dependency initialization for the try-on runtime.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tryonlabs/tryonkit/internal/auth"
	"github.com/tryonlabs/tryonkit/internal/batch"
	"github.com/tryonlabs/tryonkit/internal/config"
	"github.com/tryonlabs/tryonkit/internal/credentials"
	"github.com/tryonlabs/tryonkit/internal/fashn"
	"github.com/tryonlabs/tryonkit/internal/job"
	"github.com/tryonlabs/tryonkit/internal/klingvideo"
	"github.com/tryonlabs/tryonkit/internal/kolors"
	"github.com/tryonlabs/tryonkit/internal/materialize"
	"github.com/tryonlabs/tryonkit/internal/provider"
	"github.com/tryonlabs/tryonkit/internal/replicate"
	"github.com/tryonlabs/tryonkit/internal/storage"
	"github.com/tryonlabs/tryonkit/internal/tryon"
	"github.com/tryonlabs/tryonkit/internal/vmodel"
)

// Public model identifiers, as accepted by tryon.Request.Model.
const (
	ModelFashn      = "fashnai"
	ModelKolors     = "klingai"
	ModelReplicate  = "replicate"
	ModelVModel     = "vmodel"
	ModelKlingVideo = "klingai-video"
)

// Dependencies holds the wired runtime for the batch CLI and embedders.
type Dependencies struct {
	Service *tryon.Service
	Runner  *batch.Runner
	Store   storage.Storage
}

// NewDependencies builds the registry from whatever providers have
// credentials configured, then wires the service and the batch runner.
// At least one provider must be configured; REQUIRE_PROVIDERS makes a
// missing secret fatal instead of skipping the provider.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	creds, err := credentials.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if len(cfg.RequireProviders) > 0 {
		ids := make([]provider.ID, len(cfg.RequireProviders))
		for i, id := range cfg.RequireProviders {
			ids[i] = provider.ID(id)
		}
		if err := creds.Validate(ids...); err != nil {
			return nil, fmt.Errorf("required provider: %w", err)
		}
	}

	registry, err := buildRegistry(creds, logger)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	executor := job.NewExecutor(logger)
	mat := materialize.New(store, logger)
	svc := tryon.NewService(registry, executor, mat, logger)
	runner := batch.NewRunner(svc, logger, batch.WithWorkers(cfg.Workers))

	return &Dependencies{Service: svc, Runner: runner, Store: store}, nil
}

// buildRegistry registers an adapter for every provider whose secrets are
// present, skipping the rest so a partial deployment still works.
func buildRegistry(creds *credentials.Store, logger *slog.Logger) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	if c, err := creds.Lookup(provider.IDFashn); err == nil {
		client, cerr := fashn.NewClient(auth.NewStaticKey(c.APIKey))
		if cerr != nil {
			return nil, fmt.Errorf("create fashn client: %w", cerr)
		}
		registry.Register(ModelFashn, provider.Entry{
			Adapter: client,
			Schema:  fashn.Schema(),
			Policy:  provider.DefaultImagePolicy(),
		})
	}

	if c, err := creds.Lookup(provider.IDKolors); err == nil {
		signer := auth.NewTokenSigner(c.AccessID, c.SecretKey)

		client, cerr := kolors.NewClient(signer)
		if cerr != nil {
			return nil, fmt.Errorf("create kolors client: %w", cerr)
		}
		registry.Register(ModelKolors, provider.Entry{
			Adapter: client,
			Schema:  kolors.Schema(),
			Policy:  provider.DefaultImagePolicy(),
		})

		video, verr := klingvideo.NewClient(signer)
		if verr != nil {
			return nil, fmt.Errorf("create kling video client: %w", verr)
		}
		registry.Register(ModelKlingVideo, provider.Entry{
			Adapter: video,
			Schema:  klingvideo.Schema(),
			Policy:  provider.DefaultVideoPolicy(),
		})
	}

	if c, err := creds.Lookup(provider.IDReplicate); err == nil {
		client, cerr := replicate.NewClient(auth.NewStaticKey(c.APIKey))
		if cerr != nil {
			return nil, fmt.Errorf("create replicate client: %w", cerr)
		}
		registry.Register(ModelReplicate, provider.Entry{
			Adapter: client,
			Schema:  replicate.Schema(),
			Policy:  provider.DefaultImagePolicy(),
		})
	}

	if c, err := creds.Lookup(provider.IDVModel); err == nil {
		client, cerr := vmodel.NewClient(auth.NewRawKey(c.APIKey))
		if cerr != nil {
			return nil, fmt.Errorf("create vmodel client: %w", cerr)
		}
		registry.Register(ModelVModel, provider.Entry{
			Adapter: client,
			Schema:  vmodel.Schema(),
			Policy:  provider.DefaultImagePolicy(),
		})
	}

	models := registry.Models()
	if len(models) == 0 {
		return nil, fmt.Errorf("bootstrap: no provider credentials configured")
	}
	logger.Info("providers registered", slog.Any("models", models))

	return registry, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
