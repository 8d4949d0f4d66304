// Package credentials loads provider secrets from the process environment
// once at startup and exposes a read-only lookup keyed by provider
// identifier. A provider with missing secrets fails at startup, not per
// call. The store is never mutated after Load, so concurrent readers need
// no locking.
package credentials

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"

	"github.com/tryonlabs/tryonkit/internal/provider"
)

// Credential holds the secret material for one provider. Static-key
// providers use APIKey; signed-token providers use AccessID and SecretKey.
type Credential struct {
	APIKey    string
	AccessID  string
	SecretKey string
}

// isComplete reports whether the credential carries usable material.
func (c Credential) isComplete() bool {
	if c.APIKey != "" {
		return true
	}
	return c.AccessID != "" && c.SecretKey != ""
}

// env mirrors the environment variables the original deployment used.
type env struct {
	FashnAPIKey       string `env:"FASHNAI_API_KEY"`
	KlingAccessID     string `env:"KLINGAI_ACCESS_ID"`
	KlingSecretKey    string `env:"KLINGAI_API_KEY"`
	ReplicateAPIToken string `env:"REPLICATE_API_TOKEN"`
	VModelAPIKey      string `env:"VMODEL_API_KEY"`
}

// Store is the process-wide credential resolver.
type Store struct {
	byProvider map[provider.ID]Credential
}

// Load reads provider secrets from the environment.
func Load(ctx context.Context) (*Store, error) {
	var e env
	if err := envconfig.Process(ctx, &e); err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}

	kling := Credential{AccessID: e.KlingAccessID, SecretKey: e.KlingSecretKey}
	return &Store{
		byProvider: map[provider.ID]Credential{
			provider.IDFashn:      {APIKey: e.FashnAPIKey},
			provider.IDKolors:     kling,
			provider.IDKlingVideo: kling,
			provider.IDReplicate:  {APIKey: e.ReplicateAPIToken},
			provider.IDVModel:     {APIKey: e.VModelAPIKey},
		},
	}, nil
}

// Lookup returns the credential for a provider.
func (s *Store) Lookup(id provider.ID) (Credential, error) {
	c, ok := s.byProvider[id]
	if !ok || !c.isComplete() {
		return Credential{}, &provider.AuthError{Provider: id, Message: "no credential configured"}
	}
	return c, nil
}

// Configured reports whether a provider has a complete credential.
func (s *Store) Configured(id provider.ID) bool {
	c, ok := s.byProvider[id]
	return ok && c.isComplete()
}

// Validate fails fast when any of the given providers is missing required
// secrets. Call it at startup with the providers the deployment enables.
func (s *Store) Validate(ids ...provider.ID) error {
	for _, id := range ids {
		if !s.Configured(id) {
			return &provider.AuthError{Provider: id, Message: "missing required secrets"}
		}
	}
	return nil
}
