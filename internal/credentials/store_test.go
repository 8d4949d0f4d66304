package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tryonlabs/tryonkit/internal/provider"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FASHNAI_API_KEY", "KLINGAI_ACCESS_ID", "KLINGAI_API_KEY",
		"REPLICATE_API_TOKEN", "VMODEL_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_LookupConfigured(t *testing.T) {
	clearEnv(t)
	t.Setenv("FASHNAI_API_KEY", "fa-key")

	store, err := Load(context.Background())
	require.NoError(t, err)

	c, err := store.Lookup(provider.IDFashn)
	require.NoError(t, err)
	assert.Equal(t, "fa-key", c.APIKey)
}

func TestLoad_LookupMissing(t *testing.T) {
	clearEnv(t)

	store, err := Load(context.Background())
	require.NoError(t, err)

	_, err = store.Lookup(provider.IDReplicate)
	var authErr *provider.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, provider.IDReplicate, authErr.Provider)
}

func TestLoad_KlingCredentialIsShared(t *testing.T) {
	clearEnv(t)
	t.Setenv("KLINGAI_ACCESS_ID", "ak")
	t.Setenv("KLINGAI_API_KEY", "sk")

	store, err := Load(context.Background())
	require.NoError(t, err)

	for _, id := range []provider.ID{provider.IDKolors, provider.IDKlingVideo} {
		c, err := store.Lookup(id)
		require.NoError(t, err, "provider %s", id)
		assert.Equal(t, "ak", c.AccessID)
		assert.Equal(t, "sk", c.SecretKey)
	}
}

func TestLoad_KlingIncompletePair(t *testing.T) {
	clearEnv(t)
	t.Setenv("KLINGAI_ACCESS_ID", "ak") // secret missing

	store, err := Load(context.Background())
	require.NoError(t, err)

	assert.False(t, store.Configured(provider.IDKolors))
}

func TestValidate_FailsFast(t *testing.T) {
	clearEnv(t)
	t.Setenv("FASHNAI_API_KEY", "fa-key")

	store, err := Load(context.Background())
	require.NoError(t, err)

	assert.NoError(t, store.Validate(provider.IDFashn))
	assert.Error(t, store.Validate(provider.IDFashn, provider.IDVModel))
}
