package configloader_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenwicklabs/orchestrator/internal/configloader"
	"github.com/fenwicklabs/orchestrator/internal/connector"
	"github.com/fenwicklabs/orchestrator/internal/orcerr"
)

var testBundle = configloader.Bundle{
	{Namespace: "tests.secret", Default: "unset", Public: false, Description: "private test value"},
	{Namespace: "tests.knob", Default: 3, Public: true, Description: "public test knob"},
}

func newLoader(t *testing.T) *configloader.Persistent {
	t.Helper()
	return configloader.NewPersistent(connector.NewMemory())
}

func TestInitConfigWritesDefaults(t *testing.T) {
	loader := newLoader(t)
	ctx := context.Background()

	require.NoError(t, loader.InitConfig(ctx, testBundle))

	val, err := loader.Get(ctx, testBundle[0])
	require.NoError(t, err)
	assert.Equal(t, "unset", val)

	val, err = loader.Get(ctx, testBundle[1])
	require.NoError(t, err)
	assert.Equal(t, 3, val)
}

func TestInitConfigDoesNotOverwriteExisting(t *testing.T) {
	loader := newLoader(t)
	ctx := context.Background()

	require.NoError(t, loader.Set(ctx, testBundle[1], 99))
	require.NoError(t, loader.InitConfig(ctx, testBundle))

	val, err := loader.Get(ctx, testBundle[1])
	require.NoError(t, err)
	assert.Equal(t, 99, val)
}

func TestGetLazilyInitializesFromDefault(t *testing.T) {
	loader := newLoader(t)
	ctx := context.Background()

	initialized, err := loader.IsInitialized(ctx, testBundle[0])
	require.NoError(t, err)
	assert.False(t, initialized)

	val, err := loader.Get(ctx, testBundle[0])
	require.NoError(t, err)
	assert.Equal(t, "unset", val)

	initialized, err = loader.IsInitialized(ctx, testBundle[0])
	require.NoError(t, err)
	assert.True(t, initialized)
}

func TestInvalidKeyRejected(t *testing.T) {
	loader := newLoader(t)
	ctx := context.Background()

	var zero configloader.Key
	_, err := loader.Get(ctx, zero)
	assert.ErrorIs(t, err, orcerr.ErrNotAValidConfig)
}

func TestMakePublicAndListPublic(t *testing.T) {
	loader := newLoader(t)
	ctx := context.Background()
	require.NoError(t, loader.InitConfig(ctx, testBundle))

	public, err := loader.ListPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tests.knob": "public test knob"}, public)

	ok, err := loader.UnmakePublic(ctx, testBundle[1])
	require.NoError(t, err)
	assert.True(t, ok)

	public, err = loader.ListPublic(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)
}

func TestSetPublicRejectsPrivateNamespace(t *testing.T) {
	loader := newLoader(t)
	ctx := context.Background()
	require.NoError(t, loader.InitConfig(ctx, testBundle))

	err := loader.SetPublic(ctx, "tests.secret", "hacked")
	assert.ErrorIs(t, err, orcerr.ErrNotPermitted)
}

func TestSetPublicRoundTrip(t *testing.T) {
	loader := newLoader(t)
	ctx := context.Background()
	require.NoError(t, loader.InitConfig(ctx, testBundle))

	require.NoError(t, loader.SetPublic(ctx, "tests.knob", 42))

	val, err := loader.GetPublic(ctx, "tests.knob")
	require.NoError(t, err)
	assert.Equal(t, 42, val)
}
