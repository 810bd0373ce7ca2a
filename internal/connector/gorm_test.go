package connector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGorm(t *testing.T) *Gorm {
	t.Helper()
	g, err := NewGorm("sqlite", ":memory:")
	require.NoError(t, err)
	return g
}

func TestGormSetGetRoundTrip(t *testing.T) {
	g := newTestGorm(t)
	ctx := context.Background()

	require.NoError(t, g.Set(ctx, "key", []byte("value"), 0))

	got, err := g.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestGormGetMissingReturnsNil(t *testing.T) {
	g := newTestGorm(t)
	ctx := context.Background()

	got, err := g.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormSetOverwrites(t *testing.T) {
	g := newTestGorm(t)
	ctx := context.Background()

	require.NoError(t, g.Set(ctx, "key", []byte("first"), 0))
	require.NoError(t, g.Set(ctx, "key", []byte("second"), 0))

	got, err := g.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestGormExpiry(t *testing.T) {
	g := newTestGorm(t)
	ctx := context.Background()

	require.NoError(t, g.Set(ctx, "short-lived", []byte("gone soon"), 1))
	time.Sleep(1100 * time.Millisecond)

	got, err := g.Get(ctx, "short-lived")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormDelete(t *testing.T) {
	g := newTestGorm(t)
	ctx := context.Background()

	require.NoError(t, g.Set(ctx, "key", []byte("value"), 0))

	n, err := g.Delete(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = g.Delete(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := g.Get(ctx, "key")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGormKeysGlob(t *testing.T) {
	g := newTestGorm(t)
	ctx := context.Background()

	for _, key := range []string{"tasker.tasks.a", "tasker.tasks.b", "config.other"} {
		require.NoError(t, g.Set(ctx, key, []byte("v"), 0))
	}

	keys, err := g.Keys(ctx, "tasker.tasks.*")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestGormUnknownDriverRejected(t *testing.T) {
	_, err := NewGorm("oracle", "")
	assert.Error(t, err)
}

func TestGormGracefulShutdown(t *testing.T) {
	g := newTestGorm(t)
	assert.NoError(t, g.GracefulShutdown(context.Background()))
}
