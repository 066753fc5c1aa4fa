package storage_test

import (
	"context"
	"os"
	"testing"

	"github.com/quantpit/pitboss/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *storage.LocalFS {
	t.Helper()
	backend, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	return backend
}

func TestPutGet_RoundTrip(t *testing.T) {
	backend := newLocal(t)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "reports/2026-08-24/manual.json", []byte(`{"ok":true}`)))

	data, err := backend.Get(ctx, "reports/2026-08-24/manual.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestPut_OverwritesExisting(t *testing.T) {
	backend := newLocal(t)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "k", []byte("one")))
	require.NoError(t, backend.Put(ctx, "k", []byte("two")))

	data, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestGet_MissingKeyFails(t *testing.T) {
	backend := newLocal(t)

	_, err := backend.Get(context.Background(), "nope")
	assert.True(t, os.IsNotExist(err))
}

func TestList_SortedAndScopedToPrefix(t *testing.T) {
	backend := newLocal(t)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "reports/2026-08-24/market_close.json", []byte("b")))
	require.NoError(t, backend.Put(ctx, "reports/2026-08-23/market_close.json", []byte("a")))
	require.NoError(t, backend.Put(ctx, "other/file.json", []byte("c")))

	keys, err := backend.List(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"reports/2026-08-23/market_close.json",
		"reports/2026-08-24/market_close.json",
	}, keys)
}

func TestList_MissingPrefixIsEmpty(t *testing.T) {
	backend := newLocal(t)

	keys, err := backend.List(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestExists_AndDelete(t *testing.T) {
	backend := newLocal(t)
	ctx := context.Background()

	ok, err := backend.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Put(ctx, "k", []byte("v")))

	ok, err = backend.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, backend.Delete(ctx, "k"))

	ok, err = backend.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
