package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.crossdoc.dev/xschema/cache"
)

func TestOpen_CreatesDirAndStartsEmpty(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "cache")

	store, err := cache.Open(dir)
	require.NoError(t, err)
	assert.Empty(t, store.Entries())

	_, statErr := os.Stat(dir)
	require.NoError(t, statErr)
}

func TestStore_PutAndFlushPersistsAcrossOpens(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	store, err := cache.Open(dir)
	require.NoError(t, err)

	store.Put(cache.Entry{SchemaID: "S1", Name: "pk", Elems: []string{"sX"}, Origin: "provider", SourceURL: "https://example.com/X"})
	require.NoError(t, store.Flush())

	reopened, err := cache.Open(dir)
	require.NoError(t, err)

	entries := reopened.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "S1", entries[0].SchemaID)
	assert.Equal(t, "pk", entries[0].Name)
	assert.Equal(t, []string{"sX"}, entries[0].Elems)
}

func TestStore_FlushWithoutPutIsNoOp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	store, err := cache.Open(dir)
	require.NoError(t, err)

	// No Put call: Flush should be a cheap no-op, not write an empty file
	// that would shadow a cache populated by a previous run.
	require.NoError(t, store.Flush())

	reopened, err := cache.Open(dir)
	require.NoError(t, err)
	assert.Empty(t, reopened.Entries())
}

func TestStore_InvalidateDiscardsEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	store, err := cache.Open(dir)
	require.NoError(t, err)

	store.Put(cache.Entry{SchemaID: "S1", Elems: []string{"sX"}, Origin: "provider"})
	store.Invalidate()

	assert.Empty(t, store.Entries())
}

func TestStore_InvalidateThenFlushOverwritesOnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	store, err := cache.Open(dir)
	require.NoError(t, err)
	store.Put(cache.Entry{SchemaID: "S1", Elems: []string{"sX"}, Origin: "provider"})
	require.NoError(t, store.Flush())

	store.Invalidate()
	require.NoError(t, store.Flush())

	reopened, err := cache.Open(dir)
	require.NoError(t, err)
	assert.Empty(t, reopened.Entries())
}

func TestStore_EntriesReturnsASnapshotCopy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	store, err := cache.Open(dir)
	require.NoError(t, err)
	store.Put(cache.Entry{SchemaID: "S1", Elems: []string{"sX"}})

	snapshot := store.Entries()
	snapshot[0].SchemaID = "mutated"

	assert.Equal(t, "S1", store.Entries()[0].SchemaID, "mutating a returned snapshot must not affect the store")
}
