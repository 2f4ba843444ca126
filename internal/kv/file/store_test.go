package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/kbase/internal/kv"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Get(ctx, "knowledge_base")
	require.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Set(ctx, "knowledge_base", []byte(`{"App":[]}`)))
	got, err := s.Get(ctx, "knowledge_base")
	require.NoError(t, err)
	assert.Equal(t, `{"App":[]}`, string(got))

	require.NoError(t, s.Set(ctx, "knowledge_base", []byte(`{}`)))
	got, err = s.Get(ctx, "knowledge_base")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))

	require.NoError(t, s.Delete(ctx, "knowledge_base"))
	_, err = s.Get(ctx, "knowledge_base")
	require.ErrorIs(t, err, kv.ErrNotFound)
	require.NoError(t, s.Delete(ctx, "knowledge_base"))
}

func TestStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Set(ctx, "kbase:catalog", []byte("payload")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kbase_catalog.json", entries[0].Name())
}

func TestStoreRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "   ", "../escape", "a/../../b"} {
		assert.Error(t, s.Set(ctx, key, []byte("x")), "key %q", key)
		_, err := s.Get(ctx, key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestStorePing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, s.Ping(context.Background()))
}
