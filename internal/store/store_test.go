package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "tokentools_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func TestSnippets_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sn, err := s.CreateSnippet(ctx, "sample", `{"a":1}`)
	require.NoError(t, err)
	assert.NotEmpty(t, sn.ID)

	got, err := s.GetSnippet(ctx, sn.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sample", got.Name)
	assert.Equal(t, `{"a":1}`, got.Input)

	list, err := s.ListSnippets(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteSnippet(ctx, sn.ID))
	got, err = s.GetSnippet(ctx, sn.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetSnippet_Missing(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetSnippet(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConversions_RecordListPrune(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordConversion(ctx, 10, 12, `{"minified-json":{"tokens":4}}`))
	require.NoError(t, s.RecordConversion(ctx, 3, 3, `{}`))

	list, err := s.ListConversions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 3, list[0].InputChars, "newest first")

	n, err := s.CountConversions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Nothing is older than an hour ago.
	pruned, err := s.PruneConversions(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), pruned)

	// Everything is older than an hour from now.
	pruned, err = s.PruneConversions(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.Migrate())
}
