package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BioStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBioStore(db)
}

func TestBioAddListDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Add(ctx, "prefers window seats on flights")
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := store.Add(ctx, "allergic to peanuts")
	require.NoError(t, err)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.Content, entries[0].Content)
	assert.Equal(t, second.Content, entries[1].Content)

	require.NoError(t, store.Delete(ctx, first.ID))
	entries, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, second.ID, entries[0].ID)
}

func TestBioAddRejectsEmpty(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Add(context.Background(), "   ")
	assert.Error(t, err)
}

func TestBioDeleteMissing(t *testing.T) {
	store := newTestStore(t)
	err := store.Delete(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBioSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Add(ctx, "prefers window seats on long flights")
	require.NoError(t, err)
	_, err = store.Add(ctx, "favorite coffee order is a flat white")
	require.NoError(t, err)
	_, err = store.Add(ctx, "books flights through the corporate portal")
	require.NoError(t, err)

	hits, err := store.Search(ctx, "window seat on a flight", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	// The entry sharing the most tokens ranks first.
	assert.Contains(t, hits[0].Content, "window seats")

	hits, err = store.Search(ctx, "quantum chromodynamics", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.Search(ctx, "flights", 1)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bio.db")
	db, err := Open(path)
	require.NoError(t, err)
	store := NewBioStore(db)
	_, err = store.Add(context.Background(), "something")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening applies no duplicate migrations and keeps the data.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	entries, err := NewBioStore(db).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
