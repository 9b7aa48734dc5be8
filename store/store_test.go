package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "navmesh.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	blob := []byte{'M', 'S', 'E', 'T', 1, 2, 3}
	id, err := s.Save(ctx, "level1", KindTiled, 9, blob)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	rec, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "level1", rec.Name)
	assert.Equal(t, KindTiled, rec.Kind)
	assert.EqualValues(t, 9, rec.TileCount)
	assert.Equal(t, blob, rec.Data)
	assert.False(t, rec.CreatedAt.IsZero())

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	a, err := s.Save(ctx, "a", KindSolo, 1, []byte{1})
	require.NoError(t, err)
	b, err := s.Save(ctx, "b", KindTileCache, 4, []byte{2, 2})
	require.NoError(t, err)

	records, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	ids := []uuid.UUID{records[0].ID, records[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{a, b}, ids)
	for _, rec := range records {
		assert.Nil(t, rec.Data, "list leaves data out")
	}
}

func TestSaveRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.Save(ctx, "x", Kind("voxel"), 1, []byte{1})
	assert.ErrorContains(t, err, "unknown kind")
	_, err = s.Save(ctx, "x", KindSolo, 1, nil)
	assert.ErrorContains(t, err, "empty data")
}

func TestReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "navmesh.db")

	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Save(ctx, "persist", KindSolo, 1, []byte{7})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, rec.Data)
}
