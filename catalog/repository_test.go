package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (Repository, context.Context) {
	t.Helper()
	ctx := context.Background()
	db, err := NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(ctx) })
	require.NoError(t, db.Init(ctx))
	return NewRepository(db), ctx
}

func sampleRow(digest string) *Row {
	return &Row{
		Digest:      digest,
		Name:        "kitchen.jpg",
		Size:        2048,
		EntityType:  "property",
		EntityId:    "prop_42",
		UploadedKey: "uploads/abc",
	}
}

func TestCatalogAddAndGet(t *testing.T) {
	repo, ctx := newTestRepo(t)

	err := repo.Add(ctx, sampleRow("d1"))
	require.NoError(t, err)

	row, err := repo.GetByDigest(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "kitchen.jpg", row.Name)
	assert.Equal(t, int64(2048), row.Size)
	assert.Equal(t, "property", row.EntityType)
	assert.Equal(t, "prop_42", row.EntityId)
	assert.Equal(t, "uploads/abc", row.UploadedKey)
	assert.WithinDuration(t, time.Now(), row.CreatedAt, 5*time.Second)
}

func TestCatalogGetMissingDigest(t *testing.T) {
	repo, ctx := newTestRepo(t)

	_, err := repo.GetByDigest(ctx, "no-such-digest")
	assert.ErrorIs(t, err, ErrDoesNotExist)
}

func TestCatalogAddUpsertsOnDigestConflict(t *testing.T) {
	repo, ctx := newTestRepo(t)

	require.NoError(t, repo.Add(ctx, sampleRow("d1")))

	updated := sampleRow("d1")
	updated.Name = "kitchen-renamed.jpg"
	updated.UploadedKey = "uploads/def"
	require.NoError(t, repo.Add(ctx, updated))

	row, err := repo.GetByDigest(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "kitchen-renamed.jpg", row.Name)
	assert.Equal(t, "uploads/def", row.UploadedKey)

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCatalogHas(t *testing.T) {
	repo, ctx := newTestRepo(t)

	has, err := repo.Has(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.Add(ctx, sampleRow("d1")))
	has, err = repo.Has(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCatalogKnownDigests(t *testing.T) {
	repo, ctx := newTestRepo(t)

	digests, err := repo.KnownDigests(ctx)
	require.NoError(t, err)
	assert.Empty(t, digests)

	require.NoError(t, repo.Add(ctx, sampleRow("d1")))
	require.NoError(t, repo.Add(ctx, sampleRow("d2")))

	digests, err = repo.KnownDigests(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"d1": true, "d2": true}, digests)
}

func TestCatalogRemove(t *testing.T) {
	repo, ctx := newTestRepo(t)

	require.NoError(t, repo.Add(ctx, sampleRow("d1")))
	require.NoError(t, repo.Remove(ctx, "d1"))

	has, err := repo.Has(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, has)

	assert.ErrorIs(t, repo.Remove(ctx, "d1"), ErrDoesNotExist)
}
