package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"shareanything/db"
	"shareanything/models"
	"shareanything/store"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time assertion that Namespace can back a posts collection.
var _ store.Storage = (*db.Namespace)(nil)

func openDB(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, db.Migrate(path))

	database, err := db.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	ns := openDB(t).Namespace("share-anything")
	now := time.Date(2024, 5, 17, 12, 30, 0, 0, time.UTC)

	posts, err := ns.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	a := models.NewPost(map[string]string{"title": "a"}, now)
	b := models.NewPost(map[string]string{"title": "b", "mood": "happy"}, now)
	c := models.NewPost(map[string]string{"title": "c"}, now)
	for _, post := range []models.Post{a, b, c} {
		require.NoError(t, ns.Put(ctx, post))
	}

	posts, err = ns.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lo.Map(posts, func(p models.Post, _ int) string { return p.Title }))
	assert.Equal(t, "happy", posts[1].Extra["mood"])
	assert.True(t, now.Equal(posts[0].Date))

	// Rewriting a record keeps its position
	a.Body = "changed"
	require.NoError(t, ns.Put(ctx, a))
	posts, err = ns.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, a.Id, posts[0].Id)
	assert.Equal(t, "changed", posts[0].Body)

	require.NoError(t, ns.Delete(ctx, b.Id))
	count, err := ns.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Missing records are not an error
	assert.NoError(t, ns.Delete(ctx, b.Id))
}

func TestNamespacesAreSeparate(t *testing.T) {
	ctx := context.Background()
	database := openDB(t)
	first := database.Namespace("first")
	second := database.Namespace("second")

	post := models.NewPost(nil, time.Now())
	require.NoError(t, first.Put(ctx, post))

	posts, err := second.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)

	require.NoError(t, second.Delete(ctx, post.Id))
	count, err := first.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollectionOnNamespace(t *testing.T) {
	ctx := context.Background()
	database := openDB(t)
	posts := store.New(database.Namespace("share-anything"))

	created, err := posts.Create(ctx, map[string]string{"title": "Hi", "body": "World"})
	require.NoError(t, err)

	// A fresh collection sees what the first one persisted
	reloaded := store.New(database.Namespace("share-anything"))
	require.NoError(t, reloaded.Fetch(ctx))
	require.Equal(t, 1, reloaded.Len())
	got, ok := reloaded.Get(created.Id)
	require.True(t, ok)
	assert.Equal(t, "No author", got.Author)

	require.NoError(t, reloaded.Destroy(ctx, created.Id))
	count, err := database.Namespace("share-anything").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, db.Migrate(path))
	require.NoError(t, db.Migrate(path))
	require.NoError(t, db.Rollback(path))
	require.NoError(t, db.Migrate(path))
}

func TestOpenMissingDirectory(t *testing.T) {
	_, err := db.Open(filepath.Join(t.TempDir(), "missing", "test.db"))
	assert.Error(t, err)
}
