package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"content-engine/pkg/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormBackend_SaveLoadReplace(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)

	backend := NewGormBackend(db)
	require.NoError(t, backend.AutoMigrate())

	_, ok, err := backend.Load(ctx, "posts")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Save(ctx, "posts", []Record{rec("post_1", `{"v":1}`), rec("post_2", `{"v":2}`)}))
	require.NoError(t, backend.Save(ctx, "derivatives", []Record{rec("deriv_1", `{}`)}))

	records, ok, err := backend.Load(ctx, "posts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"post_1", "post_2"}, ids(records))

	require.NoError(t, backend.Save(ctx, "posts", []Record{rec("post_2", `{"v":3}`)}))
	records, _, err = backend.Load(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, []string{"post_2"}, ids(records))

	r, found, err := backend.LoadRecord(ctx, "posts", "post_2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"v":3}`, string(r.Data))

	_, found, err = backend.LoadRecord(ctx, "posts", "post_1")
	require.NoError(t, err)
	assert.False(t, found)

	holds, err := backend.HasCollection(ctx, "posts")
	require.NoError(t, err)
	assert.True(t, holds)
	holds, err = backend.HasCollection(ctx, "pillars")
	require.NoError(t, err)
	assert.False(t, holds)

	others, _, err := backend.Load(ctx, "derivatives")
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestRedisBackend_SaveLoad(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	backend := NewRedisBackend(client, time.Hour)

	_, ok, err := backend.Load(ctx, "posts")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Save(ctx, "posts", []Record{rec("post_1", `{"title":"a"}`)}))
	assert.True(t, mr.Exists("content:posts"))
	assert.True(t, mr.TTL("content:posts") > 0)

	records, ok, err := backend.Load(ctx, "posts")
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"title":"a"}`, string(records[0].Data))
}

func TestRedisBackend_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	backend := NewRedisBackend(client, 0)
	_, _, err := backend.Load(context.Background(), "posts")
	assert.Error(t, err)
	assert.Error(t, backend.Save(context.Background(), "posts", nil))
}

func TestFileBackend_SaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "store")
	backend := NewFileBackend(dir)

	_, ok, err := backend.Load(ctx, "posts")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Save(ctx, "posts", []Record{rec("post_1", `{}`)}))
	_, err = os.Stat(filepath.Join(dir, "posts.json"))
	require.NoError(t, err)

	records, ok, err := backend.Load(ctx, "posts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"post_1"}, ids(records))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileBackend_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json"), []byte("{not json"), 0o644))

	_, _, err := NewFileBackend(dir).Load(context.Background(), "posts")
	assert.Error(t, err)
}
