package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"content-engine/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	name    string
	data    map[string][]Record
	loadErr error
	saveErr error
	saves   int
}

func newFakeBackend(name string) *fakeBackend {
	return &fakeBackend{name: name, data: make(map[string][]Record)}
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Load(_ context.Context, collection string) ([]Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	records, ok := f.data[collection]
	return append([]Record(nil), records...), ok && len(records) > 0, nil
}

func (f *fakeBackend) Save(_ context.Context, collection string, records []Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.data[collection] = append([]Record(nil), records...)
	return nil
}

// indexedBackend answers point lookups itself, like the database backend.
type indexedBackend struct {
	*fakeBackend
	lookups int
}

func (f *indexedBackend) LoadRecord(_ context.Context, collection, id string) (Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.loadErr != nil {
		return Record{}, false, f.loadErr
	}
	for _, r := range f.data[collection] {
		if r.ID == id {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

func (f *indexedBackend) HasCollection(_ context.Context, collection string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return false, f.loadErr
	}
	return len(f.data[collection]) > 0, nil
}

func rec(id, payload string) Record {
	return Record{ID: id, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Data: json.RawMessage(payload)}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	sort.Strings(out)
	return out
}

func TestTier_LoadFirstNonEmptyBackendWins(t *testing.T) {
	db := newFakeBackend("database")
	cache := newFakeBackend("redis")
	cache.data["posts"] = []Record{rec("post_cache", `{}`)}
	db.data["posts"] = []Record{rec("post_db", `{}`)}

	tier := NewTier(logger.NewNop(), db, cache)
	assert.Equal(t, []string{"post_db"}, ids(tier.Load(context.Background(), "posts")))
}

func TestTier_LoadSkipsFailingAndEmptyBackends(t *testing.T) {
	db := newFakeBackend("database")
	db.loadErr = errors.New("connection refused")
	cache := newFakeBackend("redis")
	file := newFakeBackend("file")
	file.data["posts"] = []Record{rec("post_file", `{}`)}

	tier := NewTier(logger.NewNop(), db, cache, file)
	assert.Equal(t, []string{"post_file"}, ids(tier.Load(context.Background(), "posts")))
}

func TestTier_SaveStopsAtFirstSuccess(t *testing.T) {
	db := newFakeBackend("database")
	db.saveErr = errors.New("down")
	cache := newFakeBackend("redis")
	file := newFakeBackend("file")

	tier := NewTier(logger.NewNop(), db, cache, file)
	ok := tier.Save(context.Background(), "posts", []Record{rec("post_1", `{}`)})

	assert.True(t, ok)
	assert.Equal(t, 1, db.saves)
	assert.Equal(t, 1, cache.saves)
	assert.Equal(t, 0, file.saves)
	assert.Len(t, cache.data["posts"], 1)
}

func TestTier_WeakDurability(t *testing.T) {
	ctx := context.Background()
	db := newFakeBackend("database")
	db.saveErr = errors.New("down")
	file := newFakeBackend("file")
	file.saveErr = errors.New("read-only filesystem")
	file.data["posts"] = []Record{rec("post_old", `{"v":1}`)}

	tier := NewTier(logger.NewNop(), db, file)
	ok := tier.Save(ctx, "posts", []Record{rec("post_old", `{"v":1}`), rec("post_new", `{"v":2}`)})
	assert.False(t, ok, "every durable tier failed")

	assert.Equal(t, []string{"post_new", "post_old"}, ids(tier.Load(ctx, "posts")))
	r, found := tier.LoadRecord(ctx, "posts", "post_new")
	assert.True(t, found)
	assert.JSONEq(t, `{"v":2}`, string(r.Data))

	fresh := NewTier(logger.NewNop(), db, file)
	assert.Equal(t, []string{"post_old"}, ids(fresh.Load(ctx, "posts")))
	_, found = fresh.LoadRecord(ctx, "posts", "post_new")
	assert.False(t, found)
}

func TestTier_OverlayTakesPrecedence(t *testing.T) {
	ctx := context.Background()
	db := newFakeBackend("database")
	tier := NewTier(logger.NewNop(), db)

	require.True(t, tier.Save(ctx, "posts", []Record{rec("post_1", `{"title":"mine"}`)}))
	db.data["posts"] = []Record{rec("post_1", `{"title":"theirs"}`), rec("post_2", `{}`)}

	loaded := tier.Load(ctx, "posts")
	require.Len(t, loaded, 2)
	for _, r := range loaded {
		if r.ID == "post_1" {
			assert.JSONEq(t, `{"title":"mine"}`, string(r.Data))
		}
	}
}

func TestTier_DeletedRecordsStayHidden(t *testing.T) {
	ctx := context.Background()
	db := newFakeBackend("database")
	db.data["posts"] = []Record{rec("post_1", `{}`), rec("post_2", `{}`)}
	tier := NewTier(logger.NewNop(), db)

	loaded := tier.Load(ctx, "posts")
	require.Len(t, loaded, 2)

	db.saveErr = errors.New("down")
	tier.Save(ctx, "posts", []Record{rec("post_2", `{}`)})

	assert.Equal(t, []string{"post_2"}, ids(tier.Load(ctx, "posts")))
	_, found := tier.LoadRecord(ctx, "posts", "post_1")
	assert.False(t, found)
}

func TestTier_LoadRecordLinearScanFallback(t *testing.T) {
	file := newFakeBackend("file")
	file.data["derivatives"] = []Record{rec("deriv_a", `{}`), rec("deriv_b", `{"x":1}`)}
	tier := NewTier(logger.NewNop(), file)

	r, found := tier.LoadRecord(context.Background(), "derivatives", "deriv_b")
	assert.True(t, found)
	assert.JSONEq(t, `{"x":1}`, string(r.Data))

	_, found = tier.LoadRecord(context.Background(), "derivatives", "deriv_zzz")
	assert.False(t, found)
}

func TestTier_LoadRecordAgreesWithLoad(t *testing.T) {
	ctx := context.Background()
	db := &indexedBackend{fakeBackend: newFakeBackend("database")}
	db.data["posts"] = []Record{rec("post_a", `{}`)}
	redis := newFakeBackend("redis")
	redis.data["posts"] = []Record{rec("post_a", `{}`), rec("post_deleted", `{}`)}
	tier := NewTier(logger.NewNop(), db, redis)

	assert.Equal(t, []string{"post_a"}, ids(tier.Load(ctx, "posts")))

	_, found := tier.LoadRecord(ctx, "posts", "post_deleted")
	assert.False(t, found)

	r, found := tier.LoadRecord(ctx, "posts", "post_a")
	assert.True(t, found)
	assert.Equal(t, "post_a", r.ID)
	assert.Equal(t, 2, db.lookups)
}

func TestTier_LoadRecordFallsThroughEmptyOrFailingIndex(t *testing.T) {
	ctx := context.Background()
	db := &indexedBackend{fakeBackend: newFakeBackend("database")}
	redis := newFakeBackend("redis")
	redis.data["posts"] = []Record{rec("post_b", `{"v":2}`)}
	tier := NewTier(logger.NewNop(), db, redis)

	r, found := tier.LoadRecord(ctx, "posts", "post_b")
	require.True(t, found)
	assert.JSONEq(t, `{"v":2}`, string(r.Data))

	db.data["posts"] = []Record{rec("post_c", `{}`)}
	db.loadErr = errors.New("connection refused")
	_, found = tier.LoadRecord(ctx, "posts", "post_b")
	assert.True(t, found)
}

func TestTier_NoBackends(t *testing.T) {
	ctx := context.Background()
	tier := NewTier(logger.NewNop())

	assert.Empty(t, tier.Load(ctx, "posts"))
	assert.False(t, tier.Save(ctx, "posts", []Record{rec("post_1", `{}`)}))
	assert.Len(t, tier.Load(ctx, "posts"), 1)
	assert.Empty(t, tier.Backends())
}
