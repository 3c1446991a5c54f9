package persistent

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"content-engine/pkg/logger"
	"content-engine/pkg/storage"

	"github.com/google/uuid"
)

const (
	postsCollection       = "posts"
	derivativesCollection = "derivatives"
	pillarsCollection     = "pillars"
)

// collection serializes load-modify-save cycles on one stored collection.
// The mutex only covers this process; writers in other processes still race
// and the last full-collection save wins.
type collection[T any] struct {
	mu     sync.Mutex
	name   string
	tier   *storage.Tier
	logger *logger.Logger
	encode func(*T) (storage.Record, error)
	decode func(storage.Record) (*T, error)
}

func (c *collection[T]) loadAll(ctx context.Context) []*T {
	records := c.tier.Load(ctx, c.name)
	items := make([]*T, 0, len(records))
	for _, r := range records {
		item, err := c.decode(r)
		if err != nil {
			c.logger.Warn("[REPO] skipping unreadable %s record %s: %v", c.name, r.ID, err)
			continue
		}
		items = append(items, item)
	}
	return items
}

func (c *collection[T]) saveAll(ctx context.Context, items []*T) error {
	records := make([]storage.Record, 0, len(items))
	for _, item := range items {
		r, err := c.encode(item)
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	c.tier.Save(ctx, c.name, records)
	return nil
}

func (c *collection[T]) get(ctx context.Context, id string) (*T, bool) {
	r, found := c.tier.LoadRecord(ctx, c.name, id)
	if !found {
		return nil, false
	}
	item, err := c.decode(r)
	if err != nil {
		c.logger.Warn("[REPO] unreadable %s record %s: %v", c.name, id, err)
		return nil, false
	}
	return item, true
}

func newID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func sortNewestFirst[T any](items []*T, createdAt func(*T) time.Time, id func(*T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := createdAt(items[i]), createdAt(items[j])
		if !a.Equal(b) {
			return a.After(b)
		}
		return id(items[i]) < id(items[j])
	})
}
