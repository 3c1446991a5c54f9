package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each collection as one JSON array under prefix+collection.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisBackend uses the "content:" key prefix. ttl of zero keeps keys forever.
func NewRedisBackend(client *redis.Client, ttl time.Duration) *RedisBackend {
	return &RedisBackend{client: client, prefix: "content:", ttl: ttl}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) key(collection string) string {
	return b.prefix + collection
}

func (b *RedisBackend) Load(ctx context.Context, collection string) ([]Record, bool, error) {
	raw, err := b.client.Get(ctx, b.key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", b.key(collection), err)
	}
	return records, len(records) > 0, nil
}

func (b *RedisBackend) Save(ctx context.Context, collection string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return b.client.Set(ctx, b.key(collection), raw, b.ttl).Err()
}
