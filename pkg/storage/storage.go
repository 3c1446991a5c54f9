// Package storage cascades collection reads and writes across several
// backends of decreasing durability, with an in-process overlay on top.
//
// Durability contract: Save always lands in the in-process overlay, then in the
// first durable backend that accepts it. When every durable backend fails the
// write is still visible to later reads in this process but is lost on restart
// and invisible to other processes. Save reports that case by returning false.
package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one entity of a collection in its serialized form.
type Record struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

// Backend persists whole collections. Load reports ok=false when the backend
// holds nothing for the collection.
type Backend interface {
	Name() string
	Load(ctx context.Context, collection string) (records []Record, ok bool, err error)
	Save(ctx context.Context, collection string, records []Record) error
}

// RecordLookup is implemented by backends that can fetch one record by id
// without loading the collection. HasCollection must agree with Load's ok.
type RecordLookup interface {
	LoadRecord(ctx context.Context, collection, id string) (Record, bool, error)
	HasCollection(ctx context.Context, collection string) (bool, error)
}
