package storage

import (
	"context"

	"content-engine/pkg/logger"
)

// Tier composes an ordered list of durable backends with a MemoryOverlay.
type Tier struct {
	backends []Backend
	overlay  *MemoryOverlay
	logger   *logger.Logger
}

// NewTier builds a tier. Backends are tried in the order given.
func NewTier(log *logger.Logger, backends ...Backend) *Tier {
	return &Tier{
		backends: backends,
		overlay:  NewMemoryOverlay(),
		logger:   log,
	}
}

// Backends returns the names of the configured durable backends in order.
func (t *Tier) Backends() []string {
	names := make([]string, len(t.backends))
	for i, b := range t.backends {
		names[i] = b.Name()
	}
	return names
}

// Load returns the collection from the first backend that has data for it,
// with the overlay applied on top. Backend errors are logged and skipped.
func (t *Tier) Load(ctx context.Context, collection string) []Record {
	var base []Record
	for _, b := range t.backends {
		records, ok, err := b.Load(ctx, collection)
		if err != nil {
			t.logger.Warn("[STORAGE] %s load %s failed: %v", b.Name(), collection, err)
			continue
		}
		if ok && len(records) > 0 {
			base = records
			break
		}
	}
	t.overlay.Observe(collection, base)
	return t.overlay.Apply(collection, base)
}

// LoadRecord fetches one record: overlay first, then the first backend that
// holds the collection, using an indexed lookup when the backend offers one.
// It never returns a record Load would not.
func (t *Tier) LoadRecord(ctx context.Context, collection, id string) (Record, bool) {
	if r, found, known := t.overlay.Lookup(collection, id); known {
		return r, found
	}

	for _, b := range t.backends {
		if lookup, ok := b.(RecordLookup); ok {
			r, found, err := lookup.LoadRecord(ctx, collection, id)
			if err != nil {
				t.logger.Warn("[STORAGE] %s lookup %s/%s failed: %v", b.Name(), collection, id, err)
				continue
			}
			if found {
				return r, true
			}
			// A miss only counts when this backend is the one Load would read.
			holds, err := lookup.HasCollection(ctx, collection)
			if err != nil {
				t.logger.Warn("[STORAGE] %s check %s failed: %v", b.Name(), collection, err)
				continue
			}
			if holds {
				return Record{}, false
			}
			continue
		}

		records, ok, err := b.Load(ctx, collection)
		if err != nil {
			t.logger.Warn("[STORAGE] %s load %s failed: %v", b.Name(), collection, err)
			continue
		}
		if !ok || len(records) == 0 {
			continue
		}
		for _, r := range records {
			if r.ID == id {
				return r, true
			}
		}
		return Record{}, false
	}
	return Record{}, false
}

// Save writes the overlay, then the first durable backend that accepts the
// collection. It returns false when no durable backend took the write.
func (t *Tier) Save(ctx context.Context, collection string, records []Record) bool {
	t.overlay.Put(collection, records)

	for _, b := range t.backends {
		if err := b.Save(ctx, collection, records); err != nil {
			t.logger.Warn("[STORAGE] %s save %s failed: %v", b.Name(), collection, err)
			continue
		}
		return true
	}

	t.logger.Warn("[STORAGE] persistence degraded: %s (%d records) held in memory only", collection, len(records))
	return false
}
