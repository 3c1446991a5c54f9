package storage

import "sync"

type overlayCollection struct {
	records    map[string]Record
	tombstones map[string]struct{}
	observed   map[string]struct{}
}

// MemoryOverlay holds the writes made during this process's lifetime.
// It is always written first and applied last on reads.
type MemoryOverlay struct {
	mu          sync.RWMutex
	collections map[string]*overlayCollection
}

func NewMemoryOverlay() *MemoryOverlay {
	return &MemoryOverlay{collections: make(map[string]*overlayCollection)}
}

func (o *MemoryOverlay) collection(name string) *overlayCollection {
	c, ok := o.collections[name]
	if !ok {
		c = &overlayCollection{
			records:    make(map[string]Record),
			tombstones: make(map[string]struct{}),
			observed:   make(map[string]struct{}),
		}
		o.collections[name] = c
	}
	return c
}

// Put stores the full collection. Ids this process has seen before that are
// missing from records become tombstones so durable copies stay hidden.
func (o *MemoryOverlay) Put(collection string, records []Record) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c := o.collection(collection)
	next := make(map[string]Record, len(records))
	for _, r := range records {
		next[r.ID] = r
		delete(c.tombstones, r.ID)
	}
	for id := range c.records {
		if _, ok := next[id]; !ok {
			c.tombstones[id] = struct{}{}
		}
	}
	for id := range c.observed {
		if _, ok := next[id]; !ok {
			c.tombstones[id] = struct{}{}
		}
	}
	c.records = next
	c.observed = make(map[string]struct{}, len(next))
	for id := range next {
		c.observed[id] = struct{}{}
	}
}

// Observe remembers ids returned by a durable read.
func (o *MemoryOverlay) Observe(collection string, records []Record) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c := o.collection(collection)
	for _, r := range records {
		c.observed[r.ID] = struct{}{}
	}
}

// Apply merges the overlay onto base. Overlay records win per id.
func (o *MemoryOverlay) Apply(collection string, base []Record) []Record {
	o.mu.RLock()
	defer o.mu.RUnlock()

	c, ok := o.collections[collection]
	if !ok {
		return base
	}

	out := make([]Record, 0, len(base)+len(c.records))
	seen := make(map[string]struct{}, len(base))
	for _, r := range base {
		if _, dead := c.tombstones[r.ID]; dead {
			continue
		}
		if own, ok := c.records[r.ID]; ok {
			r = own
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	for id, r := range c.records {
		if _, ok := seen[id]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// Lookup returns (record, found, known). known is true when the overlay has
// an answer for id, including a tombstone.
func (o *MemoryOverlay) Lookup(collection, id string) (Record, bool, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	c, ok := o.collections[collection]
	if !ok {
		return Record{}, false, false
	}
	if _, dead := c.tombstones[id]; dead {
		return Record{}, false, true
	}
	if r, ok := c.records[id]; ok {
		return r, true, true
	}
	return Record{}, false, false
}
