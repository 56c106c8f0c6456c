// Package dedupe tracks game ids whose line score is stored or in flight so
// each game is fetched at most once per ingest pass, however many schedule
// rows it has.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen game ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id int64) bool

	// Unrecord forgets id so a failed fetch can be offered again.
	Unrecord(ctx context.Context, id int64)

	Size() int
}

type gameSet struct {
	mu   sync.Mutex
	seen map[int64]struct{}
}

// New creates an empty set, optionally seeded with ids already stored.
func New(opts ...Option) Deduper {
	cfg := settings{}
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &gameSet{seen: make(map[int64]struct{}, max(cfg.capacity, len(cfg.seed)))}
	for _, id := range cfg.seed {
		d.seen[id] = struct{}{}
	}
	return d
}

func (d *gameSet) SeenAndRecord(_ context.Context, id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *gameSet) Unrecord(_ context.Context, id int64) {
	d.mu.Lock()
	delete(d.seen, id)
	d.mu.Unlock()
}

func (d *gameSet) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
