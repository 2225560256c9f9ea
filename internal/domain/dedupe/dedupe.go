// Package dedupe tracks review IDs already seen while merging snapshots.
package dedupe

import (
	"context"
	"sync"

	"github.com/okian/sentiscan/internal/domain/model"
)

// Deduper records seen review IDs.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool
	Size() int
}

// inMemoryDeduper implements Deduper with a map guarded by a mutex.
// With maxSize > 0 the oldest IDs are forgotten first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 {
		if len(d.order) >= d.maxSize {
			delete(d.seen, d.order[0])
			d.order = d.order[1:]
		}
		d.order = append(d.order, id)
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Reviews returns reviews with repeated IDs removed, keeping the first
// occurrence and the input order. opts configure the underlying deduper; a
// max size smaller than the input lets far-apart repeats through.
func Reviews(ctx context.Context, reviews []model.Review, opts ...Option) []model.Review {
	d := NewInMemoryDeduper(opts...)
	out := make([]model.Review, 0, len(reviews))
	for _, r := range reviews {
		if d.SeenAndRecord(ctx, r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out
}
