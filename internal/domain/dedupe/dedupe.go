// Package dedupe tracks submitted race job ids so a resubmitted race is
// acknowledged without being analyzed twice.
package dedupe

import (
	"context"
	"sync"
)

const defaultCapacity = 10000

// Deduper records seen job ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded, recording it if not.
	SeenAndRecord(ctx context.Context, id string) bool
	// Forget drops id so it can be submitted again, e.g. after the queue rejected it.
	Forget(ctx context.Context, id string)
	// Size returns the number of ids held.
	Size() int
}

// Option configures the deduper.
type Option func(*window)

// WithCapacity bounds how many ids are remembered. When full the oldest id
// is evicted. A non-positive capacity keeps every id.
func WithCapacity(n int) Option {
	return func(w *window) { w.capacity = n }
}

// window remembers the most recent ids in insertion order.
type window struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string // insertion order, oldest first
}

// New creates an in-memory deduper.
func New(opts ...Option) Deduper {
	w := &window{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(w)
	}
	w.seen = make(map[string]struct{})
	return w
}

func (w *window) SeenAndRecord(_ context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[id]; ok {
		return true
	}
	if w.capacity > 0 && len(w.seen) >= w.capacity {
		w.evictOldest()
	}
	w.seen[id] = struct{}{}
	w.order = append(w.order, id)
	return false
}

func (w *window) Forget(_ context.Context, id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[id]; !ok {
		return
	}
	delete(w.seen, id)
	for i, v := range w.order {
		if v == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

func (w *window) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}

// evictOldest must be called with mu held.
func (w *window) evictOldest() {
	for len(w.order) > 0 {
		oldest := w.order[0]
		w.order = w.order[1:]
		if _, ok := w.seen[oldest]; ok {
			delete(w.seen, oldest)
			return
		}
	}
}
