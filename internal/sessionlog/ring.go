package sessionlog

import "sync"

// DefaultRingSize bounds how many warnings the status command reports.
const DefaultRingSize = 32

// Ring holds the most recent entries, oldest first. It is safe for
// concurrent use; Add is suitable as an EntryCallback.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
	dropped uint64
}

// NewRing returns a Ring that keeps up to size entries. A non-positive size
// uses DefaultRingSize.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{entries: make([]Entry, size)}
}

// Add stores entry, evicting the oldest one when the ring is full.
func (r *Ring) Add(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		r.dropped++
	}
	r.entries[r.next] = entry
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

// Snapshot returns a copy of the stored entries, oldest first.
func (r *Ring) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}
	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}

// Len reports the number of stored entries.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}

// Dropped reports how many entries were evicted.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
