package shell

import (
	"fmt"
	"sync"
)

// DefaultHistoryCapacity is the target capacity of the history buffer.
const DefaultHistoryCapacity = 10000

// History is a bounded, order-preserving store of entries. When a push would
// exceed the capacity the oldest entry is evicted; the first eviction also
// inserts a one-shot truncation warning, after which the buffer holds at most
// capacity+1 entries (the warning occupies one slot until it ages out, but is
// never re-inserted).
//
// All access is serialized through a single mutex so snapshots never observe
// a torn state.
type History struct {
	mu       sync.Mutex
	entries  []Entry
	start    int // index of the oldest entry within entries
	capacity int
	warned   bool
	onEvict  func() // optional, called once per evicted entry
}

// NewHistory creates a history buffer with the given capacity. Non-positive
// capacities fall back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// SetEvictionHook registers a callback invoked for every evicted entry.
// Must be set before the buffer is shared across goroutines.
func (h *History) SetEvictionHook(fn func()) {
	h.onEvict = fn
}

// Push appends an entry, evicting the oldest one first when at capacity.
func (h *History) Push(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.length() >= h.capacity {
		h.evictOldest()
		if !h.warned {
			h.append(Entry{
				Kind:      KindNotification,
				Text:      fmt.Sprintf("Output truncated: line limit (%d) exceeded", h.capacity),
				Level:     LevelWarning,
				Timestamp: NowMillis(),
			})
			h.warned = true
		}
	}
	h.append(e)
}

// Snapshot returns a copy of all entries in insertion order.
func (h *History) Snapshot() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, h.length())
	copy(out, h.entries[h.start:])
	return out
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.length()
}

// Clear empties the buffer and re-arms the truncation warning.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.start = 0
	h.warned = false
}

// Warned reports whether the one-shot truncation warning has been emitted.
func (h *History) Warned() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.warned
}

func (h *History) length() int {
	return len(h.entries) - h.start
}

func (h *History) append(e Entry) {
	h.entries = append(h.entries, e)
}

func (h *History) evictOldest() {
	if h.length() == 0 {
		return
	}
	h.entries[h.start] = Entry{}
	h.start++
	if h.onEvict != nil {
		h.onEvict()
	}
	// Compact once the dead prefix dominates, keeping amortized O(1) pushes.
	if h.start > h.capacity && h.start > len(h.entries)/2 {
		live := h.entries[h.start:]
		fresh := make([]Entry, len(live), h.capacity+1)
		copy(fresh, live)
		h.entries = fresh
		h.start = 0
	}
}
