package audit

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository implements Repository using in-memory storage.
// Tests use Entries to assert on recorded events.
type InMemoryRepository struct {
	mu      sync.Mutex
	entries []Entry
	nextID  int64
}

// NewInMemoryRepository creates a new in-memory audit repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Write appends an audit entry
func (r *InMemoryRepository) Write(ctx context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, entry)
	return nil
}

// Entries returns a copy of all recorded entries
func (r *InMemoryRepository) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// ByEvent returns all entries recorded for the given event
func (r *InMemoryRepository) ByEvent(event Event) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, entry := range r.entries {
		if entry.Event == event {
			out = append(out, entry)
		}
	}
	return out
}
