package audit

import (
	"sync"

	"github.com/airsstack/airssys/pkg/osl"
)

// Ring is an in-memory, fixed-capacity ring buffer of the most recent
// records; once full, the oldest record is overwritten. Useful for
// tests and for exposing a recent-decisions view without external
// storage.
type Ring struct {
	mu       sync.Mutex
	buf      []osl.AuditRecord
	capacity int
	next     int
	count    int
}

// NewRing builds a Ring holding up to capacity records.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring{buf: make([]osl.AuditRecord, capacity), capacity: capacity}
}

func (r *Ring) Record(rec osl.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = rec
	r.next = (r.next + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	}
	return nil
}

func (r *Ring) Flush() error { return nil }

// Snapshot returns the buffered records in oldest-to-newest order.
func (r *Ring) Snapshot() []osl.AuditRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]osl.AuditRecord, 0, r.count)
	start := (r.next - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%r.capacity])
	}
	return out
}
