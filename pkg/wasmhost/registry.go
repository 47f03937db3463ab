package wasmhost

import (
	"sync"
	"sync/atomic"

	"github.com/airsstack/airssys/pkg/rt"
)

// Registry maps component ids to actor addresses with O(1),
// concurrent-safe access. It is backed by sync.Map rather than a
// mutex-guarded map: lookup is the hot path on every host-function call
// and must not contend with registrations happening elsewhere, and
// sync.Map's read path is lock-free once a key has been read or written
// at least once without further writes to that key.
type Registry struct {
	entries sync.Map // ComponentID -> rt.Address
	count   int64
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register maps id to addr, idempotently replacing any prior mapping.
func (r *Registry) Register(id ComponentID, addr rt.Address) {
	_, loaded := r.entries.Swap(id, addr)
	if !loaded {
		atomic.AddInt64(&r.count, 1)
	}
}

// Lookup returns the address registered for id, or ComponentNotFound.
func (r *Registry) Lookup(id ComponentID) (rt.Address, error) {
	v, ok := r.entries.Load(id)
	if !ok {
		return rt.Address{}, NewComponentNotFound("lookup", id)
	}
	return v.(rt.Address), nil
}

// Unregister removes id's mapping; absent id is a no-op success.
func (r *Registry) Unregister(id ComponentID) {
	if _, loaded := r.entries.LoadAndDelete(id); loaded {
		atomic.AddInt64(&r.count, -1)
	}
}

// Count returns the number of currently registered components.
func (r *Registry) Count() int {
	return int(atomic.LoadInt64(&r.count))
}

// Clone returns a cheap reference clone sharing the underlying storage:
// both Registry values observe each other's writes. This matches the
// "clone() (cheap reference clone sharing underlying storage)" contract
// rather than a deep copy.
func (r *Registry) Clone() *Registry {
	return r
}
