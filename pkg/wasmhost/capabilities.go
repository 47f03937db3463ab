package wasmhost

import (
	"sync"

	"github.com/airsstack/airssys/pkg/wasmhost/capability"
)

// CapabilityStore holds the capability set registered for each
// component id, independent of the actor-address Registry: registering
// a component's address and registering its capability set are
// distinct O(1) operations, and capability checks never mutate either
// store.
type CapabilityStore struct {
	sets sync.Map // ComponentID -> capability.Set
}

// NewCapabilityStore builds an empty CapabilityStore.
func NewCapabilityStore() *CapabilityStore {
	return &CapabilityStore{}
}

// RegisterComponent stores set under id, idempotently replacing any
// prior set.
func (c *CapabilityStore) RegisterComponent(id ComponentID, set capability.Set) {
	c.sets.Store(id, set)
}

// UnregisterComponent removes id's capability set; absent id is a
// no-op success.
func (c *CapabilityStore) UnregisterComponent(id ComponentID) {
	c.sets.Delete(id)
}

// Capabilities implements capability.ComponentCapabilities, resolving a
// plain string id (the checker's interface is decoupled from
// wasmhost.ComponentID) to its registered Set.
func (c *CapabilityStore) Capabilities(componentID string) (capability.Set, bool) {
	v, ok := c.sets.Load(ComponentID(componentID))
	if !ok {
		return capability.Set{}, false
	}
	return v.(capability.Set), true
}
