// Package wasmhost hosts sandboxed WASM components as actors: a
// concurrent-safe component registry, a per-call capability checker, a
// fuel+timeout-bounded execution engine boundary, and messaging
// primitives (fire-and-forget, request/response, correlation tracking)
// layered on top of pkg/rt's broker.
package wasmhost

import (
	"time"

	"github.com/airsstack/airssys/pkg/wasmhost/capability"
)

// ComponentID addresses a loaded WASM artifact, either a bare string or
// a namespaced triple joined with "/".
type ComponentID string

// ComponentMetadata describes a component's provenance.
type ComponentMetadata struct {
	Name    string
	Version string
	Author  string
}

// ResourceLimits bounds a component's resource consumption.
type ResourceLimits struct {
	MaxMemoryBytes     uint64
	MaxFuel            uint64
	MaxExecutionMillis uint64
	MaxStorageBytes    uint64
}

// Component is a loaded WASM artifact: its id, metadata, resource
// limits, and the capability set enforced on its host-function calls.
type Component struct {
	ID           ComponentID
	Metadata     ComponentMetadata
	Limits       ResourceLimits
	Capabilities capability.Set
	LoadedAt     time.Time
}
