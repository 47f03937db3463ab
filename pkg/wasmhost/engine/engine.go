// Package engine defines the boundary between wasmhost's component
// actor and a concrete WASM runtime. wasmerengine provides a real
// binding against github.com/wasmerio/wasmer-go; enginefake provides an
// in-memory double for tests that don't need a real module.
package engine

import "context"

// Limits bounds one invocation: memory/fuel ceilings from the
// component's ResourceLimits, plus the wall-clock budget for this call.
type Limits struct {
	MaxMemoryBytes uint64
	MaxFuel        uint64
	Timeout        int64 // milliseconds
}

// Module is an opaque handle to a loaded component, returned by
// LoadModule and passed back into Invoke.
type Module interface{}

// FailureReason distinguishes why Invoke returned an error.
type FailureReason string

const (
	FailureNone    FailureReason = ""
	FailureFuel    FailureReason = "fuel"
	FailureTimeout FailureReason = "timeout"
	FailureTrap    FailureReason = "trap"
)

// InvokeError carries the reason an invocation failed, alongside the
// underlying engine error.
type InvokeError struct {
	Reason FailureReason
	Err    error
}

func (e *InvokeError) Error() string { return string(e.Reason) + ": " + e.Err.Error() }
func (e *InvokeError) Unwrap() error { return e.Err }

// Engine loads WASM bytes into a Module handle and invokes its exported
// functions under fuel and wall-clock limits. Both limits apply
// simultaneously; whichever is hit first terminates execution.
type Engine interface {
	LoadModule(ctx context.Context, wasmBytes []byte, limits Limits) (Module, error)
	Invoke(ctx context.Context, mod Module, fn string, args []byte, limits Limits) ([]byte, error)
	Close(mod Module) error
}
