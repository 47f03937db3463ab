// Package enginefake is an in-memory engine.Engine double for tests: it
// never touches a real WASM runtime, simulating fuel consumption and
// invocation latency through configurable hooks instead.
package enginefake

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/airsstack/airssys/pkg/wasmhost/engine"
)

// Handler computes a fake invocation's output, fuel cost, and
// artificial delay for a given function name and input.
type Handler func(fn string, args []byte) (output []byte, fuelCost uint64, delay time.Duration, err error)

type fakeModule struct {
	bytes []byte
}

// Engine is the fake engine.Engine implementation.
type Engine struct {
	mu      sync.Mutex
	handler Handler
	fuelRem map[*fakeModule]uint64
}

// New builds an Engine that dispatches every Invoke call to handler. A
// nil handler echoes args back as output at zero cost.
func New(handler Handler) *Engine {
	if handler == nil {
		handler = func(_ string, args []byte) ([]byte, uint64, time.Duration, error) {
			return args, 0, 0, nil
		}
	}
	return &Engine{handler: handler, fuelRem: make(map[*fakeModule]uint64)}
}

func (e *Engine) LoadModule(_ context.Context, wasmBytes []byte, limits engine.Limits) (engine.Module, error) {
	mod := &fakeModule{bytes: wasmBytes}
	e.mu.Lock()
	e.fuelRem[mod] = limits.MaxFuel
	e.mu.Unlock()
	return mod, nil
}

func (e *Engine) Invoke(ctx context.Context, mod engine.Module, fn string, args []byte, limits engine.Limits) ([]byte, error) {
	fm, ok := mod.(*fakeModule)
	if !ok {
		return nil, &engine.InvokeError{Reason: engine.FailureTrap, Err: errors.New("enginefake: unknown module handle")}
	}

	out, cost, delay, err := e.handler(fn, args)
	if err != nil {
		return nil, &engine.InvokeError{Reason: engine.FailureTrap, Err: err}
	}

	e.mu.Lock()
	remaining, open := e.fuelRem[fm]
	if !open {
		e.mu.Unlock()
		return nil, &engine.InvokeError{Reason: engine.FailureTrap, Err: errors.New("enginefake: module closed")}
	}
	if cost > remaining {
		e.mu.Unlock()
		return nil, &engine.InvokeError{Reason: engine.FailureFuel, Err: errors.New("enginefake: fuel exhausted")}
	}
	e.fuelRem[fm] = remaining - cost
	e.mu.Unlock()

	if delay == 0 {
		return out, nil
	}
	timeout := time.Duration(limits.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = delay + time.Second
	}
	select {
	case <-time.After(delay):
		return out, nil
	case <-time.After(timeout):
		return nil, &engine.InvokeError{Reason: engine.FailureTimeout, Err: errors.New("enginefake: wall-clock timeout exceeded")}
	case <-ctx.Done():
		return nil, &engine.InvokeError{Reason: engine.FailureTimeout, Err: ctx.Err()}
	}
}

func (e *Engine) Close(mod engine.Module) error {
	if fm, ok := mod.(*fakeModule); ok {
		e.mu.Lock()
		delete(e.fuelRem, fm)
		e.mu.Unlock()
	}
	return nil
}
