// Package wasmerengine binds wasmhost/engine.Engine to
// github.com/wasmerio/wasmer-go, the concrete WASM runtime this module
// ships rather than leaving the engine boundary entirely abstract.
package wasmerengine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wasmerio/wasmer-go/wasmer"

	"github.com/airsstack/airssys/pkg/wasmhost/engine"
)

type wasmerModule struct {
	mu       sync.Mutex
	store    *wasmer.Store
	module   *wasmer.Module
	instance *wasmer.Instance
	fuelRem  uint64
}

// Engine binds engine.Engine against a single wasmer.Engine shared
// across every loaded module.
type Engine struct {
	inner *wasmer.Engine
}

// New builds a wasmerengine.Engine.
func New() *Engine {
	return &Engine{inner: wasmer.NewEngine()}
}

func (e *Engine) LoadModule(_ context.Context, wasmBytes []byte, limits engine.Limits) (engine.Module, error) {
	store := wasmer.NewStore(e.inner)
	mod, err := wasmer.NewModule(store, wasmBytes)
	if err != nil {
		return nil, err
	}
	instance, err := wasmer.NewInstance(mod, wasmer.NewImportObject())
	if err != nil {
		return nil, err
	}
	return &wasmerModule{store: store, module: mod, instance: instance, fuelRem: limits.MaxFuel}, nil
}

// Invoke calls the named exported function with args as its sole
// argument, in the engine interface's bytes-in/bytes-out convention.
//
// wasmer-go's public API does not expose per-instruction fuel metering
// hooks, so fuel is charged per call rather than per instruction: each
// Invoke costs exactly 1 unit against the module's remaining budget.
// The wall-clock limit is enforced by racing the call against a timer.
func (e *Engine) Invoke(ctx context.Context, mod engine.Module, fn string, args []byte, limits engine.Limits) ([]byte, error) {
	wm, ok := mod.(*wasmerModule)
	if !ok {
		return nil, &engine.InvokeError{Reason: engine.FailureTrap, Err: errors.New("wasmerengine: unknown module handle")}
	}

	wm.mu.Lock()
	if wm.fuelRem == 0 {
		wm.mu.Unlock()
		return nil, &engine.InvokeError{Reason: engine.FailureFuel, Err: errors.New("wasmerengine: fuel exhausted")}
	}
	wm.fuelRem--
	wm.mu.Unlock()

	fnHandle, err := wm.instance.Exports.GetFunction(fn)
	if err != nil {
		return nil, &engine.InvokeError{Reason: engine.FailureTrap, Err: err}
	}

	type callResult struct {
		out []byte
		err error
	}
	resultCh := make(chan callResult, 1)
	go func() {
		res, err := fnHandle(args)
		if err != nil {
			resultCh <- callResult{err: err}
			return
		}
		out, ok := res.([]byte)
		if !ok {
			out = nil
		}
		resultCh <- callResult{out: out}
	}()

	timeout := time.Duration(limits.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	select {
	case r := <-resultCh:
		if r.err != nil {
			return nil, &engine.InvokeError{Reason: engine.FailureTrap, Err: r.err}
		}
		return r.out, nil
	case <-time.After(timeout):
		return nil, &engine.InvokeError{Reason: engine.FailureTimeout, Err: errors.New("wasmerengine: wall-clock timeout exceeded")}
	case <-ctx.Done():
		return nil, &engine.InvokeError{Reason: engine.FailureTimeout, Err: ctx.Err()}
	}
}

func (e *Engine) Close(mod engine.Module) error {
	if wm, ok := mod.(*wasmerModule); ok {
		wm.instance.Close()
		wm.module.Close()
		wm.store.Close()
	}
	return nil
}
