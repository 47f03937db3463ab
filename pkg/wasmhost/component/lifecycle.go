// Package component hosts a single WASM component as an rt.Actor:
// lifecycle hooks around load/start/stop, fuel+timeout-bounded
// invocation through a wasmhost/engine.Engine, and a health monitor
// tracking invocation outcomes.
package component

import (
	"context"
	"fmt"
	"time"
)

// LifecycleHooks are optional callbacks invoked around a component
// actor's life. Each hook runs under its own timeout (default 1s);
// a timeout or panic is caught and returned as a *HookError rather
// than blocking or crashing the actor.
type LifecycleHooks struct {
	PreStart         func(ctx context.Context) error
	PostStart        func(ctx context.Context) error
	PreStop          func(ctx context.Context) error
	PostStop         func(ctx context.Context) error
	OnMessageReceived func(ctx context.Context, msgType string) error
	OnError          func(ctx context.Context, err error) error
	OnRestart        func(ctx context.Context) error

	// HookTimeout bounds each hook call; zero falls back to
	// DefaultHookTimeout.
	HookTimeout time.Duration
}

// DefaultHookTimeout is the fallback when LifecycleHooks.HookTimeout is
// unset.
const DefaultHookTimeout = time.Second

// run invokes hook (if non-nil) under the hooks' configured timeout,
// converting a timeout or panic into an error instead of propagating it
// to the caller.
func (h LifecycleHooks) run(name string, hook func(ctx context.Context) error) (err error) {
	if hook == nil {
		return nil
	}
	timeout := h.HookTimeout
	if timeout <= 0 {
		timeout = DefaultHookTimeout
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &HookError{Hook: name, Cause: "panic", Err: panicToError(r)}
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		done <- hook(ctx)
	}()

	select {
	case err = <-done:
		return err
	case <-time.After(timeout):
		return &HookError{Hook: name, Cause: "timeout"}
	}
}

// RunPreStart invokes the PreStart hook.
func (h LifecycleHooks) RunPreStart() error { return h.run("pre_start", h.PreStart) }

// RunPostStart invokes the PostStart hook.
func (h LifecycleHooks) RunPostStart() error { return h.run("post_start", h.PostStart) }

// RunPreStop invokes the PreStop hook.
func (h LifecycleHooks) RunPreStop() error { return h.run("pre_stop", h.PreStop) }

// RunPostStop invokes the PostStop hook.
func (h LifecycleHooks) RunPostStop() error { return h.run("post_stop", h.PostStop) }

// RunOnRestart invokes the OnRestart hook.
func (h LifecycleHooks) RunOnRestart() error { return h.run("on_restart", h.OnRestart) }

// HookError reports a lifecycle hook's failure mode: its own error, a
// timeout, or a recovered panic.
type HookError struct {
	Hook  string
	Cause string
	Err   error
}

func (e *HookError) Error() string {
	if e.Err != nil {
		return "component: hook " + e.Hook + " " + e.Cause + ": " + e.Err.Error()
	}
	return "component: hook " + e.Hook + " " + e.Cause
}

func (e *HookError) Unwrap() error { return e.Err }

func panicToError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &panicValue{r}
}

type panicValue struct{ v interface{} }

func (p *panicValue) Error() string { return fmt.Sprintf("panic recovered: %v", p.v) }
