package component

import (
	"context"
	"errors"
	"time"

	"github.com/airsstack/airssys/pkg/rt"
	"github.com/airsstack/airssys/pkg/wasmhost"
	"github.com/airsstack/airssys/pkg/wasmhost/engine"
)

// Actor hosts one WASM component as an rt.Actor[wasmhost.Message]: it
// loads the module on PreStart, translates incoming invoke messages
// into engine.Engine.Invoke calls under the component's fuel/timeout
// limits, publishes the result back through the broker, and feeds
// every outcome into its HealthMonitor (the Health field).
type Actor struct {
	Component *wasmhost.Component
	WasmBytes []byte
	Engine    engine.Engine
	Hooks     LifecycleHooks
	Health    *HealthMonitor

	module engine.Module
}

// NewActor builds an Actor for comp, backed by eng and wasmBytes, with
// a default HealthMonitor if none is supplied.
func NewActor(comp *wasmhost.Component, wasmBytes []byte, eng engine.Engine, hooks LifecycleHooks) *Actor {
	return &Actor{
		Component: comp,
		WasmBytes: wasmBytes,
		Engine:    eng,
		Hooks:     hooks,
		Health:    NewHealthMonitor(DefaultFailureThreshold, DefaultCheckInterval),
	}
}

// PreStart loads the module, running PreStart/PostStart hooks around
// it.
func (a *Actor) PreStart(ctx rt.ActorContext[wasmhost.Message]) error {
	if err := a.Hooks.RunPreStart(); err != nil {
		return err
	}

	limits := engine.Limits{
		MaxMemoryBytes: a.Component.Limits.MaxMemoryBytes,
		MaxFuel:        a.Component.Limits.MaxFuel,
		Timeout:        int64(a.Component.Limits.MaxExecutionMillis),
	}
	loadCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mod, err := a.Engine.LoadModule(loadCtx, a.WasmBytes, limits)
	if err != nil {
		return wasmhost.NewLoadFailed("component.PreStart", a.Component.ID, err)
	}
	a.module = mod

	return a.Hooks.RunPostStart()
}

// HandleMessage invokes the requested function and publishes a
// KindResponse envelope back through the context's broker, echoing
// msg's CorrelationID (if any) so messaging.Router can complete the
// caller's pending request.
func (a *Actor) HandleMessage(msg wasmhost.Message, ctx rt.ActorContext[wasmhost.Message]) error {
	if msg.Kind != wasmhost.KindInvoke {
		return nil
	}
	if a.Hooks.OnMessageReceived != nil {
		if err := a.Hooks.run("on_message_received", func(c context.Context) error {
			return a.Hooks.OnMessageReceived(c, msg.Function)
		}); err != nil {
			return err
		}
	}

	limits := engine.Limits{
		MaxMemoryBytes: a.Component.Limits.MaxMemoryBytes,
		MaxFuel:        a.Component.Limits.MaxFuel,
		Timeout:        int64(a.Component.Limits.MaxExecutionMillis),
	}
	timeout := time.Duration(limits.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	invokeCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, invokeErr := a.Engine.Invoke(invokeCtx, a.module, msg.Function, msg.Args, limits)
	if invokeErr != nil {
		reason := wasmhost.ReasonTrap
		var engErr *engine.InvokeError
		if errors.As(invokeErr, &engErr) {
			switch engErr.Reason {
			case engine.FailureFuel:
				reason = wasmhost.ReasonFuelExhausted
			case engine.FailureTimeout:
				reason = wasmhost.ReasonTimeout
			}
		}
		invokeErr = wasmhost.NewExecutionFailed("component.HandleMessage", a.Component.ID, reason, invokeErr)
	}

	status := StatusOK
	if invokeErr != nil {
		status = StatusFail
	}
	a.Health.Evaluate(status)

	resp := wasmhost.NewResponse(out, invokeErr)
	env := rt.NewEnvelope(resp)
	if msg.CorrelationID != nil {
		resp = resp.WithCorrelationID(*msg.CorrelationID)
		env = rt.NewEnvelope(resp).WithCorrelationID(*msg.CorrelationID)
	}
	_ = ctx.Broker.Publish(env)
	return invokeErr
}

// OnError escalates every failure to the owning supervisor: restart
// policy and backoff decisions belong there, not in the actor itself.
func (a *Actor) OnError(err error, ctx rt.ActorContext[wasmhost.Message]) rt.ActorErrorAction {
	if a.Hooks.OnError != nil {
		_ = a.Hooks.run("on_error", func(c context.Context) error {
			return a.Hooks.OnError(c, err)
		})
	}
	return rt.ActorEscalate
}

// PostStop runs the PreStop/PostStop hooks and releases the engine
// module handle.
func (a *Actor) PostStop(ctx rt.ActorContext[wasmhost.Message]) {
	_ = a.Hooks.RunPreStop()
	if a.module != nil {
		_ = a.Engine.Close(a.module)
	}
	_ = a.Hooks.RunPostStop()
}
