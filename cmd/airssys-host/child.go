package main

import (
	"context"
	"time"

	"github.com/airsstack/airssys/pkg/rt"
	"github.com/airsstack/airssys/pkg/rt/supervisor"
	"github.com/airsstack/airssys/pkg/wasmhost"
)

// actorSystemChild adapts the long-lived rt.ActorSystem into a single
// supervisor.Child: the actor system already runs from the moment
// NewActorSystem returns, so Start is a no-op, and Stop drains it via
// Shutdown. It never exits on its own, so Done only receives the
// result Stop sends on it.
type actorSystemChild struct {
	sys  *rt.ActorSystem[wasmhost.Message]
	done chan error
}

func newActorSystemChild(sys *rt.ActorSystem[wasmhost.Message]) *actorSystemChild {
	return &actorSystemChild{sys: sys, done: make(chan error, 1)}
}

func (c *actorSystemChild) Start() error { return nil }

func (c *actorSystemChild) Stop(policy supervisor.ShutdownPolicy) error {
	timeout := policy.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := c.sys.Shutdown(ctx)
	c.done <- err
	return err
}

func (c *actorSystemChild) HealthCheck() (supervisor.HealthStatus, string) {
	switch c.sys.State() {
	case rt.StateRunning:
		return supervisor.Healthy, ""
	case rt.StateShuttingDown:
		return supervisor.Degraded, "actor system is draining"
	default:
		return supervisor.Failed, "actor system stopped"
	}
}

func (c *actorSystemChild) Done() <-chan error { return c.done }

// componentChild adapts one component.Actor into a supervisor.Child by
// spawning it through the shared ActorSystem on Start and registering
// its address in the shared registry. ActorSystem does not expose a
// per-actor exit signal, so the actor's exit is not watched: HealthCheck
// reports registry presence, Done only receives the value Stop sends,
// and Stop unregisters and relies on ActorSystem.Shutdown's broader
// drain for the actual goroutine exit.
type componentChild struct {
	sys      *rt.ActorSystem[wasmhost.Message]
	actor    rt.Actor[wasmhost.Message]
	name     string
	registry *wasmhost.Registry
	id       wasmhost.ComponentID
	addr     rt.Address
	done     chan error
}

func newComponentChild(sys *rt.ActorSystem[wasmhost.Message], actor rt.Actor[wasmhost.Message], name string, registry *wasmhost.Registry, id wasmhost.ComponentID) *componentChild {
	return &componentChild{sys: sys, actor: actor, name: name, registry: registry, id: id, done: make(chan error, 1)}
}

func (c *componentChild) Start() error {
	addr, err := c.sys.Spawn(c.actor, c.name, 0)
	if err != nil {
		return err
	}
	c.addr = addr
	c.registry.Register(c.id, addr)
	return nil
}

func (c *componentChild) Stop(supervisor.ShutdownPolicy) error {
	c.registry.Unregister(c.id)
	c.done <- nil
	return nil
}

func (c *componentChild) HealthCheck() (supervisor.HealthStatus, string) {
	if _, err := c.registry.Lookup(c.id); err != nil {
		return supervisor.Failed, "component not registered"
	}
	return supervisor.Healthy, ""
}

func (c *componentChild) Done() <-chan error { return c.done }
