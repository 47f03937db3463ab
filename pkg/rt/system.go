package rt

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/airsstack/airssys/pkg/logger"
	"github.com/airsstack/airssys/pkg/telemetry"
)

// SystemState is the actor system's coarse lifecycle flag.
type SystemState int

const (
	StateRunning SystemState = iota
	StateShuttingDown
	StateStopped
)

// SystemConfig tunes an ActorSystem's limits.
type SystemConfig struct {
	// MaxActors bounds concurrently spawned actors; zero means
	// unlimited.
	MaxActors int
	// DefaultMailboxCapacity is used when Spawn is called with
	// capacity <= 0.
	DefaultMailboxCapacity int
	// ShutdownTimeout bounds how long Shutdown waits for mailboxes to
	// drain before returning ErrShutdownTimeout.
	ShutdownTimeout time.Duration
	// RouterConfig tunes the router task's behavior.
	Router RouterConfig
}

// DefaultSystemConfig returns sensible defaults.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		DefaultMailboxCapacity: 64,
		ShutdownTimeout:        10 * time.Second,
	}
}

// ErrActorLimitExceeded is returned by Spawn when MaxActors is already
// reached.
var ErrActorLimitExceeded = actorLimitError{}

type actorLimitError struct{}

func (actorLimitError) Error() string { return "rt: actor limit exceeded" }

// ErrSystemNotRunning is returned by Spawn when the system is not in
// StateRunning.
var ErrSystemNotRunning = systemNotRunningError{}

type systemNotRunningError struct{}

func (systemNotRunningError) Error() string { return "rt: system is not running" }

// ErrShutdownTimeout is returned by Shutdown when mailboxes fail to
// drain within the configured budget.
var ErrShutdownTimeout = shutdownTimeoutError{}

type shutdownTimeoutError struct{}

func (shutdownTimeoutError) Error() string { return "rt: shutdown timeout exceeded" }

// ActorSystem owns an injected broker, a mailbox map keyed by address,
// a state flag, and a single background router task.
type ActorSystem[M Message] struct {
	broker *Broker[M]
	cfg    SystemConfig
	log    logger.Logger

	mu        sync.RWMutex
	state     SystemState
	mailboxes map[Address]*mailboxEntry[M]
	sem       *semaphore.Weighted
	tracer    trace.Tracer

	routerCancel context.CancelFunc
	routerDone   chan struct{}
}

// NewActorSystem builds an ActorSystem over broker and starts its
// router task.
func NewActorSystem[M Message](broker *Broker[M], cfg SystemConfig, log logger.Logger) *ActorSystem[M] {
	var sem *semaphore.Weighted
	if cfg.MaxActors > 0 {
		sem = semaphore.NewWeighted(int64(cfg.MaxActors))
	}
	if log != nil {
		log = log.Component("actor-system")
	}
	s := &ActorSystem[M]{
		broker:    broker,
		cfg:       cfg,
		log:       log,
		state:     StateRunning,
		mailboxes: make(map[Address]*mailboxEntry[M]),
		sem:       sem,
		tracer:    telemetry.NoopTracer(),
	}
	s.startRouter()
	return s
}

// WithTracer sets the Tracer each actor's HandleMessage call is recorded
// under as a span. Defaults to a no-op tracer.
func (s *ActorSystem[M]) WithTracer(t trace.Tracer) *ActorSystem[M] {
	s.tracer = t
	return s
}

func (s *ActorSystem[M]) State() SystemState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Spawn creates a new actor task. name == "" produces an Anonymous
// address; otherwise a Named one.
func (s *ActorSystem[M]) Spawn(actor Actor[M], name string, capacity int) (Address, error) {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return Address{}, ErrSystemNotRunning
	}
	if s.sem != nil && !s.sem.TryAcquire(1) {
		s.mu.Unlock()
		return Address{}, ErrActorLimitExceeded
	}

	var addr Address
	if name != "" {
		addr = NewNamed(name)
	} else {
		addr = NewAnonymous()
	}
	if capacity <= 0 {
		capacity = s.cfg.DefaultMailboxCapacity
	}
	entry := &mailboxEntry[M]{
		address:   addr,
		name:      name,
		sender:    make(chan Envelope[M], capacity),
		spawnedAt: time.Now().UTC(),
		done:      make(chan struct{}),
	}
	s.mailboxes[addr] = entry
	s.mu.Unlock()

	if s.log != nil {
		s.log.Info("actor spawned", "address", addr.String())
	}
	go s.runActor(actor, addr, entry)
	return addr, nil
}

// dispatch runs one HandleMessage call inside a span, recording the
// actor's address and any returned error.
func (s *ActorSystem[M]) dispatch(actor Actor[M], env Envelope[M], ctx ActorContext[M]) error {
	_, span := s.tracer.Start(context.Background(), "actor.handle_message",
		trace.WithAttributes(attribute.String("actor.address", ctx.Self.String())))
	defer span.End()

	err := actor.HandleMessage(env.Payload, ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *ActorSystem[M]) runActor(actor Actor[M], addr Address, entry *mailboxEntry[M]) {
	defer close(entry.done)
	defer func() {
		s.mu.Lock()
		delete(s.mailboxes, addr)
		s.mu.Unlock()
		if s.sem != nil {
			s.sem.Release(1)
		}
	}()

	ctx := ActorContext[M]{Self: addr, Broker: s.broker}

	if err := actor.PreStart(ctx); err != nil {
		switch actor.OnError(err, ctx) {
		case ActorResume:
			// fall through to the message loop
		default:
			actor.PostStop(ctx)
			return
		}
	}

	for env := range entry.sender {
		if err := s.dispatch(actor, env, ctx); err != nil {
			action := actor.OnError(err, ctx)
			switch action {
			case ActorStop, ActorEscalate:
				if s.log != nil {
					s.log.Warn("actor task exiting", "address", addr.String(), "action", int(action), "error", err.Error())
				}
				actor.PostStop(ctx)
				return
			case ActorRestart:
				// The task itself still exits and runs PostStop; the
				// owning supervisor enacts the actual restart by
				// observing this task's exit separately.
				if s.log != nil {
					s.log.Warn("actor task restarting", "address", addr.String(), "error", err.Error())
				}
				actor.PostStop(ctx)
				return
			}
			// ActorResume continues the local loop unchanged.
		}
	}
	actor.PostStop(ctx)
}

// Shutdown transitions the system to ShuttingDown, stops the router,
// closes every mailbox sender so actor loops drain naturally, and waits
// up to ShutdownTimeout for all actors to exit.
func (s *ActorSystem[M]) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = StateShuttingDown
	if s.routerCancel != nil {
		s.routerCancel()
	}
	entries := make([]*mailboxEntry[M], 0, len(s.mailboxes))
	for _, e := range s.mailboxes {
		entries = append(entries, e)
	}
	routerDone := s.routerDone
	s.mu.Unlock()

	// The router is the only goroutine that sends on mailbox channels;
	// wait for it to exit before closing them.
	if routerDone != nil {
		<-routerDone
	}
	for _, e := range entries {
		close(e.sender)
	}

	deadline := time.Now().Add(s.cfg.ShutdownTimeout)
	for _, e := range entries {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		select {
		case <-e.done:
		case <-time.After(remaining):
			s.mu.Lock()
			s.state = StateStopped
			s.mu.Unlock()
			return ErrShutdownTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	return nil
}

// ForceShutdown aborts the system immediately: it stops the router,
// clears the mailbox map, and closes every mailbox channel so each
// actor loop terminates, without ever waiting for the actors to
// finish. Unlike Shutdown, no new envelopes can reach a mailbox from
// the moment it returns. Use only when Shutdown's graceful drain is
// not acceptable.
func (s *ActorSystem[M]) ForceShutdown() {
	s.mu.Lock()
	if s.state != StateRunning {
		// Shutdown (or a prior ForceShutdown) already owns the mailbox
		// channels; closing them again would panic.
		s.mu.Unlock()
		return
	}
	s.state = StateStopped
	if s.routerCancel != nil {
		s.routerCancel()
	}
	entries := make([]*mailboxEntry[M], 0, len(s.mailboxes))
	for _, e := range s.mailboxes {
		entries = append(entries, e)
	}
	s.mailboxes = make(map[Address]*mailboxEntry[M])
	routerDone := s.routerDone
	s.mu.Unlock()

	// The router is the only goroutine that sends on mailbox channels;
	// wait for it to exit before closing them.
	if routerDone != nil {
		<-routerDone
	}
	for _, e := range entries {
		close(e.sender)
	}
}

// mailboxSender looks up addr's mailbox channel for router dispatch.
func (s *ActorSystem[M]) mailboxSender(addr Address) (*mailboxEntry[M], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.mailboxes[addr]
	return e, ok
}

// ActorCount returns the number of currently live mailboxes, for
// diagnostics and tests.
func (s *ActorSystem[M]) ActorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mailboxes)
}
