package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/airsstack/airssys/pkg/logger"
	"github.com/airsstack/airssys/pkg/telemetry"
)

// EscalationError is raised when a child's restart rate limit is
// exceeded and there is no parent supervisor to absorb the failure.
type EscalationError struct {
	ChildID string
	Reason  string
}

func (e *EscalationError) Error() string {
	return fmt.Sprintf("supervisor: escalation for child %q: %s", e.ChildID, e.Reason)
}

type managedChild struct {
	spec      ChildSpec
	instance  Child
	state     ChildLifecycle
	backoff   *RestartBackoff
	history   *History
	recovery  *time.Timer
	restartCt int // lifetime monotone counter; never decremented by window expiry
}

// Supervisor manages a group of children under a Strategy, enforcing
// restart policies and per-child rate limits. A Supervisor is itself a
// Child, so supervisors nest into arbitrary trees.
type Supervisor struct {
	strategy Strategy
	log      logger.Logger
	tracer   trace.Tracer

	mu       sync.Mutex
	children []*managedChild // registration order, for RestForOne
	byID     map[string]int

	onEscalate func(err *EscalationError)
	stopped    bool
	doneCh     chan error
}

// NewSupervisor builds an empty Supervisor under strategy.
func NewSupervisor(strategy Strategy, log logger.Logger) *Supervisor {
	if log != nil {
		log = log.Component("supervisor")
	}
	return &Supervisor{
		strategy: strategy,
		log:      log,
		tracer:   telemetry.NoopTracer(),
		byID:     make(map[string]int),
		doneCh:   make(chan error, 1),
	}
}

// WithTracer sets the Tracer child start/restart attempts are recorded
// under as spans. Defaults to a no-op tracer.
func (s *Supervisor) WithTracer(t trace.Tracer) *Supervisor {
	s.tracer = t
	return s
}

// OnEscalate registers a callback invoked when a child's restart rate
// limit is exceeded and this supervisor has no parent to hand the
// failure to (a parent would instead be itself registered as this
// supervisor's own Supervisor.AddChild caller, and would observe this
// Supervisor's Done() channel).
func (s *Supervisor) OnEscalate(fn func(err *EscalationError)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEscalate = fn
}

// AddChild registers spec, starts the child, and begins monitoring it
// for exit.
func (s *Supervisor) AddChild(spec ChildSpec) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("supervisor: cannot add child %q: supervisor stopped", spec.ID)
	}
	mc := &managedChild{
		spec:    spec,
		backoff: NewRestartBackoff(spec.Backoff),
		history: NewHistory(DefaultHistoryCapacity),
		state:   ChildStarting,
	}
	idx := len(s.children)
	s.children = append(s.children, mc)
	s.byID[spec.ID] = idx
	s.mu.Unlock()

	return s.startChild(idx)
}

func (s *Supervisor) startChild(idx int) error {
	s.mu.Lock()
	mc := s.children[idx]
	s.mu.Unlock()

	_, span := s.tracer.Start(context.Background(), "supervisor.start_child",
		trace.WithAttributes(attribute.String("child.id", mc.spec.ID)))
	defer span.End()

	instance := mc.spec.Factory()
	if err := instance.Start(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.mu.Lock()
		mc.state = ChildFailed
		s.mu.Unlock()
		return fmt.Errorf("supervisor: start child %q: %w", mc.spec.ID, err)
	}

	s.mu.Lock()
	mc.instance = instance
	mc.state = ChildRunning
	s.armRecoveryTimerLocked(mc)
	s.mu.Unlock()

	go s.monitor(idx, instance)
	return nil
}

func (s *Supervisor) armRecoveryTimerLocked(mc *managedChild) {
	if mc.recovery != nil {
		mc.recovery.Stop()
	}
	interval := 2 * effectiveMaxDelay(mc.spec.Backoff)
	mc.recovery = time.AfterFunc(interval, mc.backoff.Reset)
}

func effectiveMaxDelay(cfg BackoffConfig) time.Duration {
	if cfg.MaxDelay > 0 {
		return cfg.MaxDelay
	}
	return 60 * time.Second
}

func (s *Supervisor) monitor(idx int, instance Child) {
	exitErr, ok := <-instance.Done()
	if !ok {
		return
	}

	s.mu.Lock()
	mc := s.children[idx]
	if mc.instance != instance {
		// instance was already replaced by a prior restart; stale
		// signal, ignore.
		s.mu.Unlock()
		return
	}
	// Exits the supervisor itself initiated (stop or a strategy-driven
	// sibling restart) are not failures.
	initiated := mc.state == ChildStopping || mc.state == ChildRestarting
	s.mu.Unlock()

	if initiated {
		return
	}
	s.handleExit(idx, exitErr)
}

func (s *Supervisor) handleExit(idx int, exitErr error) {
	s.mu.Lock()
	mc := s.children[idx]
	mc.state = ChildFailed
	s.mu.Unlock()

	if !mc.spec.Restart.ShouldRestart(exitErr) {
		s.mu.Lock()
		mc.state = ChildStopped
		s.mu.Unlock()
		return
	}

	affected := s.strategy.affected(idx, s.childCount())
	for _, i := range affected {
		s.restartChild(i, exitErr)
	}
}

func (s *Supervisor) childCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.children)
}

func (s *Supervisor) restartChild(idx int, reason error) {
	s.mu.Lock()
	mc := s.children[idx]
	if mc.spec.Restart == Temporary {
		// Temporary children are excluded from the rate limiter window
		// entirely; they simply never restart.
		s.mu.Unlock()
		return
	}
	wasRunning := mc.state == ChildRunning
	oldInstance := mc.instance
	mc.state = ChildRestarting
	// The child's run has been interrupted, so the recovery timer armed
	// at its last start must not reset the window.
	if mc.recovery != nil {
		mc.recovery.Stop()
	}
	// IsLimitExceeded and NextDelay both read the window as it stands
	// before this restart is recorded: the Nth restart is evaluated and
	// delayed against the N-1 restarts already in the window, and only
	// becomes part of the window itself once it actually proceeds.
	exceeded := mc.backoff.IsLimitExceeded()
	s.mu.Unlock()

	// A sibling swept up by OneForAll/RestForOne is still running; stop
	// it before the replacement starts.
	if wasRunning && oldInstance != nil {
		_ = oldInstance.Stop(mc.spec.Shutdown)
	}

	_, span := s.tracer.Start(context.Background(), "supervisor.restart_child",
		trace.WithAttributes(attribute.String("child.id", mc.spec.ID)))
	defer span.End()

	if exceeded {
		span.SetStatus(codes.Error, "restart rate limit exceeded")
		reasonMsg := "restart rate limit exceeded"
		mc.history.Record(reasonMsg, 0)
		err := &EscalationError{ChildID: mc.spec.ID, Reason: reasonMsg}
		s.mu.Lock()
		mc.state = ChildFailed
		cb := s.onEscalate
		s.mu.Unlock()
		if cb != nil {
			cb(err)
		} else {
			select {
			case s.doneCh <- err:
			default:
			}
		}
		return
	}

	s.mu.Lock()
	delay := mc.backoff.NextDelay()
	mc.backoff.RecordRestart()
	mc.restartCt++
	s.mu.Unlock()

	mc.history.Record(fmt.Sprintf("restart after: %v", reason), delay)
	time.Sleep(delay)

	if err := s.startChild(idx); err != nil && s.log != nil {
		s.log.Error("supervisor: restart failed", "child_id", mc.spec.ID, "error", err.Error())
	}
}

// StopChild stops the named child per its ShutdownPolicy, without
// triggering a restart.
func (s *Supervisor) StopChild(id string) error {
	s.mu.Lock()
	idx, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("supervisor: unknown child %q", id)
	}
	mc := s.children[idx]
	mc.state = ChildStopping
	instance := mc.instance
	policy := mc.spec.Shutdown
	s.mu.Unlock()

	if instance == nil {
		return nil
	}
	err := instance.Stop(policy)

	s.mu.Lock()
	mc.state = ChildStopped
	s.mu.Unlock()
	return err
}

// Start implements Child: a root Supervisor embedded as another
// Supervisor's child is already running once constructed via
// NewSupervisor, so Start is a no-op success.
func (s *Supervisor) Start() error { return nil }

// Stop implements Child: stops every managed child concurrently via an
// errgroup. Graceful waits up to policy.Timeout, Infinity waits without
// bound, and Immediate returns at once without waiting.
func (s *Supervisor) Stop(policy ShutdownPolicy) error {
	s.mu.Lock()
	s.stopped = true
	ids := make([]string, 0, len(s.children))
	for _, mc := range s.children {
		ids = append(ids, mc.spec.ID)
	}
	s.mu.Unlock()

	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return s.StopChild(id)
		})
	}
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	switch policy.Kind {
	case ShutdownImmediate:
		// Abort: stops were dispatched, nobody waits on them.
		return nil
	case ShutdownInfinity:
		return <-done
	default:
		timer := time.NewTimer(policy.Timeout)
		defer timer.Stop()
		select {
		case err := <-done:
			return err
		case <-timer.C:
			return fmt.Errorf("supervisor: stop timed out after %v", policy.Timeout)
		}
	}
}

// HealthCheck aggregates child health: Failed if any child is Failed,
// Degraded if any is Degraded, else Healthy.
func (s *Supervisor) HealthCheck() (HealthStatus, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	worst := Healthy
	reason := ""
	for _, mc := range s.children {
		var status HealthStatus
		var msg string
		if mc.instance != nil {
			status, msg = mc.instance.HealthCheck()
		} else if mc.state == ChildFailed {
			status, msg = Failed, "child failed to start"
		}
		if status > worst {
			worst = status
			reason = fmt.Sprintf("%s: %s", mc.spec.ID, msg)
		}
	}
	return worst, reason
}

// Done signals unrecoverable supervisor-level failure (escalation with
// no registered OnEscalate callback).
func (s *Supervisor) Done() <-chan error {
	return s.doneCh
}

// ChildState returns the observed lifecycle state of the named child,
// for diagnostics and tests.
func (s *Supervisor) ChildState(id string) (ChildLifecycle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return 0, false
	}
	return s.children[idx].state, true
}

// RestartCount returns the lifetime (never decremented by window
// expiry) restart count for the named child.
func (s *Supervisor) RestartCount(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[id]
	if !ok {
		return 0, false
	}
	return s.children[idx].restartCt, true
}
