package osl

import (
	"sync"
	"time"
)

// CircuitState mirrors the classic three-state circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures CircuitBreakerMiddleware.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// circuit opens.
	FailureThreshold int
	// SleepWindow is how long the circuit stays open before allowing a
	// half-open probe.
	SleepWindow time.Duration
	// HalfOpenSuccesses is the number of consecutive half-open
	// successes required to close the circuit again.
	HalfOpenSuccesses int
}

// DefaultCircuitBreakerConfig returns sensible defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:  5,
		SleepWindow:       30 * time.Second,
		HalfOpenSuccesses: 3,
	}
}

// CircuitBreakerMiddleware protects the executor from cascading
// failures, adapted from a classic state-machine circuit breaker:
// closed (pass through) → open (fail fast) → half-open (probe) → closed.
type CircuitBreakerMiddleware[Op any, Out any] struct {
	cfg CircuitBreakerConfig

	mu              sync.Mutex
	state           CircuitState
	consecutiveFail int
	halfOpenOK      int
	openedAt        time.Time
}

// NewCircuitBreakerMiddleware builds a middleware in the closed state.
func NewCircuitBreakerMiddleware[Op any, Out any](cfg CircuitBreakerConfig) *CircuitBreakerMiddleware[Op, Out] {
	return &CircuitBreakerMiddleware[Op, Out]{cfg: cfg, state: StateClosed}
}

func (m *CircuitBreakerMiddleware[Op, Out]) Name() string { return "circuit_breaker" }

// State reports the breaker's current state for diagnostics.
func (m *CircuitBreakerMiddleware[Op, Out]) State() CircuitState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *CircuitBreakerMiddleware[Op, Out]) BeforeExecution(ec ExecutionContext, op Op) BeforeResult[Op] {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateOpen:
		if time.Since(m.openedAt) >= m.cfg.SleepWindow {
			m.state = StateHalfOpen
			m.halfOpenOK = 0
			return Pass(op)
		}
		return Reject[Op]("circuit breaker open")
	default:
		return Pass(op)
	}
}

func (m *CircuitBreakerMiddleware[Op, Out]) AfterExecution(ec ExecutionContext, result Out) (Out, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateHalfOpen:
		m.halfOpenOK++
		if m.halfOpenOK >= m.cfg.HalfOpenSuccesses {
			m.state = StateClosed
			m.consecutiveFail = 0
		}
	case StateClosed:
		m.consecutiveFail = 0
	}
	return result, nil
}

func (m *CircuitBreakerMiddleware[Op, Out]) HandleError(ec ExecutionContext, err error) ErrorAction {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateHalfOpen:
		m.state = StateOpen
		m.openedAt = time.Now()
	case StateClosed:
		m.consecutiveFail++
		if m.consecutiveFail >= m.cfg.FailureThreshold {
			m.state = StateOpen
			m.openedAt = time.Now()
		}
	}
	return ActionContinue
}
