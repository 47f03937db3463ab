package osl

import (
	"math"
	"strconv"
	"time"
)

// RetryConfig configures RetryMiddleware's exponential-backoff-with-
// jitter loop.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryConfig returns sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

const retryAttemptKey = "osl.retry.attempts"

// RetryMiddleware re-enters the pipeline at BeforeExecution on error, up
// to MaxAttempts, sleeping with exponential backoff between attempts.
// Attempt counters live in the per-call ExecutionContext.Metadata so
// concurrent calls through the same pipeline never share state.
type RetryMiddleware[Op any, Out any] struct {
	cfg RetryConfig
}

// NewRetryMiddleware builds a RetryMiddleware from cfg.
func NewRetryMiddleware[Op any, Out any](cfg RetryConfig) *RetryMiddleware[Op, Out] {
	return &RetryMiddleware[Op, Out]{cfg: cfg}
}

func (m *RetryMiddleware[Op, Out]) Name() string { return "retry" }

func (m *RetryMiddleware[Op, Out]) BeforeExecution(ec ExecutionContext, op Op) BeforeResult[Op] {
	return Pass(op)
}

func (m *RetryMiddleware[Op, Out]) AfterExecution(ec ExecutionContext, result Out) (Out, error) {
	if ec.Metadata != nil {
		delete(ec.Metadata, retryAttemptKey)
	}
	return result, nil
}

func (m *RetryMiddleware[Op, Out]) HandleError(ec ExecutionContext, err error) ErrorAction {
	if ec.Metadata == nil {
		return ActionContinue
	}

	attempt := 0
	if v, ok := ec.Metadata[retryAttemptKey]; ok {
		attempt, _ = strconv.Atoi(v)
	}
	if attempt+1 >= m.cfg.MaxAttempts {
		return ActionContinue
	}
	attempt++
	ec.Metadata[retryAttemptKey] = strconv.Itoa(attempt)

	delay := time.Duration(float64(m.cfg.InitialDelay) * math.Pow(m.cfg.BackoffFactor, float64(attempt-1)))
	if delay > m.cfg.MaxDelay {
		delay = m.cfg.MaxDelay
	}
	if m.cfg.JitterEnabled {
		jitter := time.Duration(float64(delay) * 0.1 * math.Sin(float64(attempt)))
		delay += jitter
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ec.Context.Done():
		return ActionContinue
	case <-timer.C:
	}
	return ActionRetry
}
