// Package supervisor implements the restart-policy-enforcing
// supervision tree: OneForOne/OneForAll/RestForOne strategies, restart
// backoff with sliding-window rate limiting, and restart history for
// diagnostics.
package supervisor

import (
	"math/rand"
	"sync"
	"time"
)

// RestartBackoff tracks restart history in a sliding time window,
// enforces a max-restarts rate limit, and computes an exponential
// backoff delay before each restart attempt.
type RestartBackoff struct {
	mu sync.Mutex

	maxRestarts   int
	restartWindow time.Duration
	baseDelay     time.Duration
	maxDelay      time.Duration
	jitterFactor  float64
	deterministic bool

	history []time.Time // newest first
}

// BackoffConfig configures a RestartBackoff.
type BackoffConfig struct {
	MaxRestarts   int
	RestartWindow time.Duration
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	// JitterFactor applies uniform random jitter in ±JitterFactor when
	// Deterministic is false; ignored otherwise.
	JitterFactor float64
	// Deterministic applies jitter based on attempt parity instead of
	// randomness, for reproducible tests.
	Deterministic bool
}

// NewRestartBackoff builds a RestartBackoff with defaults of 100ms base
// delay and 60s max delay when cfg leaves them zero.
func NewRestartBackoff(cfg BackoffConfig) *RestartBackoff {
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 60 * time.Second
	}
	return &RestartBackoff{
		maxRestarts:   cfg.MaxRestarts,
		restartWindow: cfg.RestartWindow,
		baseDelay:     cfg.BaseDelay,
		maxDelay:      cfg.MaxDelay,
		jitterFactor:  cfg.JitterFactor,
		deterministic: cfg.Deterministic,
	}
}

func (b *RestartBackoff) cleanupExpiredLocked(now time.Time) {
	cutoff := now.Add(-b.restartWindow)
	kept := b.history[:0]
	for _, t := range b.history {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	b.history = kept
}

// RecordRestart appends a restart at the current time to the sliding
// window history.
func (b *RestartBackoff) RecordRestart() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	b.cleanupExpiredLocked(now)
	b.history = append([]time.Time{now}, b.history...)
}

// RestartCount returns the number of restarts currently within the
// sliding window.
func (b *RestartBackoff) RestartCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanupExpiredLocked(time.Now())
	return len(b.history)
}

// IsLimitExceeded reports whether the in-window restart count has
// reached MaxRestarts.
func (b *RestartBackoff) IsLimitExceeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanupExpiredLocked(time.Now())
	return b.maxRestarts > 0 && len(b.history) >= b.maxRestarts
}

// NextDelay computes delay = min(max_delay, base_delay *
// 2^min(restart_count, 10)), then applies jitter, where restart_count is
// the number of restarts currently recorded in the window. The
// supervisor calls it before RecordRestart for the restart this delay
// guards, so the first restart in a window waits base_delay.
func (b *RestartBackoff) NextDelay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanupExpiredLocked(time.Now())

	count := len(b.history)
	capped := count
	if capped > 10 {
		capped = 10
	}
	multiplier := uint64(1) << uint(capped)
	delay := b.baseDelay * time.Duration(multiplier)
	if delay > b.maxDelay {
		delay = b.maxDelay
	}
	return applyJitter(delay, count, b.jitterFactor, b.deterministic)
}

// Reset clears the restart history, used after a child has run
// uninterrupted for the configured recovery interval.
func (b *RestartBackoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.history = nil
}

func applyJitter(delay time.Duration, attempt int, factor float64, deterministic bool) time.Duration {
	if factor <= 0 {
		return delay
	}
	if deterministic {
		if attempt%2 == 0 {
			return delay + time.Duration(float64(delay)*factor)
		}
		return delay - time.Duration(float64(delay)*factor)
	}
	// Uniform random jitter in ±factor.
	offset := (rand.Float64()*2 - 1) * factor
	return delay + time.Duration(float64(delay)*offset)
}
