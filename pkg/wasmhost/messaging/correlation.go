// Package messaging layers fire-and-forget send and request/response
// patterns, plus correlation tracking, on top of pkg/rt's broker and
// wasmhost's Message payload.
package messaging

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/airsstack/airssys/pkg/wasmhost"
)

// PendingRequest is one in-flight request/response correlation: a
// one-shot delivery channel and the deadline after which it is
// considered timed out.
type PendingRequest struct {
	replyCh  chan wasmhost.Message
	deadline time.Time
	from, to string
}

// ErrCorrelationExists is returned by Register when id is already
// tracked.
var ErrCorrelationExists = correlationExistsError{}

type correlationExistsError struct{}

func (correlationExistsError) Error() string { return "messaging: correlation id already exists" }

// ErrCorrelationTimeout is returned by Complete when the deadline has
// already passed.
var ErrCorrelationTimeout = correlationTimeoutError{}

type correlationTimeoutError struct{}

func (correlationTimeoutError) Error() string { return "messaging: correlation deadline exceeded" }

// Tracker is the concrete correlation tracker: a single lock over a map
// of pending requests, with constant-time register/complete/remove.
type Tracker struct {
	mu      sync.Mutex
	pending map[uuid.UUID]*PendingRequest
}

// NewTracker builds an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{pending: make(map[uuid.UUID]*PendingRequest)}
}

// Register creates a pending entry for id with the given timeout,
// returning the channel that Complete will deliver to. Fails if id is
// already tracked.
func (t *Tracker) Register(id uuid.UUID, timeout time.Duration, from, to string) (<-chan wasmhost.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pending[id]; exists {
		return nil, ErrCorrelationExists
	}
	ch := make(chan wasmhost.Message, 1)
	t.pending[id] = &PendingRequest{
		replyCh:  ch,
		deadline: time.Now().Add(timeout),
		from:     from,
		to:       to,
	}
	return ch, nil
}

// ErrCorrelationNotFound is returned by Complete when id has no pending
// entry — either it never existed or it was already resolved/removed.
var ErrCorrelationNotFound = correlationNotFoundError{}

type correlationNotFoundError struct{}

func (correlationNotFoundError) Error() string { return "messaging: correlation id not found" }

// Complete delivers payload to id's pending request if its deadline has
// not passed, removing the entry either way once resolved.
// ErrCorrelationNotFound and ErrCorrelationTimeout both signal a dead
// letter: no live waiter received payload.
func (t *Tracker) Complete(id uuid.UUID, payload wasmhost.Message) error {
	t.mu.Lock()
	req, ok := t.pending[id]
	if !ok {
		t.mu.Unlock()
		return ErrCorrelationNotFound
	}
	delete(t.pending, id)
	t.mu.Unlock()

	if time.Now().After(req.deadline) {
		return ErrCorrelationTimeout
	}
	select {
	case req.replyCh <- payload:
	default:
	}
	return nil
}

// IsPending reports whether id is still tracked.
func (t *Tracker) IsPending(id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[id]
	return ok
}

// Remove drops id's pending entry, if any, without delivering anything.
func (t *Tracker) Remove(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, id)
}

// CleanupExpired removes every entry whose deadline has passed. Safe to
// call periodically from a background sweeper.
func (t *Tracker) CleanupExpired() {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, req := range t.pending {
		if now.After(req.deadline) {
			delete(t.pending, id)
		}
	}
}
