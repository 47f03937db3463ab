package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/airsstack/airssys/pkg/rt"
	"github.com/airsstack/airssys/pkg/wasmhost"
)

// Patterns offers the two messaging primitives layered above an
// rt.Broker[wasmhost.Message]: fire-and-forget Send and timeout-bounded
// Request/response, the latter correlated through a Tracker that
// Router completes as responses arrive.
type Patterns struct {
	broker  *rt.Broker[wasmhost.Message]
	tracker *Tracker
}

// NewPatterns builds a Patterns instance over broker, with its own
// correlation Tracker.
func NewPatterns(broker *rt.Broker[wasmhost.Message]) *Patterns {
	return &Patterns{broker: broker, tracker: NewTracker()}
}

// Send is fire-and-forget: it builds an envelope addressed to target,
// publishes it, and returns as soon as the broker accepts it. Delivery
// beyond that point is best-effort; the rt router dead-letters unknown
// targets.
func (p *Patterns) Send(target rt.Address, payload wasmhost.Message) error {
	env := rt.NewEnvelope(payload).WithReplyTo(target)
	return p.broker.Publish(env)
}

// Request publishes payload to target with a fresh correlation id,
// registers it in the tracker, and blocks until either a response
// arrives (delivered via Router.Route calling Complete) or timeout
// elapses. In all exit paths the pending entry is removed.
func (p *Patterns) Request(self, target rt.Address, payload wasmhost.Message, timeout time.Duration) (wasmhost.Message, error) {
	id := uuid.New()
	ch, err := p.tracker.Register(id, timeout, self.String(), target.String())
	if err != nil {
		return wasmhost.Message{}, err
	}
	defer p.tracker.Remove(id)

	// Stamp the id on the payload itself, not just the envelope: a
	// responding actor's HandleMessage only ever sees the payload (see
	// wasmhost.Message's CorrelationID doc comment), so this is the
	// only channel it has to learn which request it is answering.
	payload = payload.WithCorrelationID(id)
	env := rt.NewEnvelope(payload).WithReplyTo(target).WithSender(self).WithCorrelationID(id)
	if err := p.broker.Publish(env); err != nil {
		return wasmhost.Message{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		return wasmhost.Message{}, ErrCorrelationTimeout
	}
}
