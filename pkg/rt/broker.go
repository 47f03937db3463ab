package rt

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// BrokerConfig tunes per-subscriber backpressure behavior.
type BrokerConfig struct {
	// SubscriberCapacity bounds each subscriber's channel buffer. Zero
	// means unbounded delivery is not possible in Go channels, so zero
	// is treated as 1 (minimal buffering); callers wanting a large
	// high-water mark should set it explicitly.
	SubscriberCapacity int
}

// DefaultBrokerConfig returns a reasonably large per-subscriber buffer.
func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{SubscriberCapacity: 256}
}

type subscriber[M Message] struct {
	id int64
	ch chan Envelope[M]
}

// Broker is a pub-sub bus generic over message type M. It never shares
// mutable state across subscribers: every Publish clones the envelope
// value per subscriber channel (Envelope is a plain value type, so the
// Go copy-on-send is the clone).
type Broker[M Message] struct {
	cfg BrokerConfig

	mu        sync.RWMutex
	subs      map[int64]*subscriber[M]
	nextSubID int64
	shutdown  bool

	pendingMu sync.Mutex
	pending   map[uuid.UUID]chan Envelope[M]

	onDroppedSubscriber func(id int64)
}

// NewBroker builds a Broker with the given config.
func NewBroker[M Message](cfg BrokerConfig) *Broker[M] {
	if cfg.SubscriberCapacity <= 0 {
		cfg.SubscriberCapacity = 1
	}
	return &Broker[M]{
		cfg:     cfg,
		subs:    make(map[int64]*subscriber[M]),
		pending: make(map[uuid.UUID]chan Envelope[M]),
	}
}

// OnDroppedSubscriber registers a callback invoked whenever a
// subscriber is unsubscribed for exceeding its high-water mark.
func (b *Broker[M]) OnDroppedSubscriber(fn func(id int64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onDroppedSubscriber = fn
}

// Subscription is a live subscriber stream; Close auto-unsubscribes.
type Subscription[M Message] struct {
	id     int64
	ch     <-chan Envelope[M]
	broker *Broker[M]
}

// C returns the channel new envelopes arrive on.
func (s *Subscription[M]) C() <-chan Envelope[M] { return s.ch }

// Close unsubscribes; safe to call multiple times.
func (s *Subscription[M]) Close() {
	s.broker.unsubscribe(s.id)
}

// Subscribe returns a new subscriber stream. Dropping the Subscription
// (calling Close) auto-unsubscribes.
func (b *Broker[M]) Subscribe() *Subscription[M] {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSubID
	b.nextSubID++
	ch := make(chan Envelope[M], b.cfg.SubscriberCapacity)
	b.subs[id] = &subscriber[M]{id: id, ch: ch}
	return &Subscription[M]{id: id, ch: ch, broker: b}
}

func (b *Broker[M]) unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// ErrBrokerShutdown is returned by Publish once the broker has been shut
// down.
var ErrBrokerShutdown = brokerShutdownError{}

type brokerShutdownError struct{}

func (brokerShutdownError) Error() string { return "rt: broker is shut down" }

// Publish broadcasts env to every active subscriber stream. Per-
// subscriber delivery is non-blocking: a subscriber whose channel is at
// its high-water mark is dropped (unsubscribed) rather than allowed to
// stall every other subscriber.
func (b *Broker[M]) Publish(env Envelope[M]) error {
	b.mu.RLock()
	if b.shutdown {
		b.mu.RUnlock()
		return ErrBrokerShutdown
	}
	subs := make([]*subscriber[M], 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	dropCB := b.onDroppedSubscriber
	b.mu.RUnlock()

	var dropped []int64
	for _, s := range subs {
		select {
		case s.ch <- env:
		default:
			dropped = append(dropped, s.id)
		}
	}
	for _, id := range dropped {
		b.unsubscribe(id)
		if dropCB != nil {
			dropCB(id)
		}
	}
	return nil
}

// Shutdown marks the broker shut down; subsequent Publish calls fail.
// Existing subscriber channels are closed.
func (b *Broker[M]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shutdown = true
	for id, s := range b.subs {
		close(s.ch)
		delete(b.subs, id)
	}
}

// ErrRequestTimeout is returned by PublishRequest when the response
// timeout expires before any reply arrives.
var ErrRequestTimeout = requestTimeoutError{}

type requestTimeoutError struct{}

func (requestTimeoutError) Error() string { return "rt: request timed out" }

// PublishRequest generates a correlation id, publishes env carrying it,
// then blocks the calling goroutine on a one-shot channel keyed by that
// id until either a matching response arrives via CompleteRequest or
// timeout elapses, in which case it returns ErrRequestTimeout.
func (b *Broker[M]) PublishRequest(env Envelope[M], timeout time.Duration) (*Envelope[M], error) {
	corrID := uuid.New()
	env = env.WithCorrelationID(corrID)

	replyCh := make(chan Envelope[M], 1)
	b.pendingMu.Lock()
	b.pending[corrID] = replyCh
	b.pendingMu.Unlock()
	defer func() {
		b.pendingMu.Lock()
		delete(b.pending, corrID)
		b.pendingMu.Unlock()
	}()

	if err := b.Publish(env); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case resp := <-replyCh:
		return &resp, nil
	case <-timer.C:
		return nil, ErrRequestTimeout
	}
}

// CompleteRequest delivers resp to the pending PublishRequest call
// registered under resp's correlation id, if any is still awaiting it.
// It reports whether a pending request was found.
func (b *Broker[M]) CompleteRequest(resp Envelope[M]) bool {
	if resp.CorrelationID == nil {
		return false
	}
	b.pendingMu.Lock()
	ch, ok := b.pending[*resp.CorrelationID]
	if ok {
		delete(b.pending, *resp.CorrelationID)
	}
	b.pendingMu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- resp:
		return true
	default:
		return false
	}
}
