package rt

import (
	"time"

	"github.com/google/uuid"
)

// Envelope wraps a Message with routing metadata. A message is expired
// iff now - Timestamp > TTL, when TTL is set.
type Envelope[M Message] struct {
	Payload       M
	Sender        *Address
	ReplyTo       *Address
	Timestamp     time.Time
	CorrelationID *uuid.UUID
	TTL           *time.Duration
}

// NewEnvelope wraps payload with a fresh timestamp and no routing
// metadata set.
func NewEnvelope[M Message](payload M) Envelope[M] {
	return Envelope[M]{Payload: payload, Timestamp: time.Now().UTC()}
}

// WithReplyTo returns a copy of e with ReplyTo set to addr.
func (e Envelope[M]) WithReplyTo(addr Address) Envelope[M] {
	out := e
	out.ReplyTo = &addr
	return out
}

// WithSender returns a copy of e with Sender set to addr.
func (e Envelope[M]) WithSender(addr Address) Envelope[M] {
	out := e
	out.Sender = &addr
	return out
}

// WithCorrelationID returns a copy of e with CorrelationID set to id.
func (e Envelope[M]) WithCorrelationID(id uuid.UUID) Envelope[M] {
	out := e
	out.CorrelationID = &id
	return out
}

// WithTTL returns a copy of e with a TTL set.
func (e Envelope[M]) WithTTL(ttl time.Duration) Envelope[M] {
	out := e
	out.TTL = &ttl
	return out
}

// Expired reports whether e has outlived its TTL as of now. An envelope
// with no TTL set never expires.
func (e Envelope[M]) Expired(now time.Time) bool {
	if e.TTL == nil {
		return false
	}
	return now.Sub(e.Timestamp) > *e.TTL
}
