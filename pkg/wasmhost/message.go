package wasmhost

import (
	"github.com/google/uuid"

	"github.com/airsstack/airssys/pkg/rt"
)

// Message is the rt.Message payload a component actor's mailbox
// carries: either an invocation request (Function set) or its response
// (Output set), distinguished by Kind. CorrelationID travels with the
// payload itself, not just the delivering envelope, because
// rt.ActorSystem's dispatch hands an actor's HandleMessage only the
// payload, never the envelope; a component actor echoing a response has
// no other way to recover which request it is answering.
type Message struct {
	Kind          string
	Function      string
	Args          []byte
	Output        []byte
	Err           string
	Priority      rt.Priority
	CorrelationID *uuid.UUID
}

const (
	KindInvoke   = "wasmhost.invoke"
	KindResponse = "wasmhost.response"
)

func (m Message) MessageType() string { return m.Kind }

func (m Message) MessagePriority() rt.Priority {
	return m.Priority
}

// NewInvocation builds a KindInvoke Message calling fn with args.
func NewInvocation(fn string, args []byte) Message {
	return Message{Kind: KindInvoke, Function: fn, Args: args, Priority: rt.PriorityNormal}
}

// NewResponse builds a KindResponse Message carrying output, or err if
// the invocation failed.
func NewResponse(output []byte, err error) Message {
	m := Message{Kind: KindResponse, Output: output, Priority: rt.PriorityNormal}
	if err != nil {
		m.Err = err.Error()
	}
	return m
}

// WithCorrelationID returns a copy of m carrying id, for the requester
// to stamp on an outgoing invocation and the responder to echo back.
func (m Message) WithCorrelationID(id uuid.UUID) Message {
	m.CorrelationID = &id
	return m
}
