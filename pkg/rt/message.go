// Package rt implements the actor runtime: a pub-sub message broker, an
// actor system that owns mailboxes and a router task, and (in
// pkg/rt/supervisor) a supervision tree enforcing restart policies and
// rate limits.
package rt

// Priority is a message's delivery priority. The broker itself is
// priority-agnostic; Priority exists for executors and actors that want
// to triage their own mailbox processing order.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Message is a typed payload with a stable type identifier and a
// priority. The broker treats the payload as opaque; Type/Priority
// exist for routing and diagnostics layered on top of it.
type Message interface {
	MessageType() string
	MessagePriority() Priority
}
