package osl

import "time"

// EventKind is the kind of event an AuditRecord describes.
type EventKind string

const (
	EventAccessGranted EventKind = "AccessGranted"
	EventAccessDenied  EventKind = "AccessDenied"
	EventError         EventKind = "Error"
)

// AuditRecord is a persisted record of a policy decision. Every Auditor
// implementation consumes and emits this shape, regardless of sink.
type AuditRecord struct {
	Timestamp     time.Time         `json:"timestamp"`
	EventType     EventKind         `json:"event_type"`
	Principal     string            `json:"principal"`
	OperationID   string            `json:"operation_id"`
	Resource      string            `json:"resource"`
	Permission    string            `json:"permission"`
	Decision      string            `json:"decision"`
	PolicyApplied string            `json:"policy_applied"`
	Reason        string            `json:"reason,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Auditor receives structured audit records. Implementations live under
// pkg/osl/audit; Record must never block the caller on a slow sink for
// longer than the sink's own documented budget.
type Auditor interface {
	Record(rec AuditRecord) error
	// Flush forces any buffered records to their durable destination.
	Flush() error
}

// NopAuditor discards every record; useful as a zero-value default so
// callers need not nil-check the pipeline's auditor.
type NopAuditor struct{}

func (NopAuditor) Record(AuditRecord) error { return nil }
func (NopAuditor) Flush() error             { return nil }
