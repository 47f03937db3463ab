package wasmhost

import "fmt"

// ErrorKind classifies a wasmhost error, following the same kind-not-
// type taxonomy as pkg/osl.
type ErrorKind int

const (
	ComponentNotFound ErrorKind = iota
	LoadFailed
	ExecutionFailed
	CapabilityDenied
	AuditLogError
)

func (k ErrorKind) String() string {
	switch k {
	case ComponentNotFound:
		return "component_not_found"
	case LoadFailed:
		return "load_failed"
	case ExecutionFailed:
		return "execution_failed"
	case CapabilityDenied:
		return "capability_denied"
	case AuditLogError:
		return "audit_log_error"
	default:
		return "unknown"
	}
}

// Error is wasmhost's structured error wrapper: stable Op/Kind plus a
// wrapped cause, so errors.Is/errors.As work end-to-end.
type Error struct {
	Op      string
	Kind    ErrorKind
	ID      ComponentID
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("wasmhost: %s: %s [%s] %s", e.Op, e.Kind, e.ID, e.Message)
	}
	return fmt.Sprintf("wasmhost: %s: %s %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ExecutionFailureReason distinguishes why Invoke failed, carried in
// Error.Message for ExecutionFailed errors.
type ExecutionFailureReason string

const (
	ReasonFuelExhausted ExecutionFailureReason = "fuel"
	ReasonTimeout       ExecutionFailureReason = "timeout"
	ReasonTrap          ExecutionFailureReason = "trap"
)

// NewComponentNotFound builds a ComponentNotFound error for id.
func NewComponentNotFound(op string, id ComponentID) error {
	return &Error{Op: op, Kind: ComponentNotFound, ID: id, Message: "no such component"}
}

// NewLoadFailed wraps a component-load failure.
func NewLoadFailed(op string, id ComponentID, err error) error {
	return &Error{Op: op, Kind: LoadFailed, ID: id, Message: err.Error(), Err: err}
}

// NewExecutionFailed wraps an invocation failure, carrying the reason
// (fuel, timeout or trap) in Message.
func NewExecutionFailed(op string, id ComponentID, reason ExecutionFailureReason, err error) error {
	return &Error{Op: op, Kind: ExecutionFailed, ID: id, Message: string(reason), Err: err}
}

// NewCapabilityDenied reports a capability check denial on the
// host-function path.
func NewCapabilityDenied(op string, id ComponentID, resource, permission string) error {
	return &Error{
		Op:      op,
		Kind:    CapabilityDenied,
		ID:      id,
		Message: fmt.Sprintf("denied resource=%q permission=%q", resource, permission),
	}
}

// NewAuditLogError wraps a best-effort audit emission failure.
func NewAuditLogError(op string, id ComponentID, err error) error {
	return &Error{Op: op, Kind: AuditLogError, ID: id, Message: err.Error(), Err: err}
}
