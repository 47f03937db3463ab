package osl

import (
	"time"

	"github.com/airsstack/airssys/pkg/osl/security"
)

// SecurityMiddleware evaluates a security.Set against every Operation
// before it reaches the executor, and emits an audit record for the
// decision regardless of outcome.
type SecurityMiddleware[Op any, Out any] struct {
	Policies security.Set
	Auditor  Auditor
	// Resource/Permission extract the (resource, permission) pair a
	// given Op requests; defaults apply when Op is osl.Operation.
	Resource   func(Op) string
	Permission func(Op) string
}

// NewSecurityMiddleware builds a SecurityMiddleware for osl.Operation,
// wiring Resource/Permission extraction to the Operation's own fields.
func NewSecurityMiddleware(policies security.Set, auditor Auditor) *SecurityMiddleware[Operation, ExecutionResult] {
	return &SecurityMiddleware[Operation, ExecutionResult]{
		Policies: policies,
		Auditor:  auditor,
		Resource: func(op Operation) string { return op.Resource },
		Permission: func(op Operation) string {
			if len(op.Permissions) == 0 {
				return ""
			}
			return string(op.Permissions[0])
		},
	}
}

func (m *SecurityMiddleware[Op, Out]) Name() string { return "security" }

func (m *SecurityMiddleware[Op, Out]) BeforeExecution(ec ExecutionContext, op Op) BeforeResult[Op] {
	resource := m.Resource(op)
	permission := m.Permission(op)

	verdict := m.Policies.Evaluate(security.Request{
		Principal:  ec.Security.Principal,
		Resource:   resource,
		Permission: permission,
	})

	record := AuditRecord{
		Timestamp:     time.Now().UTC(),
		Principal:     ec.Security.Principal,
		OperationID:   operationID(op),
		Resource:      resource,
		Permission:    permission,
		PolicyApplied: verdict.Policy,
		Reason:        verdict.Reason,
	}

	if verdict.Decision == security.Deny {
		record.EventType = EventAccessDenied
		record.Decision = "Deny(" + verdict.Reason + ")"
		_ = m.Auditor.Record(record)
		return RejectWithPolicy[Op](verdict.Policy, verdict.Reason)
	}

	record.EventType = EventAccessGranted
	record.Decision = "Allow"
	_ = m.Auditor.Record(record)
	return Pass(op)
}

func (m *SecurityMiddleware[Op, Out]) AfterExecution(ec ExecutionContext, result Out) (Out, error) {
	return result, nil
}

func (m *SecurityMiddleware[Op, Out]) HandleError(ec ExecutionContext, err error) ErrorAction {
	return ActionLogAndContinue
}
