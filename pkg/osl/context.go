package osl

import (
	"context"
	"time"
)

// SecurityContext carries the caller's identity and an arbitrary
// string-keyed attribute bag consulted by security policies.
type SecurityContext struct {
	Principal  string
	Attributes map[string]string
}

// Attribute returns the named attribute and whether it was set.
func (sc SecurityContext) Attribute(key string) (string, bool) {
	if sc.Attributes == nil {
		return "", false
	}
	v, ok := sc.Attributes[key]
	return v, ok
}

// ExecutionContext is the per-call ambient state threaded through a
// pipeline invocation. It is cloneable by value and must never be shared
// mutably across goroutines; callers that need per-task isolation should
// copy via Clone.
type ExecutionContext struct {
	Context  context.Context
	Security SecurityContext
	Deadline time.Time
	Metadata map[string]string
}

// NewExecutionContext builds an ExecutionContext rooted at ctx for the
// given principal.
func NewExecutionContext(ctx context.Context, principal string) ExecutionContext {
	return ExecutionContext{
		Context:  ctx,
		Security: SecurityContext{Principal: principal},
		Metadata: map[string]string{},
	}
}

// Clone returns a value copy of ec with its metadata map independently
// allocated, so mutating the clone never affects the original.
func (ec ExecutionContext) Clone() ExecutionContext {
	out := ec
	out.Metadata = make(map[string]string, len(ec.Metadata))
	for k, v := range ec.Metadata {
		out.Metadata[k] = v
	}
	if ec.Security.Attributes != nil {
		out.Security.Attributes = make(map[string]string, len(ec.Security.Attributes))
		for k, v := range ec.Security.Attributes {
			out.Security.Attributes[k] = v
		}
	}
	return out
}

// WithDeadline returns a copy of ec with its context bound to d and the
// Deadline field set accordingly. The returned cancel func must be
// called by the caller once the operation completes.
func (ec ExecutionContext) WithDeadline(d time.Time) (ExecutionContext, context.CancelFunc) {
	out := ec.Clone()
	childCtx, cancel := context.WithDeadline(ec.Context, d)
	out.Context = childCtx
	out.Deadline = d
	return out, cancel
}
