package osl

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/airsstack/airssys/pkg/telemetry"
)

// BeforeAction is the disposition a Middleware's BeforeExecution hook
// assigns to an Operation.
type BeforeAction int

const (
	// BeforePass lets the (possibly transformed) operation continue on
	// to the next middleware, or the executor if this was the last one.
	BeforePass BeforeAction = iota
	// BeforeReject silently drops the operation from the executor's
	// perspective; the caller still sees an error carrying Reason.
	BeforeReject
	// BeforeFatal short-circuits the whole call with Err.
	BeforeFatal
)

// BeforeResult is the outcome of a Middleware's BeforeExecution hook.
// Policy, when set on a BeforeReject outcome, names the specific
// decision procedure that produced the denial (an ACL, an RBAC role
// set); it defaults to the middleware's own name otherwise.
type BeforeResult[Op any] struct {
	Op     Op
	Action BeforeAction
	Policy string
	Reason string
	Err    error
}

// Pass wraps op as a BeforePass outcome, the common case.
func Pass[Op any](op Op) BeforeResult[Op] {
	return BeforeResult[Op]{Op: op, Action: BeforePass}
}

// Reject produces a BeforeReject outcome carrying reason.
func Reject[Op any](reason string) BeforeResult[Op] {
	return BeforeResult[Op]{Action: BeforeReject, Reason: reason}
}

// RejectWithPolicy produces a BeforeReject outcome attributing the
// denial to the named policy rather than the middleware as a whole.
func RejectWithPolicy[Op any](policy, reason string) BeforeResult[Op] {
	return BeforeResult[Op]{Action: BeforeReject, Policy: policy, Reason: reason}
}

// Fatal produces a BeforeFatal outcome carrying err.
func Fatal[Op any](err error) BeforeResult[Op] {
	return BeforeResult[Op]{Action: BeforeFatal, Err: err}
}

// ErrorAction is a middleware's decision for how the pipeline should
// proceed after any stage produces an error.
type ErrorAction int

const (
	// ActionContinue propagates the error unchanged.
	ActionContinue ErrorAction = iota
	// ActionLogAndContinue records the error via the pipeline's auditor,
	// then propagates it unchanged.
	ActionLogAndContinue
	// ActionRetry re-enters the pipeline at BeforeExecution; the
	// retrying middleware owns its own retry budget.
	ActionRetry
	// ActionSuppress converts the error into a documented sentinel
	// success (ExitSuppressed).
	ActionSuppress
)

// Middleware is a named hook set operating on a specific Op/Out pair.
// A Pipeline composes an ordered list of these: the first-wrapped
// middleware is outermost, running its BeforeExecution first and its
// AfterExecution last.
type Middleware[Op any, Out any] interface {
	Name() string
	BeforeExecution(ec ExecutionContext, op Op) BeforeResult[Op]
	// AfterExecution may observe result but only replaces it by
	// returning an explicit (result, nil) or (zero, err) pair.
	AfterExecution(ec ExecutionContext, result Out) (Out, error)
	HandleError(ec ExecutionContext, err error) ErrorAction
}

// Pipeline wraps an Executor with an ordered middleware chain.
// Middlewares run in registration order for BeforeExecution and in
// reverse order for AfterExecution/HandleError: the first-registered
// middleware is outermost.
type Pipeline[Op any, Out any] struct {
	executor    Executor[Op, Out]
	middlewares []Middleware[Op, Out]
	auditor     Auditor
	debug       bool
	tracer      trace.Tracer
}

// New builds a Pipeline around executor with no middleware attached.
func New[Op any, Out any](executor Executor[Op, Out]) *Pipeline[Op, Out] {
	return &Pipeline[Op, Out]{executor: executor, auditor: NopAuditor{}, tracer: telemetry.NoopTracer()}
}

// WithTracer sets the Tracer every Execute call's before/execute/after
// protocol is recorded under as a single span. Defaults to a no-op
// tracer, so calling WithTracer is optional.
func (p *Pipeline[Op, Out]) WithTracer(t trace.Tracer) *Pipeline[Op, Out] {
	p.tracer = t
	return p
}

// Wrap appends mw to the chain, returning the same Pipeline for
// fluent composition, e.g. New(exec).Wrap(sec).Wrap(cb).
func (p *Pipeline[Op, Out]) Wrap(mw Middleware[Op, Out]) *Pipeline[Op, Out] {
	p.middlewares = append(p.middlewares, mw)
	return p
}

// WithAuditor sets the Auditor that errors a middleware answers with
// ActionLogAndContinue are recorded to. Security decisions are recorded
// by the security middleware's own Auditor, not this one. Defaults to
// NopAuditor.
func (p *Pipeline[Op, Out]) WithAuditor(a Auditor) *Pipeline[Op, Out] {
	p.auditor = a
	return p
}

// WithDebug enables end-of-call auditor flushing: in debug mode every
// Execute call ends with Auditor.Flush.
func (p *Pipeline[Op, Out]) WithDebug(debug bool) *Pipeline[Op, Out] {
	p.debug = debug
	return p
}

// CanExecute asks the wrapped executor whether it supports op's kind.
func (p *Pipeline[Op, Out]) CanExecute(op Op) bool {
	return p.executor.CanExecute(op)
}

// ValidateOperation performs static checks without running the executor.
func (p *Pipeline[Op, Out]) ValidateOperation(op Op) error {
	return p.executor.Validate(op)
}

// Execute runs the full before→execute→after protocol, retrying at
// BeforeExecution when a middleware's HandleError returns ActionRetry.
func (p *Pipeline[Op, Out]) Execute(ec ExecutionContext, op Op) (Out, error) {
	var zero Out
	if p.debug {
		defer p.auditor.Flush()
	}

	for {
		result, err := p.runOnce(ec, op)
		if err == nil {
			return result, nil
		}

		// Retry takes precedence over any other disposition since it
		// re-enters the whole pipeline; otherwise the most severe
		// action observed (Suppress > LogAndContinue > Continue) wins.
		action := ActionContinue
		for i := len(p.middlewares) - 1; i >= 0; i-- {
			a := p.middlewares[i].HandleError(ec, err)
			if a == ActionLogAndContinue {
				_ = p.auditor.Record(AuditRecord{
					Timestamp:   time.Now().UTC(),
					EventType:   EventError,
					OperationID: operationID(op),
					Decision:    "error",
					Reason:      err.Error(),
				})
			}
			if a == ActionRetry {
				action = ActionRetry
				break
			}
			if a > action {
				action = a
			}
		}

		switch action {
		case ActionRetry:
			continue
		case ActionSuppress:
			return suppressedResult[Out](), nil
		default:
			return zero, err
		}
	}
}

// suppressedResult produces the value ActionSuppress converts an error
// into. If Out implements Suppressible[Out] (ExecutionResult does, via
// ExitSuppressed), that documented sentinel is used so a suppressed
// error stays distinguishable from an ordinary success; otherwise Out's
// bare zero value is returned.
func suppressedResult[Out any]() Out {
	var zero Out
	if s, ok := any(zero).(Suppressible[Out]); ok {
		return s.Suppressed()
	}
	return zero
}

// Suppressible is optionally implemented by a Pipeline's Out type to
// supply the sentinel value ActionSuppress should produce instead of
// Out's bare zero value.
type Suppressible[Out any] interface {
	Suppressed() Out
}

// ExecuteWithTimeout runs Execute but fails with ExecutionFailed{timeout}
// if the total wall time exceeds timeout.
func (p *Pipeline[Op, Out]) ExecuteWithTimeout(ec ExecutionContext, op Op, timeout time.Duration) (Out, error) {
	var zero Out
	ec, cancel := ec.WithDeadline(time.Now().Add(timeout))
	defer cancel()

	type outcome struct {
		result Out
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := p.Execute(ec, op)
		done <- outcome{r, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-ec.Context.Done():
		return zero, NewExecutionFailed("Pipeline.ExecuteWithTimeout", "timeout", ErrTimeout)
	}
}

func (p *Pipeline[Op, Out]) runOnce(ec ExecutionContext, op Op) (out Out, err error) {
	spanCtx := ec.Context
	if spanCtx == nil {
		spanCtx = context.Background()
	}
	_, span := p.tracer.Start(spanCtx, "osl.pipeline.execute",
		trace.WithAttributes(attribute.String("operation.id", operationID(op))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	current := op
	for _, mw := range p.middlewares {
		br := mw.BeforeExecution(ec, current)
		switch br.Action {
		case BeforeReject:
			policy := br.Policy
			if policy == "" {
				policy = mw.Name()
			}
			return out, NewSecurityViolation("Pipeline.Execute", policy, br.Reason)
		case BeforeFatal:
			return out, NewSystemError("Pipeline.Execute", mw.Name(), br.Err)
		default:
			current = br.Op
		}
	}

	result, err := p.executor.Execute(ec, current)
	if err != nil {
		return out, err
	}

	for i := len(p.middlewares) - 1; i >= 0; i-- {
		result, err = p.middlewares[i].AfterExecution(ec, result)
		if err != nil {
			return out, err
		}
	}
	return result, nil
}

// operationID extracts a stable identifier for audit correlation.
// Op is generic; the osl.Operation type exposes ID directly, any other
// Op falls back to its %v representation.
func operationID(op any) string {
	if o, ok := op.(Operation); ok {
		return o.ID
	}
	return fmt.Sprintf("%v", op)
}
