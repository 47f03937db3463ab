// Package osl implements the capability-secured operation pipeline: a
// generic Executor wrapped by an ordered chain of Middleware, guarding
// every privileged action (filesystem, process, network, …) behind
// security policy evaluation and audit logging.
package osl

import "time"

// Kind identifies the category of a privileged action an Operation
// requests.
type Kind string

const (
	KindFilesystem Kind = "filesystem"
	KindProcess    Kind = "process"
	KindNetwork    Kind = "network"
	KindStorage    Kind = "storage"
	KindMessaging  Kind = "messaging"
)

// Permission is a typed permission token an Operation requires and a
// SecurityPolicy grants or denies.
type Permission string

// Operation is a polymorphic request for a privileged action. It is
// immutable once constructed; middleware may produce a transformed copy
// but never mutate the original in place.
type Operation struct {
	ID          string
	Kind        Kind
	Resource    string
	Permissions []Permission
	CreatedAt   time.Time
	Payload     any
}

// RequestsPermission reports whether p is among op's required
// permissions.
func (op Operation) RequestsPermission(p Permission) bool {
	for _, have := range op.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// WithPayload returns a copy of op carrying a new payload, leaving the
// receiver untouched.
func (op Operation) WithPayload(payload any) Operation {
	out := op
	out.Payload = payload
	return out
}
