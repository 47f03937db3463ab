package rt

import "github.com/google/uuid"

// AddressKind distinguishes a Named actor from an Anonymous one.
type AddressKind int

const (
	KindNamed AddressKind = iota
	KindAnonymous
)

// Address is an actor's stable routing identity: either Named(string,
// uuid) or Anonymous(uuid). Equality considers both the kind-specific
// name and the uuid.
type Address struct {
	Kind AddressKind
	Name string
	ID   uuid.UUID
}

// NewNamed builds a Named address with a freshly generated uuid.
func NewNamed(name string) Address {
	return Address{Kind: KindNamed, Name: name, ID: uuid.New()}
}

// NewAnonymous builds an Anonymous address with a freshly generated uuid.
func NewAnonymous() Address {
	return Address{Kind: KindAnonymous, ID: uuid.New()}
}

// Equal reports whether a and other refer to the same actor.
func (a Address) Equal(other Address) bool {
	return a.Kind == other.Kind && a.Name == other.Name && a.ID == other.ID
}

// String renders a human-readable form, e.g. "named(worker-1)#<uuid>" or
// "anon#<uuid>".
func (a Address) String() string {
	if a.Kind == KindNamed {
		return "named(" + a.Name + ")#" + a.ID.String()
	}
	return "anon#" + a.ID.String()
}
