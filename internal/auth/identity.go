package auth

import "context"

// Capability is a privileged action a caller may be allowed to perform.
type Capability string

// Capabilities.
const (
	// CapCreateItem allows reporting found items.
	CapCreateItem Capability = "item:create"
	// CapSetClaimed allows changing an item's claimed status.
	CapSetClaimed Capability = "item:set-claimed"
)

// Identity describes the caller of a request. The zero value is anonymous.
type Identity struct {
	UserID   int64
	Username string
	IsStaff  bool
}

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = Identity{}

// Authenticated reports whether the identity belongs to a user.
func (i Identity) Authenticated() bool {
	return i.UserID != 0
}

// Can reports whether the identity holds the capability.
func (i Identity) Can(c Capability) bool {
	if !i.Authenticated() {
		return false
	}
	switch c {
	case CapCreateItem:
		return true
	case CapSetClaimed:
		return i.IsStaff
	}
	return false
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok {
		return Anonymous
	}
	return id
}
