// ABOUTME: Authenticated principal carried through request handling
// ABOUTME: Provides WithPrincipal/PrincipalFromContext for propagating identity via context

package auth

import "context"

// Principal is the identity behind a request that passed Authenticate.
type Principal struct {
	Name      string
	Privilege Privilege
}

// IsAdmin reports whether the principal holds Admin.
func (p *Principal) IsAdmin() bool {
	return p != nil && AtLeast(p.Privilege, Admin)
}

// principalContextKey is the key type for storing a Principal in context.Context.
type principalContextKey struct{}

// WithPrincipal returns a new context with the principal attached.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext retrieves the principal, returning nil if not present.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
