package shared

import "context"

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context. Only the HTTP
// boundary uses this; services receive the principal as an explicit
// argument.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
