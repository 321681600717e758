package httpx

import (
	"context"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
)

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores the authenticated principal on the context.
func WithPrincipal(ctx context.Context, p domainauth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (domainauth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(domainauth.Principal)
	return p, ok
}
