package transport

import (
	"context"

	"savora/internal/session"
)

type contextKey int

const scopeKey contextKey = iota

// WithScope marks a request as issued on behalf of the given identity.
// Every API operation sets this; the guard then never has to guess which
// token a 401 belongs to.
func WithScope(ctx context.Context, scope session.Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// ScopeFromContext returns the request scope and whether one was set.
func ScopeFromContext(ctx context.Context) (session.Scope, bool) {
	scope, ok := ctx.Value(scopeKey).(session.Scope)
	return scope, ok
}

// FallbackPolicy decides which identity supplies the token for the rare
// request that carries no explicit scope. This replaces the accidental
// "admin always wins" ordering with a documented, configurable choice.
type FallbackPolicy string

const (
	// PreferUser tries the customer token first, then the admin token.
	PreferUser FallbackPolicy = "prefer_user"
	// PreferAdmin tries the admin token first, then the customer token.
	PreferAdmin FallbackPolicy = "prefer_admin"
)

// order returns the scopes to try, highest priority first.
func (p FallbackPolicy) order() [2]session.Scope {
	if p == PreferAdmin {
		return [2]session.Scope{session.ScopeAdmin, session.ScopeUser}
	}
	return [2]session.Scope{session.ScopeUser, session.ScopeAdmin}
}
