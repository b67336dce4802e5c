// Package guard gates navigation to authenticated-only views. It is a
// pure decision layer: callers render, redirect, or wait based on the
// returned decision.
package guard

import (
	"net/url"

	"savora/internal/session"
)

// Decision is the outcome of evaluating a navigation attempt.
type Decision int

const (
	// DecisionPending means session hydration has not finished; render
	// nothing yet rather than bouncing a signed-in user to sign-in.
	DecisionPending Decision = iota
	// DecisionAllow renders the protected view.
	DecisionAllow
	// DecisionRedirect navigates to the sign-in route.
	DecisionRedirect
)

func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionRedirect:
		return "redirect"
	default:
		return "pending"
	}
}

// Result carries the decision plus, on redirect, where to go and the
// originally requested path so sign-in can return the user afterward.
type Result struct {
	Decision   Decision
	RedirectTo string
	From       string
}

// Guard evaluates one scope's session against a sign-in route.
type Guard struct {
	sessions   *session.Store
	scope      session.Scope
	signInPath string
}

// New builds a guard for the given scope. signInPath is where anonymous
// visitors are sent.
func New(sessions *session.Store, scope session.Scope, signInPath string) *Guard {
	return &Guard{sessions: sessions, scope: scope, signInPath: signInPath}
}

// Evaluate decides whether the view at path may render. The token expiry
// check runs first so a stale session is cleared before any other route
// logic sees it.
func (g *Guard) Evaluate(path string) Result {
	g.sessions.CheckExpiry(g.scope)

	switch g.sessions.State(g.scope) {
	case session.StateAuthenticated:
		return Result{Decision: DecisionAllow}
	case session.StatePending:
		return Result{Decision: DecisionPending}
	default:
		return Result{
			Decision:   DecisionRedirect,
			RedirectTo: g.signInPath + "?from=" + url.QueryEscape(path),
			From:       path,
		}
	}
}
