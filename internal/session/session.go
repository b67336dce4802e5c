// Package session is the single source of truth for who is signed in.
// Customer and back-office identities have independent lifecycles and are
// persisted across restarts through a Persister.
package session

import (
	"log/slog"
	"sync"
	"time"

	"savora/internal/models"
	"savora/pkg/apierrors"
)

// Scope selects one of the two independent identities.
type Scope string

const (
	ScopeUser  Scope = "user"
	ScopeAdmin Scope = "admin"
)

// State is the tri-state authentication status. Pending means hydration
// from durable storage has not finished yet; callers that gate navigation
// must not treat Pending as Anonymous.
type State int

const (
	StatePending State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "pending"
	}
}

type account struct {
	state   State
	user    *models.User
	token   string
	errMsg  string
	loading bool
}

// Store holds both identities behind one mutex. The only writers are the
// explicit operations below; everything else reads.
type Store struct {
	mu        sync.RWMutex
	user      account
	admin     account
	persister Persister
	now       func() time.Time
	log       *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPersister enables durable persistence of credentials.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithClock injects the time source used by expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger for persistence failures.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore creates a store in the Pending state. Call Hydrate to resolve
// it; without a persister Hydrate resolves both scopes to Anonymous.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate restores persisted credentials and resolves the Pending state.
// It is called once at startup, before any route evaluation.
func (s *Store) Hydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = account{state: StateAnonymous}
	s.admin = account{state: StateAnonymous}

	if s.persister == nil {
		return nil
	}

	snap, err := s.persister.Load()
	if err != nil {
		// Resolved to anonymous above: a corrupt state file must not
		// leave the store stuck in Pending.
		return apierrors.Wrap(err, apierrors.CodeInternal, "hydrate session state")
	}
	if snap.Auth != nil {
		s.user = account{state: StateAuthenticated, user: &snap.Auth.User, token: snap.Auth.Token}
	}
	if snap.Admin != nil {
		s.admin = account{state: StateAuthenticated, user: &snap.Admin.User, token: snap.Admin.Token}
	}
	return nil
}

// SetCredentials records a successful login or signup outcome. The caller
// guarantees the shape; only presence is checked here so the
// token-iff-authenticated invariant cannot be violated.
func (s *Store) SetCredentials(scope Scope, user models.User, token string) error {
	if token == "" {
		return apierrors.New(apierrors.CodeValidation, "token is required")
	}
	if user.ID == "" {
		return apierrors.New(apierrors.CodeValidation, "user id is required")
	}

	s.mu.Lock()
	acct := s.accountLocked(scope)
	*acct = account{state: StateAuthenticated, user: &user, token: token}
	s.persistLocked()
	s.mu.Unlock()
	return nil
}

// Logout resets the scope to anonymous. Calling it on an already
// anonymous scope is a no-op with the same resulting state.
func (s *Store) Logout(scope Scope) {
	s.mu.Lock()
	acct := s.accountLocked(scope)
	*acct = account{state: StateAnonymous}
	s.persistLocked()
	s.mu.Unlock()
}

// Token returns the bearer token for the scope, if authenticated.
func (s *Store) Token(scope Scope) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct := s.accountLocked(scope)
	if acct.state != StateAuthenticated {
		return "", false
	}
	return acct.token, true
}

// State returns the tri-state status for the scope.
func (s *Store) State(scope Scope) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountLocked(scope).state
}

// IsAuthenticated reports whether the scope holds valid credentials.
func (s *Store) IsAuthenticated(scope Scope) bool {
	return s.State(scope) == StateAuthenticated
}

// CurrentUser returns the profile for the scope, if authenticated.
func (s *Store) CurrentUser(scope Scope) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct := s.accountLocked(scope)
	if acct.state != StateAuthenticated || acct.user == nil {
		return models.User{}, false
	}
	return *acct.user, true
}

// SetError records a transient UI-facing error message.
func (s *Store) SetError(scope Scope, msg string) {
	s.mu.Lock()
	s.accountLocked(scope).errMsg = msg
	s.mu.Unlock()
}

// Err returns the transient error message for the scope.
func (s *Store) Err(scope Scope) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountLocked(scope).errMsg
}

// ClearError drops the transient error message.
func (s *Store) ClearError(scope Scope) {
	s.SetError(scope, "")
}

// SetLoading flags an in-flight auth operation for the scope.
func (s *Store) SetLoading(scope Scope, loading bool) {
	s.mu.Lock()
	s.accountLocked(scope).loading = loading
	s.mu.Unlock()
}

// Loading reports whether an auth operation is in flight.
func (s *Store) Loading(scope Scope) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountLocked(scope).loading
}

func (s *Store) accountLocked(scope Scope) *account {
	if scope == ScopeAdmin {
		return &s.admin
	}
	return &s.user
}

// persistLocked writes the credential whitelist. Persistence failures are
// logged, not surfaced: losing durability must not block a logout.
func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	snap := Snapshot{}
	if s.user.state == StateAuthenticated && s.user.user != nil {
		snap.Auth = &Credentials{User: *s.user.user, Token: s.user.token}
	}
	if s.admin.state == StateAuthenticated && s.admin.user != nil {
		snap.Admin = &Credentials{User: *s.admin.user, Token: s.admin.token}
	}
	if err := s.persister.Save(snap); err != nil && s.log != nil {
		s.log.Error("persist session state", "error", err)
	}
}
