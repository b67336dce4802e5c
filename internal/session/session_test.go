package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savora/internal/models"
)

func testUser() models.User {
	return models.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: models.RoleUser}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestStore_PendingUntilHydrated(t *testing.T) {
	s := NewStore()

	assert.Equal(t, StatePending, s.State(ScopeUser))
	assert.Equal(t, StatePending, s.State(ScopeAdmin))

	require.NoError(t, s.Hydrate())

	assert.Equal(t, StateAnonymous, s.State(ScopeUser))
	assert.Equal(t, StateAnonymous, s.State(ScopeAdmin))
}

func TestStore_SetCredentials(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Hydrate())

	require.NoError(t, s.SetCredentials(ScopeUser, testUser(), "tok-1"))

	assert.True(t, s.IsAuthenticated(ScopeUser))
	token, ok := s.Token(ScopeUser)
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)

	user, ok := s.CurrentUser(ScopeUser)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", user.Email)

	// The admin scope has its own lifecycle and stays untouched.
	assert.False(t, s.IsAuthenticated(ScopeAdmin))
}

func TestStore_SetCredentialsRequiresTokenAndUser(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Hydrate())

	assert.Error(t, s.SetCredentials(ScopeUser, testUser(), ""))
	assert.Error(t, s.SetCredentials(ScopeUser, models.User{}, "tok"))
	assert.False(t, s.IsAuthenticated(ScopeUser))
}

func TestStore_TokenIffAuthenticated(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Hydrate())

	_, ok := s.Token(ScopeUser)
	assert.False(t, ok)

	require.NoError(t, s.SetCredentials(ScopeUser, testUser(), "tok-1"))
	_, ok = s.Token(ScopeUser)
	assert.True(t, ok)

	s.Logout(ScopeUser)
	_, ok = s.Token(ScopeUser)
	assert.False(t, ok)
}

func TestStore_LogoutIdempotent(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Hydrate())
	require.NoError(t, s.SetCredentials(ScopeUser, testUser(), "tok-1"))

	s.Logout(ScopeUser)
	first := s.State(ScopeUser)
	s.Logout(ScopeUser)

	assert.Equal(t, first, s.State(ScopeUser))
	assert.Equal(t, StateAnonymous, s.State(ScopeUser))
	_, ok := s.Token(ScopeUser)
	assert.False(t, ok)
	_, ok = s.CurrentUser(ScopeUser)
	assert.False(t, ok)
}

func TestStore_TransientErrorAndLoading(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Hydrate())

	s.SetError(ScopeUser, "invalid credentials")
	assert.Equal(t, "invalid credentials", s.Err(ScopeUser))
	s.ClearError(ScopeUser)
	assert.Empty(t, s.Err(ScopeUser))

	s.SetLoading(ScopeUser, true)
	assert.True(t, s.Loading(ScopeUser))
	s.SetLoading(ScopeUser, false)
	assert.False(t, s.Loading(ScopeUser))
}

func TestCheckExpiry_ExpiredTokenForcesLogout(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(func() time.Time { return now }))
	require.NoError(t, s.Hydrate())

	expired := signedToken(t, now.Add(-time.Hour))
	require.NoError(t, s.SetCredentials(ScopeUser, testUser(), expired))

	assert.True(t, s.CheckExpiry(ScopeUser))
	assert.Equal(t, StateAnonymous, s.State(ScopeUser))

	// Second check is a no-op: there is nothing left to expire.
	assert.False(t, s.CheckExpiry(ScopeUser))
}

func TestCheckExpiry_FreshTokenKeepsSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(WithClock(func() time.Time { return now }))
	require.NoError(t, s.Hydrate())

	fresh := signedToken(t, now.Add(time.Hour))
	require.NoError(t, s.SetCredentials(ScopeUser, testUser(), fresh))

	assert.False(t, s.CheckExpiry(ScopeUser))
	assert.True(t, s.IsAuthenticated(ScopeUser))
}

func TestCheckExpiry_OpaqueTokenLeftToBackend(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Hydrate())
	require.NoError(t, s.SetCredentials(ScopeUser, testUser(), "opaque-token"))

	assert.False(t, s.CheckExpiry(ScopeUser))
	assert.True(t, s.IsAuthenticated(ScopeUser))
}

func TestStore_HydrateRestoresPersistedScopes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	persister := NewFileStore(path)

	s := NewStore(WithPersister(persister))
	require.NoError(t, s.Hydrate())
	require.NoError(t, s.SetCredentials(ScopeUser, testUser(), "tok-user"))
	admin := models.User{ID: "a1", Name: "Root", Email: "root@example.com", Role: models.RoleAdmin}
	require.NoError(t, s.SetCredentials(ScopeAdmin, admin, "tok-admin"))

	restored := NewStore(WithPersister(NewFileStore(path)))
	assert.Equal(t, StatePending, restored.State(ScopeUser))
	require.NoError(t, restored.Hydrate())

	assert.True(t, restored.IsAuthenticated(ScopeUser))
	assert.True(t, restored.IsAuthenticated(ScopeAdmin))
	token, _ := restored.Token(ScopeAdmin)
	assert.Equal(t, "tok-admin", token)
}

func TestStore_LogoutClearsPersistedScope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := NewStore(WithPersister(NewFileStore(path)))
	require.NoError(t, s.Hydrate())
	require.NoError(t, s.SetCredentials(ScopeUser, testUser(), "tok-user"))
	s.Logout(ScopeUser)

	restored := NewStore(WithPersister(NewFileStore(path)))
	require.NoError(t, restored.Hydrate())
	assert.Equal(t, StateAnonymous, restored.State(ScopeUser))
}

func TestFileStore_MissingFileIsEmptySnapshot(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	snap, err := fs.Load()
	require.NoError(t, err)
	assert.Nil(t, snap.Auth)
	assert.Nil(t, snap.Admin)
}
