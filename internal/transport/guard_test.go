package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savora/internal/models"
	"savora/internal/session"
)

func newSessions(t *testing.T) *session.Store {
	t.Helper()
	s := session.NewStore()
	require.NoError(t, s.Hydrate())
	return s
}

func login(t *testing.T, s *session.Store, scope session.Scope, token string) {
	t.Helper()
	user := models.User{ID: "u-" + string(scope), Email: string(scope) + "@example.com"}
	require.NoError(t, s.SetCredentials(scope, user, token))
}

func TestGuard_AttachesScopedToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	sessions := newSessions(t)
	login(t, sessions, session.ScopeUser, "user-token")
	login(t, sessions, session.ScopeAdmin, "admin-token")

	client := &http.Client{Transport: NewGuard(sessions)}

	req, err := http.NewRequestWithContext(
		WithScope(context.Background(), session.ScopeAdmin),
		http.MethodGet, srv.URL+"/admin/getAllOrders", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer admin-token", got)
}

func TestGuard_UnscopedFallbackPrefersUser(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	sessions := newSessions(t)
	login(t, sessions, session.ScopeUser, "user-token")
	login(t, sessions, session.ScopeAdmin, "admin-token")

	client := &http.Client{Transport: NewGuard(sessions)}
	resp, err := client.Get(srv.URL + "/users/get-all-products")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer user-token", got)
}

func TestGuard_FallbackPolicyPreferAdmin(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	sessions := newSessions(t)
	login(t, sessions, session.ScopeUser, "user-token")
	login(t, sessions, session.ScopeAdmin, "admin-token")

	client := &http.Client{Transport: NewGuard(sessions, WithFallbackPolicy(PreferAdmin))}
	resp, err := client.Get(srv.URL + "/anything")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer admin-token", got)
}

func TestGuard_AnonymousRequestHasNoHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewGuard(newSessions(t))}
	resp, err := client.Get(srv.URL + "/users/get-all-products")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, got)
}

func TestGuard_401ClearsOwningSessionOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sessions := newSessions(t)
	login(t, sessions, session.ScopeUser, "user-token")
	login(t, sessions, session.ScopeAdmin, "admin-token")

	client := &http.Client{Transport: NewGuard(sessions)}
	req, err := http.NewRequestWithContext(
		WithScope(context.Background(), session.ScopeUser),
		http.MethodGet, srv.URL+"/users/get-cart", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	// The caller still sees the 401; only the user session is cleared.
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, sessions.IsAuthenticated(session.ScopeUser))
	assert.True(t, sessions.IsAuthenticated(session.ScopeAdmin))
}

func TestGuard_401WithoutTokenLeavesSessionsAlone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sessions := newSessions(t)
	login(t, sessions, session.ScopeAdmin, "admin-token")

	client := &http.Client{Transport: NewGuard(sessions)}
	req, err := http.NewRequestWithContext(
		WithScope(context.Background(), session.ScopeUser),
		http.MethodGet, srv.URL+"/users/get-cart", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	// No token was attached for the user scope, so nothing to clear and
	// the admin session must not be blamed.
	assert.True(t, sessions.IsAuthenticated(session.ScopeAdmin))
}

func TestGuard_NeverRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sessions := newSessions(t)
	login(t, sessions, session.ScopeUser, "user-token")

	client := &http.Client{Transport: NewGuard(sessions)}
	req, err := http.NewRequestWithContext(
		WithScope(context.Background(), session.ScopeUser),
		http.MethodGet, srv.URL+"/users/get-cart", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, int32(1), calls.Load())
}

func TestGuard_DoesNotMutateCallerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	sessions := newSessions(t)
	login(t, sessions, session.ScopeUser, "user-token")

	client := &http.Client{Transport: NewGuard(sessions)}
	req, err := http.NewRequestWithContext(
		WithScope(context.Background(), session.ScopeUser),
		http.MethodGet, srv.URL+"/users/get-cart", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}
