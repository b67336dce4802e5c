package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CheckExpiry force-logs-out the scope when its token carries an exp claim
// in the past. It returns true when a logout was dispatched. Opaque or
// claim-less tokens are left alone; the backend settles those with a 401.
func (s *Store) CheckExpiry(scope Scope) bool {
	token, ok := s.Token(scope)
	if !ok {
		return false
	}
	if !tokenExpired(token, s.now()) {
		return false
	}
	s.Logout(scope)
	return true
}

// tokenExpired decodes the exp claim without verifying the signature. The
// client never holds the signing key; this is a liveness hint only, the
// backend remains the authority.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
