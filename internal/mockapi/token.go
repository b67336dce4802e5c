package mockapi

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"savora/internal/models"
	"savora/pkg/apierrors"
)

// accessClaims are the claims the mock backend puts in its tokens.
type accessClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// tokenService issues and validates HS256 bearer tokens, enough to make
// the SDK's auth paths behave like the real backend.
type tokenService struct {
	signingKey []byte
	ttl        time.Duration
}

func newTokenService(key string, ttl time.Duration) *tokenService {
	return &tokenService{signingKey: []byte(key), ttl: ttl}
}

func (t *tokenService) issue(user models.User, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", apierrors.Wrap(err, apierrors.CodeInternal, "sign token")
	}
	return signed, nil
}

func (t *tokenService) validate(tokenString string) (*accessClaims, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apierrors.New(apierrors.CodeUnauthorized, "invalid or expired token")
	}
	return claims, nil
}
