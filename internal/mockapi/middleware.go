package mockapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"savora/internal/models"
	"savora/pkg/apierrors"
)

type contextKey int

const (
	claimsKey contextKey = iota
	deviceKey
)

// requireAuth validates the bearer token and enforces the role for the
// route group. The claims land in the request context for handlers.
func (s *Server) requireAuth(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				writeError(w, apierrors.New(apierrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			claims, err := s.tokens.validate(token)
			if err != nil {
				writeError(w, err)
				return
			}
			if claims.Role != role {
				writeError(w, apierrors.New(apierrors.CodeUnauthorized, "wrong token audience"))
				return
			}
			// A token outlives its account when the user is deleted.
			if _, ok := s.users.findByID(claims.Subject); !ok {
				writeError(w, apierrors.New(apierrors.CodeUnauthorized, "unknown account"))
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFrom(ctx context.Context) *accessClaims {
	claims, _ := ctx.Value(claimsKey).(*accessClaims)
	return claims
}

// deviceInfo is a compact description of the calling client, parsed from
// the User-Agent header.
type deviceInfo struct {
	Browser  string
	OS       string
	Platform string
}

// deviceMetadata parses the User-Agent once per request so logging and
// order records can name the client device.
func (s *Server) deviceMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.UserAgent()
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		ua := useragent.New(raw)
		browser, _ := ua.Browser()
		platform := "desktop"
		if ua.Mobile() {
			platform = "mobile"
		}
		info := deviceInfo{Browser: browser, OS: ua.OS(), Platform: platform}
		ctx := context.WithValue(r.Context(), deviceKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func deviceFrom(ctx context.Context) (deviceInfo, bool) {
	info, ok := ctx.Value(deviceKey).(deviceInfo)
	return info, ok
}

// rateLimit sheds load with 429 once the shared bucket is empty.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, apierrors.New(apierrors.CodeRateLimited, "too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if info, ok := deviceFrom(r.Context()); ok {
			args = append(args, "browser", info.Browser, "platform", info.Platform)
		}
		s.log.Info("request", args...)
	})
}
