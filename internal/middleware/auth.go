package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ldynamics/vidstore/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// ActorKey is the context key for the authenticated caller's subject.
const ActorKey contextKey = "actor"

// Actor returns the subject stored by RequireAuth, or "anonymous".
func Actor(ctx context.Context) string {
	if sub, ok := ctx.Value(ActorKey).(string); ok && sub != "" {
		return sub
	}
	return "anonymous"
}

// RequireAuth returns middleware that validates an HS256 Bearer JWT and
// injects its subject into the request context. An empty secret disables
// the check.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if jwtSecret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "authorization header required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				response.Unauthorized(w, "invalid or expired token")
				return
			}

			sub, err := token.Claims.GetSubject()
			if err != nil {
				response.Unauthorized(w, "invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), ActorKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
