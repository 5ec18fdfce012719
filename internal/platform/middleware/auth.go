package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "afilia/pkg/domain-errors"
	"afilia/pkg/platform/httputil"
)

// Claims is the subset of token claims middleware exposes to handlers.
type Claims struct {
	ClientID string
	JTI      string
}

// JWTValidator validates a bearer token and returns its claims.
type JWTValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

type contextKeyClientID struct{}

// GetClientID retrieves the authenticated client id from the context.
func GetClientID(ctx context.Context) string {
	v, _ := ctx.Value(contextKeyClientID{}).(string)
	return v
}

// RequireAuth enforces a valid bearer token on every request and stores the
// client id in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			claims, err := validator.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.WarnContext(r.Context(), "token validation failed",
					"request_id", GetRequestID(r.Context()),
					"error", err.Error(),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyClientID{}, claims.ClientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
