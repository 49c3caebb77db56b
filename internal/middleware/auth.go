package middleware

import (
	"net/http"
	"strings"

	"github.com/onnwee/flatrank/internal/auth"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// RequireAuth is a middleware that authenticates requests with a JWT
// bearer token. On success the user ID (subject claim) is stored in the
// request context; on failure the request is rejected with 401.
// Refresh tokens are not accepted on API endpoints.
func RequireAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, r, "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				unauthorized(w, r, "invalid or expired token")
				return
			}
			if claims.Type != auth.TokenTypeAccess {
				unauthorized(w, r, "access token required")
				return
			}
			if claims.Subject == "" {
				unauthorized(w, r, "token has no subject")
				return
			}

			ctx := SetUserID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	ctx := SetErrorCode(r.Context(), "auth_failed")
	UpdateResponseContext(w, ctx)
	w.Header().Set("WWW-Authenticate", `Bearer realm="flatrank"`)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"auth_failed","message":"` + message + `"}}`))
}
