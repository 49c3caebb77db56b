// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// Defaults cover the verbs and headers the ranking API actually serves.
// The route table is GET/POST/DELETE plus OPTIONS preflights, and every
// authenticated call carries a bearer token and a request ID.
var (
	defaultCORSMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodDelete,
		http.MethodOptions,
	}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", RequestIDHeader}
)

// CORSConfig holds the configuration for CORS middleware.
type CORSConfig struct {
	AllowedOrigins   []string // Explicit origin allowlist; empty disables CORS entirely
	AllowedMethods   []string // Defaults to the API's verbs when empty
	AllowedHeaders   []string // Defaults to Content-Type, Authorization, X-Request-ID when empty
	AllowCredentials bool     // Whether to allow cookies and auth headers cross-origin
	MaxAge           int      // Preflight cache duration in seconds
}

// CORS returns a middleware that handles Cross-Origin Resource Sharing.
// Origins are matched exactly against the allowlist; wildcards are not
// supported. Requests from unlisted origins get 403. Preflight OPTIONS
// requests are answered directly with 204 and never reach the handler chain.
//
// With no origins configured the middleware is a no-op, which is the right
// behavior for deployments where the frontend is served from the same origin.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}

	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = defaultCORSHeaders
	}
	allowMethods := strings.Join(methods, ", ")
	allowHeaders := strings.Join(headers, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(allowedOrigins) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				// Same-origin request, nothing to negotiate.
				next.ServeHTTP(w, r)
				return
			}

			// The response depends on the Origin header, so caches must
			// key on it even for rejected origins.
			w.Header().Add("Vary", "Origin")

			if !allowedOrigins[origin] {
				http.Error(w, "Origin not allowed", http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)

			if r.Method == http.MethodOptions {
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
