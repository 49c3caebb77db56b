// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// normalizePath converts paths with dynamic segments to route patterns to
// prevent cardinality explosion in metrics. This maps paths like
// /groups/3f2c.../rankings to /groups/{id}/rankings.
func normalizePath(path string) string {
	// Exact matches for static routes (no normalization needed)
	staticRoutes := map[string]bool{
		"/":               true,
		"/compare":        true,
		"/compare/next":   true,
		"/compare/matrix": true,
		"/groups":         true,
		"/health":         true,
		"/ready":          true,
		"/metrics":        true,
	}

	if staticRoutes[path] {
		return path
	}

	// /groups/{id}/... patterns
	if strings.HasPrefix(path, "/groups/") {
		parts := strings.Split(path, "/")
		if len(parts) >= 3 && parts[2] != "" {
			// /groups/{id}/rankings, /groups/{id}/listings, /groups/{id}/members
			if len(parts) == 4 {
				switch parts[3] {
				case "rankings", "listings", "members":
					return "/groups/{id}/" + parts[3]
				}
			}
			// /groups/{id}/members/{user_id}
			if len(parts) == 5 && parts[3] == "members" {
				return "/groups/{id}/members/{user_id}"
			}
			// /groups/{id}
			if len(parts) == 3 {
				return "/groups/{id}"
			}
		}
	}

	// /listings/{id}
	if strings.HasPrefix(path, "/listings/") {
		parts := strings.Split(path, "/")
		if len(parts) == 3 && parts[2] != "" {
			return "/listings/{id}"
		}
	}

	// Fallback: return as-is for unknown patterns
	// This ensures we don't accidentally break metrics for new routes
	return path
}

// metricsResponseWriter wraps http.ResponseWriter to capture the status code.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

// newMetricsResponseWriter creates a new metricsResponseWriter with default 200 status.
func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// HTTPMetrics records per-request duration and count. Health check endpoints
// (/health, /ready) are excluded; liveness traffic would dominate the series.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mrw := newMetricsResponseWriter(w)
			next.ServeHTTP(mrw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mrw.statusCode),
				time.Since(start).Seconds(),
			)
		})
	}
}
