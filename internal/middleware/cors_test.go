package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func corsTestHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"pair":null}`))
	})
}

func TestCORS_OriginAllowlist(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins: []string{"https://flatrank.app", "http://localhost:5173"},
	}
	handler := CORS(cfg)(corsTestHandler())

	tests := []struct {
		name        string
		origin      string
		wantStatus  int
		wantAllowed string
	}{
		{
			name:        "production origin allowed",
			origin:      "https://flatrank.app",
			wantStatus:  http.StatusOK,
			wantAllowed: "https://flatrank.app",
		},
		{
			name:        "local dev origin allowed",
			origin:      "http://localhost:5173",
			wantStatus:  http.StatusOK,
			wantAllowed: "http://localhost:5173",
		},
		{
			name:       "unlisted origin rejected",
			origin:     "https://evil.example.com",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "subdomain of allowed origin rejected",
			origin:     "https://staging.flatrank.app",
			wantStatus: http.StatusForbidden,
		},
		{
			name:        "same-origin request passes through",
			origin:      "",
			wantStatus:  http.StatusOK,
			wantAllowed: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/compare/next", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowed {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllowed)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	cfg := CORSConfig{
		AllowedOrigins:   []string{"https://flatrank.app"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	handlerCalled := false
	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/compare", nil)
	req.Header.Set("Origin", "https://flatrank.app")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if handlerCalled {
		t.Error("preflight request reached the handler chain")
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want true", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got != "300" {
		t.Errorf("Access-Control-Max-Age = %q, want 300", got)
	}
}

func TestCORS_DefaultMethodsAndHeaders(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://flatrank.app"}})(corsTestHandler())

	req := httptest.NewRequest(http.MethodOptions, "/groups", nil)
	req.Header.Set("Origin", "https://flatrank.app")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	methods := rec.Header().Get("Access-Control-Allow-Methods")
	for _, want := range []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions} {
		if !strings.Contains(methods, want) {
			t.Errorf("Access-Control-Allow-Methods = %q, missing %s", methods, want)
		}
	}
	if strings.Contains(methods, http.MethodPut) {
		t.Errorf("Access-Control-Allow-Methods = %q, PUT is not served by the API", methods)
	}

	headers := rec.Header().Get("Access-Control-Allow-Headers")
	for _, want := range []string{"Content-Type", "Authorization", RequestIDHeader} {
		if !strings.Contains(headers, want) {
			t.Errorf("Access-Control-Allow-Headers = %q, missing %s", headers, want)
		}
	}
}

func TestCORS_VaryOrigin(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://flatrank.app"}})(corsTestHandler())

	for _, origin := range []string{"https://flatrank.app", "https://evil.example.com"} {
		req := httptest.NewRequest(http.MethodGet, "/compare", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Vary"); got != "Origin" {
			t.Errorf("origin %s: Vary = %q, want Origin", origin, got)
		}
	}
}

func TestCORS_DisabledWithoutOrigins(t *testing.T) {
	handler := CORS(CORSConfig{})(corsTestHandler())

	req := httptest.NewRequest(http.MethodGet, "/compare", nil)
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want empty with CORS disabled", got)
	}
}

func TestCORS_BlankOriginsIgnored(t *testing.T) {
	// Config sourced from a comma-separated env var can carry empty entries.
	handler := CORS(CORSConfig{AllowedOrigins: []string{" ", ""}})(corsTestHandler())

	req := httptest.NewRequest(http.MethodGet, "/compare", nil)
	req.Header.Set("Origin", "https://flatrank.app")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Only blank entries means no allowlist, so CORS stays disabled.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
