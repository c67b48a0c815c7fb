package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:5173", true},
		{"http://localhost", true},
		{"https://localhost:8443", true},
		{"http://127.0.0.1:8686", true},
		{"http://evil.com", false},
		{"http://localhost.evil.com", false},
		{"ftp://localhost", false},
		{"http://localhost/path", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		if got := isAllowedOrigin(tt.origin); got != tt.want {
			t.Errorf("isAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestCORS_AllowedOrigin(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/media", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin = %q", got)
	}
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/media", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Error("allow-headers not set on preflight")
	}
}

func TestCORS_DeniedOrigin(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	// Plain request: served, but without CORS headers.
	req := httptest.NewRequest(http.MethodGet, "/media", nil)
	req.Header.Set("Origin", "http://evil.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("plain request status = %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q, want empty", got)
	}

	// Preflight: rejected.
	req = httptest.NewRequest(http.MethodOptions, "/media", nil)
	req.Header.Set("Origin", "http://evil.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("preflight status = %d, want 403", rr.Code)
	}
}

func TestCORS_NoOrigin(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("allow-origin = %q, want empty", got)
	}
}
