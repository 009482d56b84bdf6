package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/heimdex/heimdex-timeline/internal/logging"
	"github.com/heimdex/heimdex-timeline/internal/settings"
)

func TestIsAllowedOrigin(t *testing.T) {
	allowed := []string{
		"http://localhost:3000",
		"http://localhost",
		"http://127.0.0.1:5173",
		"https://acme.app.heimdex.co",
		"https://demo-org.app.heimdex.co:443",
		"http://acme.app.heimdex.local",
		"http://devorg.app.heimdex.local:3000",
		"https://a--b.app.heimdex.co",
	}
	for _, origin := range allowed {
		if !isAllowedOrigin(origin) {
			t.Errorf("isAllowedOrigin(%q) = false, want true", origin)
		}
	}

	denied := []string{
		"",
		"https://evil.com",
		"https://app.heimdex.co",
		"https://acme.app.heimdex.co.evil.com",
		"http://acme.app.heimdex.co",
		"https://localhost:3000",
		"http://192.168.1.1:3000",
		"ftp://localhost:3000",
		"http://localhost:not-a-port",
		"http://localhost:3000/path",
		"https://-bad.app.heimdex.co",
		"https://a.b.app.heimdex.co",
	}
	for _, origin := range denied {
		if isAllowedOrigin(origin) {
			t.Errorf("isAllowedOrigin(%q) = true, want false", origin)
		}
	}
}

func TestIsLoopbackRemoteAddr(t *testing.T) {
	cases := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:12345", true},
		{"[::1]:12345", true},
		{"::1", true},
		{"[::1]", true},
		{"127.0.0.1", true},
		{"8.8.8.8:12345", false},
		{"10.0.0.1:3000", false},
		{"not-an-ip:1234", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := isLoopbackRemoteAddr(tc.addr); got != tc.want {
			t.Errorf("isLoopbackRemoteAddr(%q) = %v, want %v", tc.addr, got, tc.want)
		}
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func headerList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func TestCORSAllowlist(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		origin   string
		wantCode int
		wantACAO string
	}{
		{name: "allowed get", method: http.MethodGet, origin: "http://localhost:3000", wantCode: http.StatusOK, wantACAO: "http://localhost:3000"},
		{name: "heimdex subdomain", method: http.MethodGet, origin: "https://acme.app.heimdex.co", wantCode: http.StatusOK, wantACAO: "https://acme.app.heimdex.co"},
		{name: "denied get still served", method: http.MethodGet, origin: "https://evil.com", wantCode: http.StatusOK},
		{name: "no origin", method: http.MethodGet, wantCode: http.StatusOK},
		{name: "allowed preflight", method: http.MethodOptions, origin: "http://localhost:3000", wantCode: http.StatusNoContent, wantACAO: "http://localhost:3000"},
		{name: "denied preflight", method: http.MethodOptions, origin: "https://evil.com", wantCode: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := CORSAllowlist()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodOptions {
					t.Fatal("preflight must not reach the handler")
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tc.method, "/timeline", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantCode)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantACAO {
				t.Errorf("ACAO = %q, want %q", got, tc.wantACAO)
			}
		})
	}
}

func TestCORSAllowlist_PreflightHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/clips/abc", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rr := httptest.NewRecorder()

	CORSAllowlist()(okHandler()).ServeHTTP(rr, req)

	methods := headerList(rr.Header().Get("Access-Control-Allow-Methods"))
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"} {
		if !containsString(methods, m) {
			t.Errorf("Access-Control-Allow-Methods missing %q, got %v", m, methods)
		}
	}
	headers := headerList(rr.Header().Get("Access-Control-Allow-Headers"))
	for _, h := range []string{"Content-Type", "Authorization", "X-Heimdex-Request-Id"} {
		if !containsString(headers, h) {
			t.Errorf("Access-Control-Allow-Headers missing %q, got %v", h, headers)
		}
	}
}

func TestCORSAllowlist_VaryIsAdditive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	rr.Header().Set("Vary", "Accept-Encoding")

	CORSAllowlist()(okHandler()).ServeHTTP(rr, req)

	vary := rr.Header().Values("Vary")
	if !containsString(vary, "Accept-Encoding") || !containsString(vary, "Origin") {
		t.Errorf("Vary = %v, want both Accept-Encoding and Origin", vary)
	}
}

func TestLoopbackGuard(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		wantCode   int
	}{
		{name: "ipv4 loopback", remoteAddr: "127.0.0.1:12345", wantCode: http.StatusOK},
		{name: "ipv6 loopback", remoteAddr: "[::1]:12345", wantCode: http.StatusOK},
		{name: "remote", remoteAddr: "8.8.8.8:12345", wantCode: http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/timeline", nil)
			req.RemoteAddr = tc.remoteAddr
			rr := httptest.NewRecorder()

			LoopbackGuard()(okHandler()).ServeHTTP(rr, req)

			if rr.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantCode)
			}
			if tc.wantCode == http.StatusForbidden {
				if code := decodeJSONBody(t, rr)["code"]; code != "FORBIDDEN" {
					t.Errorf("error code = %v, want FORBIDDEN", code)
				}
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	repo := settings.NewMemoryRepository()
	if err := repo.Set(context.Background(), AuthTokenKey, "secret-token"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	handler := AuthMiddleware(repo, logging.Discard())(okHandler())

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{name: "valid", header: "Bearer secret-token", wantCode: http.StatusOK},
		{name: "missing", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic secret-token", wantCode: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", wantCode: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/timeline", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantCode)
			}
		})
	}
}

func TestAuthMiddleware_NoStoredToken(t *testing.T) {
	handler := AuthMiddleware(settings.NewMemoryRepository(), logging.Discard())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/timeline", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/timeline", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIDKey).(string)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if len(seen) != 8 {
		t.Fatalf("request id = %q, want 8 characters", seen)
	}
	if got := rr.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("X-Request-ID = %q, want %q", got, seen)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
