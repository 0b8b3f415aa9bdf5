package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func authTestServer(buf *bytes.Buffer) http.Handler {
	log := slog.New(slog.NewJSONHandler(buf, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware("secret-key", log)(next)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	var buf bytes.Buffer
	h := authTestServer(&buf)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log output for accepted request, got %q", buf.String())
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	var buf bytes.Buffer
	h := authTestServer(&buf)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	logged := buf.String()
	if !strings.Contains(logged, "auth rejected") {
		t.Errorf("expected rejection to be logged, got %q", logged)
	}
	if !strings.Contains(logged, "/reports") {
		t.Errorf("expected request path in log, got %q", logged)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	var buf bytes.Buffer
	h := authTestServer(&buf)

	req := httptest.NewRequest(http.MethodGet, "/reports", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	logged := buf.String()
	if !strings.Contains(logged, "invalid api key") {
		t.Errorf("expected rejection reason in log, got %q", logged)
	}
	// The presented token must never reach the logs.
	if strings.Contains(logged, "wrong-key") {
		t.Errorf("token leaked into log output: %q", logged)
	}
}

func TestRequestLogger_RecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := RequestLogger(log)(next)

	req := httptest.NewRequest(http.MethodGet, "/reports/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	logged := buf.String()
	if !strings.Contains(logged, `"status":404`) {
		t.Errorf("expected status 404 in log, got %q", logged)
	}
	if !strings.Contains(logged, "/reports/missing") {
		t.Errorf("expected path in log, got %q", logged)
	}
}
