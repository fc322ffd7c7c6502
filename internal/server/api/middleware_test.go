package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
)

func TestAPIKeyAuth_Check(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash: %v", err)
	}

	tests := []struct {
		name     string
		auth     *APIKeyAuth
		provided string
		want     bool
	}{
		{"plain match", NewAPIKeyAuth("secret", ""), "secret", true},
		{"plain mismatch", NewAPIKeyAuth("secret", ""), "Secret", false},
		{"empty provided", NewAPIKeyAuth("secret", ""), "", false},
		{"hash match", NewAPIKeyAuth("", string(hash)), "hashed-secret", true},
		{"hash mismatch", NewAPIKeyAuth("", string(hash)), "secret", false},
		{"either accepted", NewAPIKeyAuth("secret", string(hash)), "hashed-secret", true},
		{"nothing configured", NewAPIKeyAuth("", ""), "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.auth.Check(tt.provided); got != tt.want {
				t.Errorf("Check(%q) = %v, want %v", tt.provided, got, tt.want)
			}
		})
	}
}

func TestCallbackAuthMiddleware(t *testing.T) {
	validator := func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		if token == "good" && audience == "https://example.com/cron_revert_ou" {
			return &idtoken.Payload{Audience: audience}, nil
		}
		return nil, errors.New("invalid")
	}
	mw := CallbackAuthMiddleware("https://example.com/cron_revert_ou", validator)

	tests := []struct {
		name   string
		method string
		header string
		want   int
	}{
		{"valid token", http.MethodPost, "Bearer good", http.StatusNoContent},
		{"invalid token", http.MethodPost, "Bearer bad", http.StatusUnauthorized},
		{"missing token", http.MethodPost, "", http.StatusUnauthorized},
		{"malformed header", http.MethodPost, "good", http.StatusUnauthorized},
		{"non-POST passes through", http.MethodGet, "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/cron_revert_ou", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestCallbackAuthMiddleware_DisabledWithoutAudience(t *testing.T) {
	called := false
	handler := CallbackAuthMiddleware("", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/cron_revert_ou", nil))

	if !called {
		t.Fatal("expected next handler to run when no audience is configured")
	}
}
