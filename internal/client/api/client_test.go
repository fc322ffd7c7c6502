package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kamikazebr/ou-toggle/pkg/models"
	"github.com/kamikazebr/ou-toggle/pkg/version"
)

func TestToggle(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    models.ToggleResponse
		wantErr error
	}{
		{"promoted", http.StatusOK, models.ToggleResponse{Success: true, UserMessage: "moved", Error: "None"}, nil},
		{"bad key", http.StatusUnauthorized, models.ToggleResponse{UserMessage: "Unauthorized", Error: "Unauthorized"}, ErrUnauthorized},
		{"limit", http.StatusForbidden, models.ToggleResponse{UserMessage: "Try again in 3 hours.", Error: "Switch limit exceeded"}, ErrLimitReached},
		{"upstream", http.StatusServiceUnavailable, models.ToggleResponse{UserMessage: "Google API error", Error: "Service Unavailable"}, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/toggle-access" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.Header.Get("x-api-key"); got != "secret" {
					t.Errorf("x-api-key = %q", got)
				}
				if got, want := r.UserAgent(), version.UserAgent(version.ClientName); got != want {
					t.Errorf("User-Agent = %q, want %q", got, want)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			resp, err := NewClient(srv.URL+"/", "secret").Toggle()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if resp == nil || resp.UserMessage != tt.body.UserMessage {
				t.Errorf("resp = %+v, want message %q", resp, tt.body.UserMessage)
			}
		})
	}
}

func TestToggle_NonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "secret").Toggle(); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "").HealthCheck(); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}
