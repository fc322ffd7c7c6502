package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("API_KEY", "secret")
	t.Setenv("USER_EMAIL", "kid@example.com")
	t.Setenv("UNRESTRICTED_OU", "/Unrestricted")
	t.Setenv("RESTRICTED_OU", "/Restricted")
	t.Setenv("PROJECT_ID", "my-project")
	t.Setenv("LOCATION", "us-central1")
	t.Setenv("BUCKET_NAME", "my-bucket")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SwitchLimit != DefaultSwitchLimit {
		t.Errorf("SwitchLimit = %d, want %d", cfg.SwitchLimit, DefaultSwitchLimit)
	}
	if cfg.Duration != 30*time.Minute {
		t.Errorf("Duration = %v, want 30m", cfg.Duration)
	}
	if cfg.FileName != DefaultFileName {
		t.Errorf("FileName = %q", cfg.FileName)
	}
	if cfg.StoreBackend != StoreGCS || cfg.SchedulerBackend != SchedulerTasks {
		t.Errorf("unexpected backends: %s/%s", cfg.StoreBackend, cfg.SchedulerBackend)
	}
	want := "https://us-central1-my-project.cloudfunctions.net/cron_revert_ou"
	if cfg.RevertCallbackURL != want {
		t.Errorf("RevertCallbackURL = %q, want %q", cfg.RevertCallbackURL, want)
	}
	if cfg.ToggleURL() != "https://us-central1-my-project.cloudfunctions.net/toggle-access" {
		t.Errorf("ToggleURL = %q", cfg.ToggleURL())
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UNRESTRICTED_SWITCH_LIMIT", "5")
	t.Setenv("DURATION_MINUTES", "45")
	t.Setenv("TIMEZONE", "America/New_York")
	t.Setenv("REVERT_CALLBACK_PATH", "revert")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SwitchLimit != 5 {
		t.Errorf("SwitchLimit = %d, want 5", cfg.SwitchLimit)
	}
	if cfg.Duration != 45*time.Minute {
		t.Errorf("Duration = %v, want 45m", cfg.Duration)
	}
	if cfg.Location.String() != "America/New_York" {
		t.Errorf("Location = %s", cfg.Location)
	}
	if cfg.RevertCallbackPath != "/revert" {
		t.Errorf("RevertCallbackPath = %q", cfg.RevertCallbackPath)
	}
	if want := "https://us-central1-my-project.cloudfunctions.net/revert"; cfg.RevertCallbackURL != want {
		t.Errorf("RevertCallbackURL = %q, want %q", cfg.RevertCallbackURL, want)
	}
}

func TestLoad_Port(t *testing.T) {
	tests := []struct {
		name    string
		apiPort string
		port    string
		want    string
	}{
		{"default", "", "", "8080"},
		{"platform PORT", "", "9000", "9000"},
		{"API_PORT wins", "8081", "9000", "8081"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv("API_PORT", tt.apiPort)
			t.Setenv("PORT", tt.port)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Port != tt.want {
				t.Errorf("Port = %q, want %q", cfg.Port, tt.want)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing user", map[string]string{"USER_EMAIL": ""}, "USER_EMAIL"},
		{"missing key", map[string]string{"API_KEY": ""}, "API_KEY"},
		{"bad limit", map[string]string{"UNRESTRICTED_SWITCH_LIMIT": "three"}, "UNRESTRICTED_SWITCH_LIMIT"},
		{"zero limit", map[string]string{"UNRESTRICTED_SWITCH_LIMIT": "0"}, "UNRESTRICTED_SWITCH_LIMIT"},
		{"same OUs", map[string]string{"RESTRICTED_OU": "/Unrestricted"}, "must differ"},
		{"gcs without bucket", map[string]string{"BUCKET_NAME": ""}, "BUCKET_NAME"},
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres"}, "DATABASE_URL"},
		{"unknown scheduler", map[string]string{"SCHEDULER_BACKEND": "at"}, "SCHEDULER_BACKEND"},
		{"bad timezone", map[string]string{"TIMEZONE": "Mars/Olympus"}, "TIMEZONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_APIKeyHashOnly(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_KEY", "")
	t.Setenv("API_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuu")

	if _, err := Load(); err != nil {
		t.Fatalf("Load failed with only API_KEY_HASH: %v", err)
	}
}
