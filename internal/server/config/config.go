package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kamikazebr/ou-toggle/pkg/utils"
)

const (
	StoreGCS       = "gcs"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"

	SchedulerCron  = "scheduler"
	SchedulerTasks = "tasks"

	DefaultSwitchLimit     = 3
	DefaultDurationMinutes = 30
	DefaultFileName        = "client_requests.json"
	DefaultCollection      = "access_records"
	DefaultTasksQueue      = "ou-revert"
	DefaultRevertPath      = "/cron_revert_ou"
)

// Config is the server configuration, read from the environment.
type Config struct {
	// Directory delegation
	AdminEmail      string
	CredentialsFile string

	// Access control
	APIKey     string
	APIKeyHash string

	// Target user and OUs
	UserEmail      string
	UnrestrictedOU string
	RestrictedOU   string

	// Rate limit and window
	SwitchLimit int
	Duration    time.Duration
	Location    *time.Location

	// Google Cloud
	ProjectID string
	Region    string

	// Record store
	StoreBackend        string
	BucketName          string
	FileName            string
	FirestoreCollection string
	DatabaseURL         string

	// Revert scheduling
	SchedulerBackend        string
	TasksQueue              string
	RevertCallbackPath      string
	RevertCallbackURL       string
	SchedulerServiceAccount string
	RevertOIDCAudience      string

	// Notifications
	ResendAPIKey string
	FromEmail    string
	NotifyEmail  string

	// HTTP
	Host     string
	Port     string
	LogLevel string
}

// Load builds a Config from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		AdminEmail:      os.Getenv("ADMIN_EMAIL"),
		CredentialsFile: os.Getenv("GOOGLE_CREDENTIALS_FILE"),

		APIKey:     os.Getenv("API_KEY"),
		APIKeyHash: os.Getenv("API_KEY_HASH"),

		UserEmail:      os.Getenv("USER_EMAIL"),
		UnrestrictedOU: os.Getenv("UNRESTRICTED_OU"),
		RestrictedOU:   os.Getenv("RESTRICTED_OU"),

		ProjectID: os.Getenv("PROJECT_ID"),
		Region:    os.Getenv("LOCATION"),

		StoreBackend:        envOr("STORE_BACKEND", StoreGCS),
		BucketName:          os.Getenv("BUCKET_NAME"),
		FileName:            envOr("FILE_NAME", DefaultFileName),
		FirestoreCollection: envOr("FIRESTORE_COLLECTION", DefaultCollection),
		DatabaseURL:         os.Getenv("DATABASE_URL"),

		SchedulerBackend:        envOr("SCHEDULER_BACKEND", SchedulerTasks),
		TasksQueue:              envOr("TASKS_QUEUE", DefaultTasksQueue),
		RevertCallbackPath:      envOr("REVERT_CALLBACK_PATH", DefaultRevertPath),
		RevertCallbackURL:       os.Getenv("REVERT_CALLBACK_URL"),
		SchedulerServiceAccount: os.Getenv("SCHEDULER_SERVICE_ACCOUNT"),
		RevertOIDCAudience:      os.Getenv("REVERT_OIDC_AUDIENCE"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		FromEmail:    envOr("FROM_EMAIL", "noreply@example.com"),
		NotifyEmail:  os.Getenv("NOTIFY_EMAIL"),

		Host:     envOr("API_HOST", "0.0.0.0"),
		Port:     envOr("API_PORT", envOr("PORT", "8080")),
		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	limit, err := envInt("UNRESTRICTED_SWITCH_LIMIT", DefaultSwitchLimit)
	if err != nil {
		return nil, err
	}
	cfg.SwitchLimit = limit

	minutes, err := envInt("DURATION_MINUTES", DefaultDurationMinutes)
	if err != nil {
		return nil, err
	}
	cfg.Duration = time.Duration(minutes) * time.Minute

	cfg.Location = time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
		}
		cfg.Location = loc
	}

	if !strings.HasPrefix(cfg.RevertCallbackPath, "/") {
		cfg.RevertCallbackPath = "/" + cfg.RevertCallbackPath
	}
	if cfg.RevertCallbackURL == "" {
		cfg.RevertCallbackURL = fmt.Sprintf("https://%s-%s.cloudfunctions.net%s", cfg.Region, cfg.ProjectID, cfg.RevertCallbackPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required values and their combinations.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"ADMIN_EMAIL", c.AdminEmail},
		{"USER_EMAIL", c.UserEmail},
		{"UNRESTRICTED_OU", c.UnrestrictedOU},
		{"RESTRICTED_OU", c.RestrictedOU},
		{"PROJECT_ID", c.ProjectID},
		{"LOCATION", c.Region},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing environment variable: %s", r.name)
		}
	}

	if c.APIKey == "" && c.APIKeyHash == "" {
		return fmt.Errorf("missing environment variable: API_KEY or API_KEY_HASH")
	}
	if !utils.IsValidEmail(c.UserEmail) {
		return fmt.Errorf("USER_EMAIL is not a valid email: %q", c.UserEmail)
	}
	if !utils.IsValidEmail(c.AdminEmail) {
		return fmt.Errorf("ADMIN_EMAIL is not a valid email: %q", c.AdminEmail)
	}
	if !utils.IsValidOUPath(c.UnrestrictedOU) || !utils.IsValidOUPath(c.RestrictedOU) {
		return fmt.Errorf("OU paths must start with '/'")
	}
	if c.UnrestrictedOU == c.RestrictedOU {
		return fmt.Errorf("UNRESTRICTED_OU and RESTRICTED_OU must differ")
	}
	if c.SwitchLimit < 1 {
		return fmt.Errorf("UNRESTRICTED_SWITCH_LIMIT must be at least 1")
	}
	if c.Duration < time.Minute {
		return fmt.Errorf("DURATION_MINUTES must be at least 1")
	}

	switch c.StoreBackend {
	case StoreGCS:
		if c.BucketName == "" {
			return fmt.Errorf("missing environment variable: BUCKET_NAME")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing environment variable: DATABASE_URL")
		}
	case StoreFirestore, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.SchedulerBackend {
	case SchedulerCron, SchedulerTasks:
	default:
		return fmt.Errorf("unknown SCHEDULER_BACKEND %q", c.SchedulerBackend)
	}

	return nil
}

// ToggleURL is the public URL of the toggle endpoint, derived from the
// revert callback URL's origin.
func (c *Config) ToggleURL() string {
	base := c.RevertCallbackURL
	if i := strings.Index(base, "://"); i >= 0 {
		if j := strings.Index(base[i+3:], "/"); j >= 0 {
			base = base[:i+3+j]
		}
	}
	return strings.TrimRight(base, "/") + "/toggle-access"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
