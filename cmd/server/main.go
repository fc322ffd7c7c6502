package main

import (
	"context"
	"embed"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kamikazebr/ou-toggle/internal/server/api"
	"github.com/kamikazebr/ou-toggle/internal/server/config"
	"github.com/kamikazebr/ou-toggle/internal/server/logger"
	"github.com/kamikazebr/ou-toggle/internal/server/services"
	"github.com/kamikazebr/ou-toggle/pkg/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var rootCmd = &cobra.Command{
	Use:   "ou-toggle",
	Short: "OU access toggle - temporary unrestricted access for a Workspace user",
	Long:  "Moves one Google Workspace user into an unrestricted OU on request and reverts them on a schedule",
	// Default to serve command if no subcommand provided
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the toggle endpoint and the scheduled revert callback",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			fmt.Println(version.GetVersionInfo())
			return
		}
		fmt.Println(version.GetVersion(version.ServerName))
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "Show detailed build information")
	rootCmd.AddCommand(serveCmd, adminCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig reads .env (if present) and the environment.
func loadConfig() (*config.Config, *zap.Logger, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, zl, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, zl, err := loadConfig()
	if err != nil {
		return err
	}
	defer zl.Sync()

	zl.Info("starting", zap.String("version", version.GetVersion(version.ServerName)))

	ctx := context.Background()
	deps, err := buildDeps(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer deps.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Access.SetMetrics(services.NewMetrics(reg))

	if cfg.ResendAPIKey != "" {
		recipient := cfg.NotifyEmail
		if recipient == "" {
			recipient = cfg.UserEmail
		}
		emailService, err := services.NewEmailService(cfg.ResendAPIKey, cfg.FromEmail, recipient)
		if err != nil {
			return fmt.Errorf("failed to initialize email service: %w", err)
		}
		deps.Access.SetNotifier(emailService)
		zl.Info("email notifications enabled", zap.String("to", recipient))
	}

	r := api.NewRouter(api.NewAccessHandler(deps.Access, zl), api.RouterConfig{
		RevertPath:       cfg.RevertCallbackPath,
		Auth:             api.NewAPIKeyAuth(cfg.APIKey, cfg.APIKeyHash),
		CallbackAudience: cfg.RevertOIDCAudience,
		Metrics:          promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	port := findAvailableAPIPort(zl, cfg.Port)
	addr := net.JoinHostPort(cfg.Host, port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("server starting",
			zap.String("addr", addr),
			zap.String("store", cfg.StoreBackend),
			zap.String("scheduler", cfg.SchedulerBackend),
			zap.String("revert_path", cfg.RevertCallbackPath))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	zl.Info("server stopped")
	return nil
}

// isPortAvailable checks if a port is available for binding
func isPortAvailable(port string) bool {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

// findAvailableAPIPort returns preferredPort if free, else the first free
// port among the next 20. Cloud Run and similar hosts hand out a free PORT,
// which config.Load uses when API_PORT is unset, so this only matters for
// local runs.
func findAvailableAPIPort(zl *zap.Logger, preferredPort string) string {
	if isPortAvailable(preferredPort) {
		return preferredPort
	}

	zl.Warn("port in use, trying alternatives", zap.String("port", preferredPort))

	startPort := 8080
	if p, err := strconv.Atoi(preferredPort); err == nil {
		startPort = p
	}

	for i := 1; i <= 20; i++ {
		portStr := strconv.Itoa(startPort + i)
		if isPortAvailable(portStr) {
			zl.Info("found available port", zap.String("port", portStr))
			return portStr
		}
	}

	// No ports available, return preferred (will fail with clear error)
	return preferredPort
}
