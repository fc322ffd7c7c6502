package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kamikazebr/ou-toggle/internal/client/api"
	"github.com/kamikazebr/ou-toggle/internal/client/config"
	"github.com/kamikazebr/ou-toggle/internal/client/ui"
	"github.com/kamikazebr/ou-toggle/pkg/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ou-toggle-client",
	Short: "Request temporary unrestricted access",
	Long:  "CLI for the ou-toggle server. Run without arguments for an interactive menu.",
	Run:   runMenu,
}

var setupYes bool

var setupCmd = &cobra.Command{
	Use:   "setup <server-url> <api-key>",
	Short: "Save the server URL and API key",
	Args:  cobra.ExactArgs(2),
	Run:   runSetup,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch to unrestricted mode, or see how long is left",
	Run:   runToggle,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is reachable",
	Run:   runHealth,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the saved configuration",
	Run:   runLogout,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetVersion(version.ClientName))
	},
}

func init() {
	setupCmd.Flags().BoolVarP(&setupYes, "yes", "y", false, "Overwrite an existing configuration without asking")

	rootCmd.AddCommand(setupCmd, toggleCmd, healthCmd, logoutCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(ui.Failure(err.Error()))
		os.Exit(1)
	}
	if cfg == nil {
		fmt.Println(ui.Failure("Not configured. Run: ou-toggle-client setup <server-url> <api-key>"))
		os.Exit(1)
	}
	return cfg
}

func runSetup(cmd *cobra.Command, args []string) {
	serverURL, apiKey := args[0], args[1]

	existing, err := config.Load()
	if err != nil {
		fmt.Println(ui.Warning(fmt.Sprintf("Existing config unreadable, replacing it: %v", err)))
	}
	if existing != nil && !setupYes {
		ok, err := ui.Confirm(fmt.Sprintf("Replace the saved server %s?", existing.ServerURL), false)
		if err != nil {
			fmt.Println(ui.Failure(err.Error()))
			os.Exit(1)
		}
		if !ok {
			fmt.Println("Setup cancelled")
			return
		}
	}

	client := api.NewClient(serverURL, apiKey)
	if err := client.HealthCheck(); err != nil {
		fmt.Println(ui.Warning(fmt.Sprintf("Server not reachable right now: %v", err)))
	}

	cfg := &config.Config{
		ServerURL: serverURL,
		APIKey:    apiKey,
		CreatedAt: time.Now(),
	}
	if err := cfg.Save(); err != nil {
		fmt.Println(ui.Failure(err.Error()))
		os.Exit(1)
	}

	dir, _ := config.GetConfigDir()
	fmt.Println(ui.Success("Configuration saved to " + dir))
}

func runToggle(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	resp, err := api.NewClient(cfg.ServerURL, cfg.APIKey).Toggle()
	switch {
	case err == nil:
		fmt.Println(ui.Success(resp.UserMessage))
	case errors.Is(err, api.ErrLimitReached):
		fmt.Println(ui.Warning(resp.UserMessage))
		os.Exit(1)
	case errors.Is(err, api.ErrUnauthorized):
		fmt.Println(ui.Failure("The server rejected the API key. Run setup again."))
		os.Exit(1)
	case resp != nil && resp.UserMessage != "":
		fmt.Println(ui.Failure(resp.UserMessage))
		os.Exit(1)
	default:
		fmt.Println(ui.Failure(err.Error()))
		os.Exit(1)
	}
}

func runHealth(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	if err := api.NewClient(cfg.ServerURL, cfg.APIKey).HealthCheck(); err != nil {
		fmt.Println(ui.Failure(err.Error()))
		os.Exit(1)
	}
	fmt.Println(ui.Success(cfg.ServerURL + " is healthy"))
}

func runLogout(cmd *cobra.Command, args []string) {
	if err := config.Delete(); err != nil && !os.IsNotExist(err) {
		fmt.Println(ui.Failure(err.Error()))
		os.Exit(1)
	}
	fmt.Println(ui.Success("Configuration deleted"))
}

func runMenu(cmd *cobra.Command, args []string) {
	cfg, _ := config.Load()
	if cfg == nil {
		cmd.Help()
		return
	}

	fmt.Println(ui.HelpStyle.Render(fmt.Sprintf("Server: %s (configured %s)",
		cfg.ServerURL, cfg.CreatedAt.Format("2006-01-02"))))

	choice, err := ui.Select("What do you want to do?", []ui.Option{
		{Label: "Toggle access", Description: "Switch to unrestricted mode, or see how long is left"},
		{Label: "Check server", Description: "Make sure the server is reachable"},
		{Label: "Quit"},
	})
	if err != nil {
		fmt.Println(ui.Failure(err.Error()))
		os.Exit(1)
	}

	switch choice {
	case 0:
		runToggle(cmd, args)
	case 1:
		runHealth(cmd, args)
	}
}
