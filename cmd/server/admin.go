package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kamikazebr/ou-toggle/internal/client/ui"
	"github.com/kamikazebr/ou-toggle/internal/server/config"
	"github.com/kamikazebr/ou-toggle/pkg/models"
	"github.com/kamikazebr/ou-toggle/pkg/utils"
	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands",
	Long:  "Inspect and operate on the access record, the user's OU and the revert job",
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the access record, actual OU and scheduled revert",
	Run:   runStatusCommand,
}

var revertCmd = &cobra.Command{
	Use:   "revert",
	Short: "Move the user back to the restricted OU now",
	Run:   runRevertCommand,
}

var resetSwitchesCmd = &cobra.Command{
	Use:   "reset-switches",
	Short: "Zero today's switch counter",
	Run:   runResetSwitchesCommand,
}

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Print the toggle URL as a QR code",
	Long:  "Prints the toggle endpoint as a terminal QR code, handy for a phone shortcut. The API key still has to be sent as the x-api-key header.",
	Run:   runQRCommand,
}

var genKeyCmd = &cobra.Command{
	Use:   "gen-key",
	Short: "Generate an API key and its bcrypt hash",
	Long:  "Prints a random API key for clients and the API_KEY_HASH value to configure on the server",
	Run:   runGenKeyCommand,
}

var adminYes bool

func init() {
	revertCmd.Flags().BoolVarP(&adminYes, "yes", "y", false, "Skip the confirmation prompt")
	resetSwitchesCmd.Flags().BoolVarP(&adminYes, "yes", "y", false, "Skip the confirmation prompt")
	qrCmd.Flags().String("url", "", "URL to encode (default: derived from REVERT_CALLBACK_URL)")

	adminCmd.AddCommand(
		statusCmd,
		revertCmd,
		resetSwitchesCmd,
		qrCmd,
		genKeyCmd,
	)
}

// adminDeps loads configuration and builds the service stack, exiting on
// failure.
func adminDeps() (*config.Config, *deps) {
	cfg, zl, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	d, err := buildDeps(context.Background(), cfg, zl)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	return cfg, d
}

func runStatusCommand(cmd *cobra.Command, args []string) {
	_, d := adminDeps()
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := d.Access.Status(ctx)
	if err != nil {
		log.Fatalf("Failed to get status: %v", err)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("User:        %s\n", status.Email)
	fmt.Printf("Actual OU:   %s\n", status.ActualOU)
	fmt.Println(strings.Repeat("=", 60))

	if status.Record == nil {
		fmt.Println("No access record yet")
	} else {
		printRecord(status.Record)
	}

	if status.RevertJob == nil {
		fmt.Println("Revert job:  none")
	} else {
		fmt.Printf("Revert job:  %s\n", status.RevertJob.Name)
		fmt.Printf("Next run:    %s (in %s)\n",
			status.RevertJob.NextRun.Format(time.RFC3339),
			utils.FormatRemaining(time.Until(status.RevertJob.NextRun)))
	}
}

// confirmOrExit asks before a change unless --yes was given.
func confirmOrExit(question string) {
	if adminYes {
		return
	}
	ok, err := ui.Confirm(question, false)
	if err != nil {
		log.Fatalf("Failed to read confirmation: %v", err)
	}
	if !ok {
		fmt.Println("Cancelled")
		os.Exit(0)
	}
}

func runRevertCommand(cmd *cobra.Command, args []string) {
	cfg, d := adminDeps()
	defer d.Close()

	confirmOrExit(fmt.Sprintf("Move %s to %s now?", cfg.UserEmail, cfg.RestrictedOU))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rec, err := d.Access.ForceRevert(ctx)
	if err != nil {
		log.Fatalf("Failed to revert: %v", err)
	}

	fmt.Println(ui.Success("User moved to the restricted OU"))
	printRecord(rec)
}

func runResetSwitchesCommand(cmd *cobra.Command, args []string) {
	cfg, d := adminDeps()
	defer d.Close()

	confirmOrExit(fmt.Sprintf("Reset today's switch counter for %s?", cfg.UserEmail))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rec, err := d.Access.ResetSwitches(ctx)
	if err != nil {
		log.Fatalf("Failed to reset switches: %v", err)
	}

	fmt.Println(ui.Success("Switch counter reset"))
	printRecord(rec)
}

func runQRCommand(cmd *cobra.Command, args []string) {
	url, _ := cmd.Flags().GetString("url")
	if url == "" {
		cfg, _, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load config (or pass --url): %v", err)
		}
		url = cfg.ToggleURL()
	}

	qr, err := qrcode.New(url, qrcode.Medium)
	if err != nil {
		log.Fatalf("Failed to generate QR code: %v", err)
	}

	// false = inverted colors for better visibility in terminal
	fmt.Println(qr.ToSmallString(false))
	fmt.Println(url)
}

func printRecord(rec *models.AccessRecord) {
	fmt.Printf("State:       %s\n", rec.OUState)
	fmt.Printf("Switches:    %d (on %s)\n", rec.UnrestrictedSwitches, rec.LastRequestDate)
	if rec.ExpirationTimeUTC != nil {
		fmt.Printf("Expires:     %s\n", rec.ExpirationTimeUTC.Format(time.RFC3339))
	} else {
		fmt.Println("Expires:     -")
	}
}

func runGenKeyCommand(cmd *cobra.Command, args []string) {
	key, err := utils.GenerateAPIKey(32)
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
	hash, err := utils.HashAPIKey(key)
	if err != nil {
		log.Fatalf("Failed to hash key: %v", err)
	}

	fmt.Printf("API key (give to clients): %s\n", key)
	// Single quotes stop .env loaders from expanding the $ signs.
	fmt.Printf("API_KEY_HASH='%s'\n", hash)
}
