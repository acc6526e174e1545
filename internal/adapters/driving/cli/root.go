// Package cli provides the filebuddy command-line interface.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driving"
	"github.com/custodia-labs/filebuddy/internal/logger"
)

// version is set at build time.
var version = "dev"

// RuntimeFactory builds the runtime that owns the save device for one
// command invocation.
type RuntimeFactory func(settings domain.AppSettings) driving.Runtime

// Services wires the CLI to the core.
type Services struct {
	Settings   driving.SettingsService
	NewRuntime RuntimeFactory
}

var (
	settingsService driving.SettingsService
	newRuntime      RuntimeFactory
)

// Global flags.
var (
	verbose      bool
	platformFlag string
	waitTimeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "filebuddy",
	Short: "Save and load persistent files",
	Long: `filebuddy saves and loads small persistent files, such as settings or
high scores, on a pluggable storage device.

Devices:
  isolated  per-application storage in a local database
  shared    a user-selected directory such as a removable drive
  memory    process memory, nothing survives exit
  auto      isolated on mobile targets, shared elsewhere`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: configureLogging,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&platformFlag, "platform", "",
		"storage platform for this run (auto, isolated, shared, memory)")
	rootCmd.PersistentFlags().DurationVar(&waitTimeout, "wait", 10*time.Second,
		"how long to wait for the save device to become ready")
}

// SetServices configures the services used by commands.
func SetServices(s Services) {
	settingsService = s.Settings
	newRuntime = s.NewRuntime
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which commands use to
// stop waiting for devices and saves.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// configureLogging applies flag and settings values to the logger.
func configureLogging(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr())

	if settingsService == nil {
		logger.SetVerbose(verbose)
		return nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	logger.SetVerbose(verbose || settings.Log.Verbose)
	if settings.Log.File != "" {
		if err := logger.SetFile(settings.Log.File); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	}
	return nil
}

// effectiveSettings returns stored settings with the --platform flag applied.
func effectiveSettings() (*domain.AppSettings, error) {
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if platformFlag != "" {
		platform := domain.Platform(platformFlag)
		if !platform.IsValid() {
			return nil, fmt.Errorf("%w: --platform %q", domain.ErrUnsupportedPlatform, platformFlag)
		}
		settings.Storage.Platform = platform
	}
	return settings, nil
}
