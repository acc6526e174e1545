package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change storage and logging settings.

Environment variables (FILEBUDDY_PLATFORM, FILEBUDDY_ISOLATED_DIR,
FILEBUDDY_SHARED_ROOTS, FILEBUDDY_VERBOSE, FILEBUDDY_LOG_FILE) take
precedence over stored values and are never written back.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting and save it to the config file.

Keys:
  storage.platform          auto, isolated, shared or memory
  storage.isolated_dir      directory for the isolated storage database
  storage.shared_roots      comma-separated candidate shared device roots
  storage.service_interval  how often devices are serviced, e.g. 250ms
  storage.prompt_interval   minimum time between device prompts, e.g. 2s
  log.verbose               true or false
  log.file                  path of a rotating log file, empty to disable`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsPlatformCmd = &cobra.Command{
	Use:   "platform [name]",
	Short: "Set the storage platform",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsPlatform,
}

var settingsAddRootCmd = &cobra.Command{
	Use:   "add-root [dir]",
	Short: "Add a candidate shared device root",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsAddRoot,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsPlatformCmd)
	settingsCmd.AddCommand(settingsAddRootCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Platform: %s\n", settings.Storage.Platform.Description())
	if settings.Storage.Platform == domain.PlatformAuto {
		cmd.Printf("  Resolves to: %s\n", settings.Storage.ResolvedPlatform())
	}
	isolatedDir := settings.Storage.IsolatedDir
	if isolatedDir == "" {
		isolatedDir = "(default)"
	}
	cmd.Printf("  Isolated dir: %s\n", isolatedDir)
	if len(settings.Storage.SharedRoots) == 0 {
		cmd.Println("  Shared roots: (default)")
	} else {
		cmd.Println("  Shared roots:")
		for _, root := range settings.Storage.SharedRoots {
			cmd.Printf("    - %s\n", root)
		}
	}
	cmd.Printf("  Service interval: %s\n", settings.Storage.ServiceInterval)
	cmd.Printf("  Prompt interval: %s\n", settings.Storage.PromptInterval)
	cmd.Println()

	cmd.Println("[Log]")
	cmd.Printf("  Verbose: %t\n", settings.Log.Verbose)
	logFile := settings.Log.File
	if logFile == "" {
		logFile = "(none)"
	}
	cmd.Printf("  File: %s\n", logFile)

	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	value, err := settingsService.GetValue(args[0])
	if err != nil {
		return withKnownKeys(err)
	}
	cmd.Println(value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetValue(args[0], args[1]); err != nil {
		return withKnownKeys(err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsPlatform(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	platform := domain.Platform(strings.ToLower(strings.TrimSpace(args[0])))
	if !platform.IsValid() {
		return fmt.Errorf("invalid platform %q: choose auto, isolated, shared or memory", args[0])
	}

	if err := settingsService.SetPlatform(platform); err != nil {
		return fmt.Errorf("failed to set platform: %w", err)
	}
	cmd.Printf("Storage platform set to: %s\n", platform.Description())
	return nil
}

func runSettingsAddRoot(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.AddSharedRoot(args[0]); err != nil {
		return fmt.Errorf("failed to add shared root: %w", err)
	}
	cmd.Printf("Added shared root: %s\n", strings.TrimSpace(args[0]))
	return nil
}

// withKnownKeys appends the accepted keys to an unknown-key error.
func withKnownKeys(err error) error {
	if !errors.Is(err, domain.ErrInvalidInput) || !strings.Contains(err.Error(), "unknown setting") {
		return err
	}
	return fmt.Errorf("%w (known keys: %s)", err, strings.Join(settingsService.SettingKeys(), ", "))
}
