package services

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyPlatform        = "storage.platform"
	keyIsolatedDir     = "storage.isolated_dir"
	keySharedRoots     = "storage.shared_roots"
	keyServiceInterval = "storage.service_interval"
	keyPromptInterval  = "storage.prompt_interval"
	keyLogVerbose      = "log.verbose"
	keyLogFile         = "log.file"
)

// envOverrides are environment variables that take precedence over the
// config file. They are applied by Get and never written back.
type envOverrides struct {
	Platform    string   `env:"FILEBUDDY_PLATFORM"`
	IsolatedDir string   `env:"FILEBUDDY_ISOLATED_DIR"`
	SharedRoots []string `env:"FILEBUDDY_SHARED_ROOTS" envSeparator:","`
	Verbose     string   `env:"FILEBUDDY_VERBOSE"`
	LogFile     string   `env:"FILEBUDDY_LOG_FILE"`
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	environ     map[string]string
}

// NewSettingsService creates a new settings service.
// environ replaces the process environment when non-nil.
func NewSettingsService(configStore driven.ConfigStore, environ map[string]string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		environ:     environ,
	}
}

// Get retrieves current application settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()

	var overrides envOverrides
	if err := env.ParseWithOptions(&overrides, env.Options{Environment: s.environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if overrides.Platform != "" {
		platform := domain.Platform(overrides.Platform)
		if !platform.IsValid() {
			return nil, fmt.Errorf("%w: FILEBUDDY_PLATFORM=%q", domain.ErrUnsupportedPlatform, overrides.Platform)
		}
		settings.Storage.Platform = platform
	}
	if overrides.IsolatedDir != "" {
		settings.Storage.IsolatedDir = overrides.IsolatedDir
	}
	if len(overrides.SharedRoots) > 0 {
		settings.Storage.SharedRoots = overrides.SharedRoots
	}
	if overrides.Verbose != "" {
		verbose, err := strconv.ParseBool(overrides.Verbose)
		if err != nil {
			return nil, fmt.Errorf("%w: FILEBUDDY_VERBOSE=%q", domain.ErrInvalidInput, overrides.Verbose)
		}
		settings.Log.Verbose = verbose
	}
	if overrides.LogFile != "" {
		settings.Log.File = overrides.LogFile
	}

	return settings, nil
}

// stored reads settings from the config store only.
func (s *SettingsService) stored() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Storage: domain.StorageSettings{
			Platform:        s.getPlatform(defaults.Storage.Platform),
			IsolatedDir:     s.configStore.GetString(keyIsolatedDir), // No default - adapter picks ~/.filebuddy/isolated
			SharedRoots:     s.configStore.GetStringSlice(keySharedRoots),
			ServiceInterval: s.getDuration(keyServiceInterval, defaults.Storage.ServiceInterval),
			PromptInterval:  s.getDuration(keyPromptInterval, defaults.Storage.PromptInterval),
		},
		Log: domain.LogSettings{
			Verbose: s.configStore.GetBool(keyLogVerbose),
			File:    s.configStore.GetString(keyLogFile),
		},
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if !settings.Storage.Platform.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, settings.Storage.Platform)
	}

	// Save storage settings
	if err := s.configStore.Set(keyPlatform, settings.Storage.Platform.String()); err != nil {
		return fmt.Errorf("save storage platform: %w", err)
	}
	if err := s.configStore.Set(keyIsolatedDir, settings.Storage.IsolatedDir); err != nil {
		return fmt.Errorf("save isolated dir: %w", err)
	}
	if err := s.configStore.Set(keySharedRoots, settings.Storage.SharedRoots); err != nil {
		return fmt.Errorf("save shared roots: %w", err)
	}
	if err := s.configStore.Set(keyServiceInterval, settings.Storage.ServiceInterval.String()); err != nil {
		return fmt.Errorf("save service interval: %w", err)
	}
	if err := s.configStore.Set(keyPromptInterval, settings.Storage.PromptInterval.String()); err != nil {
		return fmt.Errorf("save prompt interval: %w", err)
	}

	// Save log settings
	if err := s.configStore.Set(keyLogVerbose, settings.Log.Verbose); err != nil {
		return fmt.Errorf("save log verbose: %w", err)
	}
	if err := s.configStore.Set(keyLogFile, settings.Log.File); err != nil {
		return fmt.Errorf("save log file: %w", err)
	}

	return nil
}

// SetPlatform updates the storage platform.
func (s *SettingsService) SetPlatform(platform domain.Platform) error {
	if !platform.IsValid() {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedPlatform, platform)
	}

	settings := s.stored()
	settings.Storage.Platform = platform
	return s.Save(settings)
}

// AddSharedRoot appends a candidate shared device root.
// Adding a root that is already configured has no effect.
func (s *SettingsService) AddSharedRoot(root string) error {
	root = strings.TrimSpace(root)
	if root == "" {
		return fmt.Errorf("%w: empty shared root", domain.ErrInvalidInput)
	}

	settings := s.stored()
	if slices.Contains(settings.Storage.SharedRoots, root) {
		return nil
	}
	settings.Storage.SharedRoots = append(settings.Storage.SharedRoots, root)
	return s.Save(settings)
}

// SettingKeys lists the keys accepted by GetValue and SetValue.
func (s *SettingsService) SettingKeys() []string {
	return []string{
		keyPlatform,
		keyIsolatedDir,
		keySharedRoots,
		keyServiceInterval,
		keyPromptInterval,
		keyLogVerbose,
		keyLogFile,
	}
}

// GetValue returns the effective value of one setting as text.
func (s *SettingsService) GetValue(key string) (string, error) {
	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	switch key {
	case keyPlatform:
		return settings.Storage.Platform.String(), nil
	case keyIsolatedDir:
		return settings.Storage.IsolatedDir, nil
	case keySharedRoots:
		return strings.Join(settings.Storage.SharedRoots, ","), nil
	case keyServiceInterval:
		return settings.Storage.ServiceInterval.String(), nil
	case keyPromptInterval:
		return settings.Storage.PromptInterval.String(), nil
	case keyLogVerbose:
		return strconv.FormatBool(settings.Log.Verbose), nil
	case keyLogFile:
		return settings.Log.File, nil
	default:
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// SetValue parses value and persists it under key. Environment overrides
// are not written back.
func (s *SettingsService) SetValue(key, value string) error {
	settings := s.stored()
	value = strings.TrimSpace(value)

	switch key {
	case keyPlatform:
		settings.Storage.Platform = domain.Platform(value)
	case keyIsolatedDir:
		settings.Storage.IsolatedDir = value
	case keySharedRoots:
		settings.Storage.SharedRoots = splitList(value)
	case keyServiceInterval, keyPromptInterval:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s must be a positive duration, got %q", domain.ErrInvalidInput, key, value)
		}
		if key == keyServiceInterval {
			settings.Storage.ServiceInterval = d
		} else {
			settings.Storage.PromptInterval = d
		}
	case keyLogVerbose:
		verbose, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false, got %q", domain.ErrInvalidInput, key, value)
		}
		settings.Log.Verbose = verbose
	case keyLogFile:
		settings.Log.File = value
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	return s.Save(settings)
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (s *SettingsService) getPlatform(fallback domain.Platform) domain.Platform {
	platform := domain.Platform(s.configStore.GetString(keyPlatform))
	if !platform.IsValid() {
		return fallback
	}
	return platform
}

func (s *SettingsService) getDuration(key string, fallback time.Duration) time.Duration {
	raw := s.configStore.GetString(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
