package driving

import "github.com/custodia-labs/filebuddy/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with environment
	// overrides applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetPlatform updates the storage platform.
	SetPlatform(platform domain.Platform) error

	// AddSharedRoot appends a candidate shared device root.
	AddSharedRoot(root string) error

	// SettingKeys lists the keys accepted by GetValue and SetValue.
	SettingKeys() []string

	// GetValue returns the effective value of one setting as text.
	GetValue(key string) (string, error)

	// SetValue parses value and persists it under key.
	SetValue(key, value string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
