package domain

import (
	"runtime"
	"time"
)

const unknownDescription = "Unknown"

// Platform selects which save device implementation backs persistent files.
type Platform string

// Available platforms.
const (
	// PlatformAuto picks isolated storage on mobile targets and shared storage elsewhere.
	PlatformAuto Platform = "auto"

	// PlatformIsolated stores files in per-application storage.
	PlatformIsolated Platform = "isolated"

	// PlatformShared stores files on a user-selected shared device.
	PlatformShared Platform = "shared"

	// PlatformMemory keeps files in process memory. Nothing survives exit.
	PlatformMemory Platform = "memory"
)

// IsValid returns true if the platform is recognised.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformAuto, PlatformIsolated, PlatformShared, PlatformMemory:
		return true
	default:
		return false
	}
}

// Resolve maps PlatformAuto onto a concrete platform for the given GOOS.
// Other platforms are returned unchanged.
func (p Platform) Resolve(goos string) Platform {
	if p != PlatformAuto {
		return p
	}
	switch goos {
	case "android", "ios":
		return PlatformIsolated
	default:
		return PlatformShared
	}
}

// String returns the string representation.
func (p Platform) String() string {
	return string(p)
}

// Description returns a human-readable description of the platform.
func (p Platform) Description() string {
	switch p {
	case PlatformAuto:
		return "Auto (isolated on mobile, shared elsewhere)"
	case PlatformIsolated:
		return "Isolated (per-application storage)"
	case PlatformShared:
		return "Shared (user-selected device)"
	case PlatformMemory:
		return "Memory (not persisted)"
	default:
		return unknownDescription
	}
}

// StorageSettings configures the process-wide save device.
type StorageSettings struct {
	// Platform selects the device implementation.
	Platform Platform

	// IsolatedDir is where isolated storage keeps its database.
	// Empty means ~/.filebuddy/isolated.
	IsolatedDir string

	// SharedRoots are the candidate directories offered by the device selector.
	SharedRoots []string

	// ServiceInterval is how often the host services components such as
	// the shared device.
	ServiceInterval time.Duration

	// PromptInterval is the minimum time between device selector prompts.
	PromptInterval time.Duration
}

// LogSettings configures diagnostic output.
type LogSettings struct {
	// Verbose enables debug output.
	Verbose bool

	// File, when set, mirrors log output into a rotating file.
	File string
}

// AppSettings holds all persisted application settings.
type AppSettings struct {
	Storage StorageSettings
	Log     LogSettings
}

// Default intervals used when settings leave them unset.
const (
	DefaultServiceInterval = 250 * time.Millisecond
	DefaultPromptInterval  = 2 * time.Second
)

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Storage: StorageSettings{
			Platform:        PlatformAuto,
			ServiceInterval: DefaultServiceInterval,
			PromptInterval:  DefaultPromptInterval,
		},
	}
}

// ResolvedPlatform returns the concrete platform for the running binary.
func (s StorageSettings) ResolvedPlatform() Platform {
	return s.Platform.Resolve(runtime.GOOS)
}
