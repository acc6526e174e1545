package driving

import "github.com/custodia-labs/filebuddy/internal/core/domain"

// PersistentFile is one logical file that can be saved and loaded.
type PersistentFile interface {
	// Initialize binds the file to the application's save device.
	// It must be called exactly once, before Save or Load.
	Initialize(app AppContext) error

	// Save starts an asynchronous save. It does nothing if the device is
	// not ready. Errors are only reported through the completion result.
	Save()

	// Load reads the file once. Later calls are no-ops unless the previous
	// attempt failed.
	Load()

	// Loaded reports whether the file has been loaded or found absent.
	Loaded() bool

	// Location returns where the file lives.
	Location() domain.Location
}
