package driven

import (
	"io"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
)

// WriteFunc serializes the owner's in-memory state into w.
// It is supplied by the owner of a persistent file and invoked by a
// SaveDevice while saving.
type WriteFunc func(w io.Writer) error

// ReadFunc deserializes r into the owner's in-memory state.
// It is supplied by the owner of a persistent file and invoked by a
// SaveDevice while loading.
type ReadFunc func(r io.Reader) error

// SaveCompleted receives the result of an asynchronous save.
type SaveCompleted func(result domain.SaveResult)

// SaveDevice stores and retrieves files on a platform-specific medium.
// A single device is shared by every persistent file in the process, so
// implementations must be safe for concurrent use.
type SaveDevice interface {
	// IsReady reports whether storage is currently available,
	// e.g. whether the user has selected a device.
	IsReady() bool

	// IsBusy reports whether any accepted save is still in flight.
	IsBusy() bool

	// Exists reports whether a file is stored at loc.
	Exists(loc domain.Location) (bool, error)

	// SaveAsync runs write against an output stream off the calling
	// goroutine and commits the result to loc. It returns immediately.
	// done is called exactly once, from any goroutine, when the save has
	// finished or failed.
	SaveAsync(loc domain.Location, write WriteFunc, done SaveCompleted)

	// Load runs read against the stored contents of loc. It does not
	// return until read has completed or failed.
	// Returns domain.ErrNotFound if nothing is stored at loc.
	Load(loc domain.Location, read ReadFunc) error

	// Close waits for in-flight saves and releases the device.
	Close() error
}

// DeviceFactory constructs the process-wide save device.
type DeviceFactory func() (SaveDevice, error)

// FileLister is implemented by devices that can enumerate stored files.
type FileLister interface {
	// List returns every stored location, sorted by key.
	List() ([]domain.Location, error)
}
