package services

import (
	"fmt"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driving"
	"github.com/custodia-labs/filebuddy/internal/logger"
)

// Ensure PersistentFile implements the interface.
var _ driving.PersistentFile = (*PersistentFile)(nil)

// PersistentFileOption configures a PersistentFile.
type PersistentFileOption func(*PersistentFile)

// WithSaveObserver registers fn to receive the result of every completed
// save. fn is called from the device's worker goroutine and must not block.
func WithSaveObserver(fn driven.SaveCompleted) PersistentFileOption {
	return func(f *PersistentFile) {
		if fn != nil {
			f.observers = append(f.observers, fn)
		}
	}
}

// PersistentFile tracks one logical file and forwards save and load
// requests to the process-wide save device.
//
// Save and Load must be called from a single goroutine. Callers must not
// start a new save before the previous one has completed.
type PersistentFile struct {
	location  domain.Location
	write     driven.WriteFunc
	read      driven.ReadFunc
	device    driven.SaveDevice
	loaded    bool
	observers []driven.SaveCompleted
}

// NewPersistentFile creates a file bound to location. write is used by
// Save and read by Load; either may be nil if the owner never calls the
// corresponding operation.
func NewPersistentFile(
	location domain.Location,
	write driven.WriteFunc,
	read driven.ReadFunc,
	opts ...PersistentFileOption,
) *PersistentFile {
	f := &PersistentFile{
		location: location,
		write:    write,
		read:     read,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Initialize binds the file to the application's save device and registers
// the device for periodic servicing when it needs it.
func (f *PersistentFile) Initialize(app driving.AppContext) error {
	if f.device != nil {
		return domain.ErrAlreadyInitialized
	}

	device, err := app.SaveDevice()
	if err != nil {
		return fmt.Errorf("creating save device: %w", err)
	}

	if component, ok := device.(driving.Component); ok {
		app.AddComponent(component)
	}

	f.device = device
	logger.Debug("persistent file %s bound to save device", f.location)
	return nil
}

// Location returns where the file lives.
func (f *PersistentFile) Location() domain.Location {
	return f.location
}

// Loaded reports whether the file has been loaded or found absent.
func (f *PersistentFile) Loaded() bool {
	return f.loaded
}

// Save starts an asynchronous save of the owner's state. It is a no-op
// while the device is not ready; the owner is expected to call Save again
// later. Failures are reported only through the completion result.
func (f *PersistentFile) Save() {
	if f.write == nil {
		panic(fmt.Sprintf("filebuddy: Save called for %s without a write transfer", f.location))
	}
	device := f.mustDevice("Save")

	if !device.IsReady() {
		logger.Debug("save of %s skipped: device not ready", f.location)
		return
	}

	device.SaveAsync(f.location, f.write, f.saveCompleted)
}

// Load reads the file into the owner's state. It runs at most once per
// successful attempt: an absent file counts as loaded, a failed attempt
// is logged and may be retried by calling Load again.
// Load blocks until the read transfer has finished.
func (f *PersistentFile) Load() {
	if f.loaded {
		return
	}
	if f.read == nil {
		panic(fmt.Sprintf("filebuddy: Load called for %s without a read transfer", f.location))
	}
	device := f.mustDevice("Load")

	if err := f.load(device); err != nil {
		f.loaded = false
		logger.Error(err, "loading %s", f.location)
		return
	}

	f.loaded = true
	logger.Info("loaded file %s", f.location)
}

// load checks for the file and reads it, converting a panicking transfer
// into an error.
func (f *PersistentFile) load(device driven.SaveDevice) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", domain.ErrTransferPanicked, r)
		}
	}()

	exists, err := device.Exists(f.location)
	if err != nil {
		return fmt.Errorf("checking %s: %w", f.location, err)
	}
	if !exists {
		logger.Debug("nothing to load at %s", f.location)
		return nil
	}

	if err := device.Load(f.location, f.read); err != nil {
		return fmt.Errorf("reading %s: %w", f.location, err)
	}
	return nil
}

// mustDevice returns the bound device or panics if Initialize was skipped.
func (f *PersistentFile) mustDevice(op string) driven.SaveDevice {
	if f.device == nil {
		panic(fmt.Sprintf("filebuddy: %s called for %s before Initialize", op, f.location))
	}
	return f.device
}
