package memory

import (
	"bytes"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/async"
	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
)

// Ensure Device implements the interface.
var (
	_ driven.SaveDevice = (*Device)(nil)
	_ driven.FileLister = (*Device)(nil)
)

// Device is an in-memory implementation of driven.SaveDevice.
// It is ready as soon as it is created. Contents are lost on exit.
type Device struct {
	mu    sync.RWMutex
	ready bool
	files map[domain.Location][]byte
	saver *async.Saver
}

// NewDevice creates a new, ready in-memory save device.
func NewDevice() *Device {
	return &Device{
		ready: true,
		files: make(map[domain.Location][]byte),
		saver: async.NewSaver(),
	}
}

// SetReady toggles readiness, simulating a device being removed or selected.
func (d *Device) SetReady(ready bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ready = ready
}

// IsReady reports whether saves are accepted.
func (d *Device) IsReady() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ready
}

// IsBusy reports whether any save is in flight.
func (d *Device) IsBusy() bool {
	return d.saver.Busy()
}

// Exists reports whether a file is stored at loc.
func (d *Device) Exists(loc domain.Location) (bool, error) {
	if err := loc.Validate(); err != nil {
		return false, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.files[loc.Normalize()]
	return ok, nil
}

// SaveAsync writes the file on a worker goroutine.
func (d *Device) SaveAsync(loc domain.Location, write driven.WriteFunc, done driven.SaveCompleted) {
	d.saver.Save(loc, write, d.commit, done)
}

func (d *Device) commit(loc domain.Location, data []byte) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[loc.Normalize()] = bytes.Clone(data)
	return nil
}

// Load runs read against a copy of the stored contents.
func (d *Device) Load(loc domain.Location, read driven.ReadFunc) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	d.mu.RLock()
	data, ok := d.files[loc.Normalize()]
	d.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}
	return read(bytes.NewReader(data))
}

// Delete removes a stored file.
func (d *Device) Delete(loc domain.Location) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, loc.Normalize())
}

// List returns every stored location, sorted by key.
func (d *Device) List() ([]domain.Location, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	locs := make([]domain.Location, 0, len(d.files))
	for loc := range d.files {
		locs = append(locs, loc)
	}
	slices.SortFunc(locs, func(a, b domain.Location) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return locs, nil
}

// Close waits for in-flight saves.
func (d *Device) Close() error {
	d.saver.Close()
	return nil
}
