package shared

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/async"
	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driving"
	"github.com/custodia-labs/filebuddy/internal/logger"
)

// lockFileName is created in the selected root while the device holds it.
const lockFileName = ".filebuddy.lock"

// Ensure Device implements the interfaces.
var (
	_ driven.SaveDevice = (*Device)(nil)
	_ driven.FileLister = (*Device)(nil)
	_ driving.Component = (*Device)(nil)
)

// EventHandler decides what happens after the user cancels the selector or
// the selected device goes away.
type EventHandler func() domain.DeviceEventResponse

// Option configures a Device.
type Option func(*Device)

// WithPromptInterval sets the minimum time between two selector prompts.
// Zero or negative disables throttling.
func WithPromptInterval(d time.Duration) Option {
	return func(dev *Device) {
		dev.limiter = newLimiter(d)
	}
}

// Device stores files under a directory chosen by the user.
type Device struct {
	selector driven.DeviceSelector
	saver    *async.Saver
	limiter  *rate.Limiter

	mu           sync.RWMutex
	root         string
	lock         *os.File
	watcher      *fsnotify.Watcher
	disconnected bool
	closed       bool

	// pending is set when the selector should be shown on the next Update.
	pending bool
	// final is set when the pending prompt is the last chance after a
	// ResponsePrompt; cancelling it does not consult the handler again.
	final bool

	onSelectorCanceled EventHandler
	onDisconnected     EventHandler

	watchers sync.WaitGroup
}

// NewDevice creates a shared device that asks selector for its root.
// The device is not ready until PromptForDevice is called and the next
// Update completes a selection.
func NewDevice(selector driven.DeviceSelector, opts ...Option) *Device {
	d := &Device{
		selector: selector,
		saver:    async.NewSaver(),
		limiter:  newLimiter(domain.DefaultPromptInterval),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// SetOnSelectorCanceled installs the handler consulted when the user
// dismisses the selector. A nil handler behaves as ResponseNothing.
func (d *Device) SetOnSelectorCanceled(h EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onSelectorCanceled = h
}

// SetOnDisconnected installs the handler consulted when the selected root
// disappears. A nil handler behaves as ResponseNothing.
func (d *Device) SetOnDisconnected(h EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onDisconnected = h
}

// PromptForDevice queues the selector for the next Update.
func (d *Device) PromptForDevice() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = true
	d.final = false
}

// Root returns the selected directory, or "" when none is selected.
func (d *Device) Root() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root
}

// IsReady reports whether a root is selected and still present.
func (d *Device) IsReady() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root != "" && !d.disconnected && !d.closed
}

// IsBusy reports whether any save is in flight.
func (d *Device) IsBusy() bool {
	return d.saver.Busy()
}

// Update detects disconnects and services a queued prompt.
func (d *Device) Update(ctx context.Context) {
	if root, lost := d.checkDisconnected(); lost {
		logger.Warn("shared device disconnected: %s", root)
		d.respond(d.consult(&d.onDisconnected))
	}
	d.servicePrompt(ctx)
}

// checkDisconnected reports a lost root, releasing it if so.
func (d *Device) checkDisconnected() (string, bool) {
	d.mu.RLock()
	root, lost := d.root, d.disconnected
	d.mu.RUnlock()

	if root == "" {
		return "", false
	}
	if !lost {
		info, err := os.Stat(root)
		lost = err != nil || !info.IsDir()
	}
	if !lost {
		return "", false
	}
	if err := d.detach(); err != nil {
		logger.Debug("releasing %s: %v", root, err)
	}
	return root, true
}

func (d *Device) servicePrompt(ctx context.Context) {
	d.mu.Lock()
	if !d.pending || d.closed || !d.limiter.Allow() {
		d.mu.Unlock()
		return
	}
	d.pending = false
	final := d.final
	d.mu.Unlock()

	if d.selector == nil {
		logger.Warn("shared device has no selector; staying unready")
		return
	}

	root, err := d.selector.SelectDevice(ctx)
	switch {
	case err == nil:
		if err := d.attach(root); err != nil {
			logger.Warn("cannot use %s as a save device: %v", root, err)
			d.canceled(final)
			return
		}
		logger.Info("shared device selected: %s", d.Root())
	case ctx.Err() != nil:
		// Shutting down; ask again if the host keeps running.
		d.mu.Lock()
		d.pending = true
		d.mu.Unlock()
	case errors.Is(err, domain.ErrSelectionCanceled):
		logger.Debug("device selection canceled")
		d.canceled(final)
	default:
		logger.Warn("device selection failed: %v", err)
		d.canceled(final)
	}
}

func (d *Device) canceled(final bool) {
	if final {
		d.mu.Lock()
		d.final = false
		d.mu.Unlock()
		return
	}
	d.respond(d.consult(&d.onSelectorCanceled))
}

// consult calls the handler stored in slot outside the lock.
func (d *Device) consult(slot *EventHandler) domain.DeviceEventResponse {
	d.mu.RLock()
	h := *slot
	d.mu.RUnlock()
	if h == nil {
		return domain.ResponseNothing
	}
	return h()
}

func (d *Device) respond(resp domain.DeviceEventResponse) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch resp {
	case domain.ResponseForce:
		d.pending = true
		d.final = false
	case domain.ResponsePrompt:
		d.pending = true
		d.final = true
	}
}

// attach makes root the device root, replacing any previous one.
func (d *Device) attach(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, abs)
	}

	d.mu.RLock()
	same := d.root == abs && !d.disconnected
	d.mu.RUnlock()
	if same {
		d.mu.Lock()
		d.final = false
		d.mu.Unlock()
		return nil
	}

	if err := d.detach(); err != nil {
		logger.Debug("releasing previous device: %v", err)
	}

	lock, err := acquireLock(filepath.Join(abs, lockFileName))
	if err != nil {
		return err
	}

	// Watch the parent: a watch on the root misses the root's own removal.
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if err = watcher.Add(filepath.Dir(abs)); err != nil {
			watcher.Close()
			watcher = nil
		}
	}
	if err != nil {
		// Update still polls the root, so a missing watcher only delays detection.
		logger.Debug("watching %s: %v", abs, err)
	}

	d.mu.Lock()
	d.root = abs
	d.lock = lock
	d.watcher = watcher
	d.disconnected = false
	d.final = false
	d.mu.Unlock()

	if watcher != nil {
		d.watchers.Add(1)
		go d.watch(watcher, abs)
	}
	return nil
}

// detach releases the current root, its lock and its watcher.
func (d *Device) detach() error {
	d.mu.Lock()
	lock, watcher := d.lock, d.watcher
	d.root = ""
	d.lock = nil
	d.watcher = nil
	d.disconnected = false
	d.mu.Unlock()

	if watcher != nil {
		watcher.Close()
	}
	d.watchers.Wait()
	return releaseLock(lock)
}

func (d *Device) watch(w *fsnotify.Watcher, root string) {
	defer d.watchers.Done()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == root && (ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)) {
				d.markDisconnected(root)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Debug("watcher error for %s: %v", root, err)
		}
	}
}

func (d *Device) markDisconnected(root string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.root == root {
		d.disconnected = true
	}
}

// filePath maps loc onto the file system below root.
func filePath(root string, loc domain.Location) (string, error) {
	if err := loc.Validate(); err != nil {
		return "", err
	}
	n := loc.Normalize()
	return filepath.Join(root, filepath.FromSlash(n.Container), n.Name), nil
}

// readyRoot returns the root if the device can serve requests.
func (d *Device) readyRoot() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	switch {
	case d.closed:
		return "", domain.ErrDeviceClosed
	case d.root == "":
		return "", domain.ErrDeviceNotReady
	case d.disconnected:
		return "", domain.ErrDeviceDisconnected
	}
	return d.root, nil
}

// Exists reports whether a file is stored at loc.
func (d *Device) Exists(loc domain.Location) (bool, error) {
	root, err := d.readyRoot()
	if err != nil {
		return false, err
	}
	p, err := filePath(root, loc)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// SaveAsync writes the file on a worker goroutine. The root is captured
// now, so a device switch mid-save does not redirect the write.
func (d *Device) SaveAsync(loc domain.Location, write driven.WriteFunc, done driven.SaveCompleted) {
	root, rootErr := d.readyRoot()
	d.saver.Save(loc, write, func(loc domain.Location, data []byte) error {
		if rootErr != nil {
			return rootErr
		}
		return writeFile(root, loc, data)
	}, done)
}

// writeFile replaces the file at loc through a synced temp file and rename.
func writeFile(root string, loc domain.Location, data []byte) error {
	p, err := filePath(root, loc)
	if err != nil {
		return err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating container: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".filebuddy-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		cleanup()
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Load runs read against the stored file.
func (d *Device) Load(loc domain.Location, read driven.ReadFunc) error {
	root, err := d.readyRoot()
	if err != nil {
		return err
	}
	p, err := filePath(root, loc)
	if err != nil {
		return err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("opening %s: %w", loc, err)
	}
	defer f.Close()
	return read(f)
}

// List returns every stored location, skipping hidden files.
func (d *Device) List() ([]domain.Location, error) {
	root, err := d.readyRoot()
	if err != nil {
		return nil, err
	}

	var locs []domain.Location
	err = filepath.WalkDir(root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(p))
		if err != nil {
			return err
		}
		container := filepath.ToSlash(rel)
		if container == "." {
			container = ""
		}
		locs = append(locs, domain.NewLocation(container, entry.Name()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}

	slices.SortFunc(locs, func(a, b domain.Location) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return locs, nil
}

// Close waits for in-flight saves and releases the selected root.
func (d *Device) Close() error {
	d.mu.Lock()
	d.closed = true
	d.pending = false
	d.mu.Unlock()

	d.saver.Close()
	return d.detach()
}
