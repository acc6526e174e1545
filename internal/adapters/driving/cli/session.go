package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driving"
	"github.com/custodia-labs/filebuddy/internal/logger"
)

// readyPoll is how often a session checks whether the device is ready.
const readyPoll = 20 * time.Millisecond

// session is a running runtime with persistent files bound to it.
type session struct {
	runtime driving.Runtime
	device  driven.SaveDevice
	cancel  context.CancelFunc
	done    chan struct{}
}

// openSession builds a runtime from the effective settings, binds files to
// it, starts servicing and waits until the save device is ready.
func openSession(ctx context.Context, files ...driving.PersistentFile) (*session, error) {
	if settingsService == nil || newRuntime == nil {
		return nil, errors.New("storage not configured")
	}

	settings, err := effectiveSettings()
	if err != nil {
		return nil, err
	}

	logger.Section("Storage")
	logger.Debug("platform %s", settings.Storage.ResolvedPlatform())

	rt := newRuntime(*settings)
	device, err := rt.SaveDevice()
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to open save device: %w", err)
	}
	// Devices that need servicing are registered even when no file is bound.
	if c, ok := device.(driving.Component); ok {
		rt.AddComponent(c)
	}
	for _, f := range files {
		if err := f.Initialize(rt); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to initialise %s: %w", f.Location(), err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &session{
		runtime: rt,
		device:  device,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := rt.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("runtime stopped: %v", err)
		}
	}()

	if err := s.waitReady(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// waitReady blocks until the device is ready or the wait timeout expires.
func (s *session) waitReady(ctx context.Context) error {
	if s.device.IsReady() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: no storage device selected within %s", domain.ErrDeviceNotReady, waitTimeout)
		case <-ticker.C:
			if s.device.IsReady() {
				return nil
			}
		}
	}
}

// Close stops servicing and releases the device.
func (s *session) Close() error {
	s.cancel()
	<-s.done
	return s.runtime.Close()
}

// save starts a save of file and waits for its completion result. A device
// that is no longer ready fails at once: the file would skip the save and
// never report.
func (s *session) save(ctx context.Context, file driving.PersistentFile, results <-chan domain.SaveResult) (domain.SaveResult, error) {
	if !s.device.IsReady() {
		return domain.SaveResult{}, fmt.Errorf("%w: storage device went away", domain.ErrDeviceNotReady)
	}
	file.Save()
	return awaitSave(ctx, results)
}

// awaitSave waits for the completion result of a save.
func awaitSave(ctx context.Context, results <-chan domain.SaveResult) (domain.SaveResult, error) {
	select {
	case r := <-results:
		return r, nil
	case <-ctx.Done():
		return domain.SaveResult{}, ctx.Err()
	}
}

// parseLocation accepts either a single container/name path or a separate
// container and name.
func parseLocation(args []string) (domain.Location, error) {
	var loc domain.Location
	switch len(args) {
	case 1:
		path := strings.Trim(args[0], "/")
		if i := strings.LastIndex(path, "/"); i >= 0 {
			loc = domain.NewLocation(path[:i], path[i+1:])
		} else {
			loc = domain.NewLocation("", path)
		}
	case 2:
		loc = domain.NewLocation(args[0], args[1])
	default:
		return domain.Location{}, fmt.Errorf("%w: expected [container] name", domain.ErrInvalidInput)
	}

	if err := loc.Validate(); err != nil {
		return domain.Location{}, err
	}
	return loc, nil
}
