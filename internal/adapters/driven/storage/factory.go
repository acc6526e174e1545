// Package storage provides factory functions for creating save devices.
package storage

import (
	"fmt"

	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/shared"
	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/logger"
)

// forceSelection keeps asking until the user picks a device.
func forceSelection() domain.DeviceEventResponse {
	return domain.ResponseForce
}

// NewDevice creates the save device for the configured platform.
// A shared device is returned unready with a prompt already queued; it
// becomes ready once the host services it and the selector answers.
func NewDevice(settings domain.StorageSettings, selector driven.DeviceSelector) (driven.SaveDevice, error) {
	platform := settings.ResolvedPlatform()
	logger.Debug("creating %s save device", platform)

	switch platform {
	case domain.PlatformMemory:
		return memory.NewDevice(), nil

	case domain.PlatformIsolated:
		dev, err := sqlite.NewDevice(settings.IsolatedDir)
		if err != nil {
			return nil, fmt.Errorf("opening isolated storage: %w", err)
		}
		return dev, nil

	case domain.PlatformShared:
		interval := settings.PromptInterval
		if interval <= 0 {
			interval = domain.DefaultPromptInterval
		}
		dev := shared.NewDevice(selector, shared.WithPromptInterval(interval))
		dev.SetOnSelectorCanceled(forceSelection)
		dev.SetOnDisconnected(forceSelection)
		dev.PromptForDevice()
		return dev, nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedPlatform, platform)
	}
}

// Factory binds settings and selector into a driven.DeviceFactory.
func Factory(settings domain.StorageSettings, selector driven.DeviceSelector) driven.DeviceFactory {
	return func() (driven.SaveDevice, error) {
		return NewDevice(settings, selector)
	}
}
