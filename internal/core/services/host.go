package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driving"
	"github.com/custodia-labs/filebuddy/internal/logger"
)

// Ensure Host implements the interface.
var _ driving.Runtime = (*Host)(nil)

// Host owns the process-wide save device and services registered
// components on a fixed interval.
type Host struct {
	factory  driven.DeviceFactory
	interval time.Duration

	mu         sync.Mutex
	components []driving.Component
	device     driven.SaveDevice
	running    bool
	stopCh     chan struct{}
	done       chan struct{}
}

// NewHost creates a host that builds its save device with factory and
// services components every interval.
func NewHost(factory driven.DeviceFactory, interval time.Duration) *Host {
	if interval <= 0 {
		interval = domain.DefaultServiceInterval
	}
	return &Host{
		factory:  factory,
		interval: interval,
	}
}

// AddComponent registers c for periodic servicing. Components are compared
// by identity, so adding one twice has no effect.
func (h *Host) AddComponent(c driving.Component) {
	if c == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if slices.Contains(h.components, c) {
		return
	}
	h.components = append(h.components, c)
}

// Components returns the registered components in registration order.
func (h *Host) Components() []driving.Component {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.components)
}

// SaveDevice returns the save device, constructing it on first use.
// A failed construction is not cached; the next call tries again.
func (h *Host) SaveDevice() (driven.SaveDevice, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.device != nil {
		return h.device, nil
	}
	if h.factory == nil {
		return nil, errors.New("host has no device factory")
	}
	dev, err := h.factory()
	if err != nil {
		return nil, err
	}
	h.device = dev
	return dev, nil
}

// Update services every registered component once.
func (h *Host) Update(ctx context.Context) {
	for _, c := range h.Components() {
		c.Update(ctx)
	}
}

// Run services components until ctx is cancelled or Stop is called.
// It blocks, running one Update immediately and then one per interval.
func (h *Host) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil // Already running
	}
	h.running = true
	stopCh := make(chan struct{})
	done := make(chan struct{})
	h.stopCh, h.done = stopCh, done
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
		close(done)
	}()

	logger.Debug("host servicing components every %s", h.interval)
	h.Update(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			h.Update(ctx)
		}
	}
}

// Stop ends Run and waits for it to return.
func (h *Host) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	stopCh, done := h.stopCh, h.done
	select {
	case <-stopCh:
	default:
		close(stopCh)
	}
	h.mu.Unlock()

	<-done
}

// Close stops servicing and closes the save device if one was built.
func (h *Host) Close() error {
	h.Stop()

	h.mu.Lock()
	dev := h.device
	h.device = nil
	h.mu.Unlock()

	if dev == nil {
		return nil
	}
	return dev.Close()
}
