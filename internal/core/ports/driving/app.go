package driving

import (
	"context"

	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
)

// Component is serviced periodically by the host application.
type Component interface {
	// Update is called once per host tick on the host goroutine.
	Update(ctx context.Context)
}

// AppContext is what the host application exposes to features during startup.
type AppContext interface {
	// AddComponent registers c for periodic servicing.
	// Adding the same component twice has no effect.
	AddComponent(c Component)

	// SaveDevice returns the process-wide save device, constructing it on
	// first use.
	SaveDevice() (driven.SaveDevice, error)
}

// Runtime is an AppContext that also drives its components.
type Runtime interface {
	AppContext

	// Run services components until ctx is cancelled or Stop is called.
	Run(ctx context.Context) error

	// Stop ends Run and waits for it to return.
	Stop()

	// Close stops servicing and releases the save device.
	Close() error
}
