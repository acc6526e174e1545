package driven

import "context"

// DeviceSelector asks the user which shared storage device to use.
// Presentation is up to the implementation.
type DeviceSelector interface {
	// SelectDevice returns the root directory of the chosen device.
	// Returns domain.ErrSelectionCanceled if the user dismissed the selector.
	SelectDevice(ctx context.Context) (string, error)
}
