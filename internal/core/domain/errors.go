package domain

import "errors"

// Domain errors represent storage lifecycle failures.
// These are distinct from infrastructure errors, which adapters wrap.
var (
	// ErrNotFound indicates a requested file does not exist on the device.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyInitialized indicates Initialize was called more than once.
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrUnsupportedPlatform indicates an unknown storage platform was configured.
	ErrUnsupportedPlatform = errors.New("unsupported storage platform")

	// Device Errors.

	// ErrDeviceNotReady indicates no storage is currently available,
	// e.g. the user has not selected a shared device yet.
	ErrDeviceNotReady = errors.New("save device not ready")

	// ErrDeviceDisconnected indicates the selected device went away.
	ErrDeviceDisconnected = errors.New("save device disconnected")

	// ErrDeviceClosed indicates the device has been closed.
	ErrDeviceClosed = errors.New("save device closed")

	// ErrDeviceLocked indicates another process holds the device.
	ErrDeviceLocked = errors.New("save device locked by another process")

	// ErrSelectionCanceled indicates the user dismissed the device selector.
	ErrSelectionCanceled = errors.New("device selection canceled")

	// ErrTransferPanicked indicates a caller-supplied transfer function panicked.
	ErrTransferPanicked = errors.New("transfer function panicked")
)
