package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrAlreadyInitialized", ErrAlreadyInitialized},
		{"ErrUnsupportedPlatform", ErrUnsupportedPlatform},
		{"ErrDeviceNotReady", ErrDeviceNotReady},
		{"ErrDeviceDisconnected", ErrDeviceDisconnected},
		{"ErrDeviceClosed", ErrDeviceClosed},
		{"ErrDeviceLocked", ErrDeviceLocked},
		{"ErrSelectionCanceled", ErrSelectionCanceled},
		{"ErrTransferPanicked", ErrTransferPanicked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrNotFound tests ErrNotFound error
func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrInvalidInput))
}

// TestErrors_Wrapped tests that wrapped errors are still identifiable
func TestErrors_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("opening %s: %w", "scores/high.toml", ErrNotFound)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrDeviceClosed))
	assert.Contains(t, wrapped.Error(), "not found")
}

// TestErrors_Distinct tests that device errors do not alias each other
func TestErrors_Distinct(t *testing.T) {
	all := []error{
		ErrDeviceNotReady,
		ErrDeviceDisconnected,
		ErrDeviceClosed,
		ErrDeviceLocked,
		ErrSelectionCanceled,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}
