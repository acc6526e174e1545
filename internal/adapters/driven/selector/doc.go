// Package selector provides non-interactive driven.DeviceSelector
// implementations for shared storage.
package selector
