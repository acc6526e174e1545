// Package domain defines the core types for filebuddy.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Location: Where a logical file lives on a save device
//   - SaveResult: Completion notification for an asynchronous save
//   - DeviceEventResponse: How a shared device reacts to cancel/disconnect
//   - AppSettings: Persisted storage and logging settings
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
