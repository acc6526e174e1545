// Package memory provides in-memory implementations of driven port interfaces.
//
// Adapters:
//   - Device: SaveDevice whose files live in process memory
//   - ConfigStore: configuration that is never persisted
//
// Both are used by tests and by hosts that opt out of persistence.
package memory
