// Package sqlite provides isolated per-application storage backed by SQLite.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation to mobile targets. Every file lives as a
// row in a single database, keyed by (container, name), so the application never
// touches paths outside its own data directory.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.filebuddy/isolated/isolated.db
//
// # Thread Safety
//
// All operations are thread-safe. Saves commit in a single statement, so a
// failed write transfer never leaves a partial file behind.
package sqlite
