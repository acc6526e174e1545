package sqlite

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/async"
	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/logger"
)

// Ensure Device implements the interfaces.
var (
	_ driven.SaveDevice = (*Device)(nil)
	_ driven.FileLister = (*Device)(nil)
)

// Device is per-application isolated storage kept in a single SQLite
// database. It is ready as soon as the database is open.
type Device struct {
	db    *sql.DB
	path  string
	saver *async.Saver

	mu     sync.RWMutex
	closed bool
}

// NewDevice opens the isolated storage database in dataDir.
// If dataDir is empty, defaults to ~/.filebuddy/isolated/isolated.db.
func NewDevice(dataDir string) (*Device, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".filebuddy", "isolated")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "isolated.db")

	// WAL lets loads proceed while a save is committing
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	d := &Device{
		db:    db,
		path:  dbPath,
		saver: async.NewSaver(),
	}

	if err := d.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Debug("isolated storage opened at %s", dbPath)
	return d, nil
}

// Path returns the database file path.
func (d *Device) Path() string {
	return d.path
}

// IsReady reports whether the database is open.
func (d *Device) IsReady() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.closed
}

// IsBusy reports whether any save is in flight.
func (d *Device) IsBusy() bool {
	return d.saver.Busy()
}

// Exists reports whether a file is stored at loc.
func (d *Device) Exists(loc domain.Location) (bool, error) {
	if err := loc.Validate(); err != nil {
		return false, err
	}
	loc = loc.Normalize()

	var one int
	err := d.db.QueryRow(
		`SELECT 1 FROM files WHERE container = ? AND name = ?`,
		loc.Container, loc.Name,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", loc, err)
	}
	return true, nil
}

// SaveAsync writes the file on a worker goroutine and commits it in a
// single upsert.
func (d *Device) SaveAsync(loc domain.Location, write driven.WriteFunc, done driven.SaveCompleted) {
	d.saver.Save(loc, write, d.commit, done)
}

func (d *Device) commit(loc domain.Location, data []byte) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	loc = loc.Normalize()

	_, err := d.db.Exec(`
		INSERT INTO files (container, name, data, size, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(container, name) DO UPDATE SET
			data = excluded.data,
			size = excluded.size,
			updated_at = excluded.updated_at
	`, loc.Container, loc.Name, data, len(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	return nil
}

// Load runs read against the stored blob.
func (d *Device) Load(loc domain.Location, read driven.ReadFunc) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	loc = loc.Normalize()

	var data []byte
	err := d.db.QueryRow(
		`SELECT data FROM files WHERE container = ? AND name = ?`,
		loc.Container, loc.Name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("loading %s: %w", loc, err)
	}

	return read(bytes.NewReader(data))
}

// List returns every stored location, sorted by key.
func (d *Device) List() ([]domain.Location, error) {
	rows, err := d.db.Query(`SELECT container, name FROM files ORDER BY container, name`)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var locs []domain.Location
	for rows.Next() {
		var loc domain.Location
		if err := rows.Scan(&loc.Container, &loc.Name); err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		locs = append(locs, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return locs, nil
}

// Close waits for in-flight saves and closes the database.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.saver.Close()
	return d.db.Close()
}

// migrate runs all pending migrations.
func (d *Device) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := d.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_isolated_files.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := d.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}
