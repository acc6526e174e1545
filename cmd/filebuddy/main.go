// Command filebuddy saves and loads persistent files on a pluggable
// storage device.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/filebuddy/internal/adapters/driven/config/file"
	"github.com/custodia-labs/filebuddy/internal/adapters/driven/selector"
	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage"
	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/filebuddy/internal/adapters/driving/cli"
	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driving"
	"github.com/custodia-labs/filebuddy/internal/core/services"
)

// version is set with -ldflags "-X main.version=...".
var version string

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := openConfigStore(os.Getenv("FILEBUDDY_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Settings:   services.NewSettingsService(configStore, nil),
		NewRuntime: newRuntime,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.ExecuteContext(ctx)
}

// openConfigStore returns the settings store for dir. The special value
// ":memory:" keeps settings for this process only.
func openConfigStore(dir string) (driven.ConfigStore, error) {
	if dir == memory.ConfigPath {
		return memory.NewConfigStore(), nil
	}
	return file.NewConfigStore(dir)
}

// newRuntime builds a host whose save device follows settings.
func newRuntime(settings domain.AppSettings) driving.Runtime {
	sel := selector.NewRootsSelector(settings.Storage.SharedRoots)
	return services.NewHost(storage.Factory(settings.Storage, sel), settings.Storage.ServiceInterval)
}
