package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/shared"
	"github.com/custodia-labs/filebuddy/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/filebuddy/internal/core/domain"
)

type stubSelector struct {
	root  string
	calls int
}

func (s *stubSelector) SelectDevice(context.Context) (string, error) {
	s.calls++
	if s.root == "" {
		return "", domain.ErrSelectionCanceled
	}
	return s.root, nil
}

func TestNewDevice_Memory(t *testing.T) {
	dev, err := NewDevice(domain.StorageSettings{Platform: domain.PlatformMemory}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })

	assert.IsType(t, &memory.Device{}, dev)
	assert.True(t, dev.IsReady())
}

func TestNewDevice_Isolated(t *testing.T) {
	dir := t.TempDir()
	dev, err := NewDevice(domain.StorageSettings{
		Platform:    domain.PlatformIsolated,
		IsolatedDir: dir,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })

	require.IsType(t, &sqlite.Device{}, dev)
	assert.True(t, dev.IsReady())
	assert.Equal(t, filepath.Join(dir, "isolated.db"), dev.(*sqlite.Device).Path())
}

func TestNewDevice_SharedQueuesPrompt(t *testing.T) {
	root := t.TempDir()
	sel := &stubSelector{root: root}

	dev, err := NewDevice(domain.StorageSettings{Platform: domain.PlatformShared}, sel)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })

	require.IsType(t, &shared.Device{}, dev)
	assert.False(t, dev.IsReady())

	dev.(*shared.Device).Update(context.Background())
	assert.Equal(t, 1, sel.calls)
	assert.True(t, dev.IsReady())
}

func TestNewDevice_SharedForcesOnCancel(t *testing.T) {
	sel := &stubSelector{}
	dev, err := NewDevice(domain.StorageSettings{Platform: domain.PlatformShared}, sel)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })

	d := dev.(*shared.Device)
	d.Update(context.Background())
	require.Equal(t, 1, sel.calls)

	// The default prompt interval throttles the forced re-prompt.
	d.Update(context.Background())
	assert.Equal(t, 1, sel.calls)
	assert.False(t, d.IsReady())
}

func TestNewDevice_AutoResolves(t *testing.T) {
	settings := domain.StorageSettings{Platform: domain.PlatformAuto, IsolatedDir: t.TempDir()}
	dev, err := NewDevice(settings, &stubSelector{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = dev.Close() })

	switch settings.ResolvedPlatform() {
	case domain.PlatformIsolated:
		assert.IsType(t, &sqlite.Device{}, dev)
	case domain.PlatformShared:
		assert.IsType(t, &shared.Device{}, dev)
	default:
		t.Fatalf("auto resolved to %s", settings.ResolvedPlatform())
	}
}

func TestNewDevice_Unsupported(t *testing.T) {
	dev, err := NewDevice(domain.StorageSettings{Platform: "floppy"}, nil)
	assert.Nil(t, dev)
	assert.ErrorIs(t, err, domain.ErrUnsupportedPlatform)
}

func TestFactory(t *testing.T) {
	factory := Factory(domain.StorageSettings{Platform: domain.PlatformMemory}, nil)

	first, err := factory()
	require.NoError(t, err)
	second, err := factory()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = first.Close()
		_ = second.Close()
	})

	assert.NotSame(t, first, second)
}
