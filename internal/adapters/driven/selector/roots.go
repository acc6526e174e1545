package selector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/filebuddy/internal/core/domain"
	"github.com/custodia-labs/filebuddy/internal/core/ports/driven"
	"github.com/custodia-labs/filebuddy/internal/logger"
)

// Ensure RootsSelector implements the interface.
var _ driven.DeviceSelector = (*RootsSelector)(nil)

// RootsSelector picks the first configured root that is an existing
// directory. With no roots configured it falls back to a default
// directory, creating it if needed.
type RootsSelector struct {
	roots    []string
	fallback string
}

// NewRootsSelector creates a selector over roots in preference order.
// If roots is empty, ~/.filebuddy/shared is used.
func NewRootsSelector(roots []string) *RootsSelector {
	s := &RootsSelector{roots: roots}
	if len(roots) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			s.fallback = filepath.Join(home, ".filebuddy", "shared")
		}
	}
	return s
}

// SelectDevice returns the first usable root. It reports
// domain.ErrSelectionCanceled when none of the roots exist.
func (s *RootsSelector) SelectDevice(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(s.roots) == 0 {
		if s.fallback == "" {
			return "", fmt.Errorf("%w: no shared roots configured", domain.ErrSelectionCanceled)
		}
		if err := os.MkdirAll(s.fallback, 0o700); err != nil {
			return "", fmt.Errorf("creating %s: %w", s.fallback, err)
		}
		return s.fallback, nil
	}

	for _, root := range s.roots {
		path, err := expandHome(root)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			logger.Debug("shared root %s unavailable", path)
			continue
		}
		return path, nil
	}
	return "", fmt.Errorf("%w: none of %d shared roots is available", domain.ErrSelectionCanceled, len(s.roots))
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
