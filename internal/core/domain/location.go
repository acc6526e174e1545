package domain

import (
	"fmt"
	"path"
	"strings"
)

// Location identifies a logical file inside a save device: a container
// (folder) and a file name. Locations compare by value.
type Location struct {
	// Container is the folder the file lives in. Empty means the device root.
	Container string

	// Name is the file name within the container.
	Name string
}

// NewLocation returns a Location for the given container and name.
func NewLocation(container, name string) Location {
	return Location{Container: container, Name: name}
}

// String renders the location as container/name.
func (l Location) String() string {
	if l.Container == "" {
		return l.Name
	}
	return l.Container + "/" + l.Name
}

// Validate reports whether the location can be mapped onto a device.
// Names must be non-empty and neither part may escape its parent.
// Leading slashes in the container are relative to the device root.
func (l Location) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("%w: empty file name", ErrInvalidInput)
	}
	if strings.ContainsAny(l.Name, `/\`) {
		return fmt.Errorf("%w: file name %q contains a path separator", ErrInvalidInput, l.Name)
	}
	if l.Name == "." || l.Name == ".." {
		return fmt.Errorf("%w: file name %q", ErrInvalidInput, l.Name)
	}
	if l.Container != "" {
		clean := path.Clean(strings.TrimLeft(strings.ReplaceAll(l.Container, `\`, "/"), "/"))
		if clean == ".." || strings.HasPrefix(clean, "../") {
			return fmt.Errorf("%w: container %q escapes the device root", ErrInvalidInput, l.Container)
		}
	}
	return nil
}

// Normalize returns the location with its container cleaned to a
// slash-separated relative path without leading or trailing slashes.
func (l Location) Normalize() Location {
	container := strings.Trim(path.Clean("/"+strings.ReplaceAll(l.Container, `\`, "/")), "/")
	return Location{Container: container, Name: l.Name}
}

// Key returns the normalised container/name key used by devices that
// store files in a flat namespace.
func (l Location) Key() string {
	return l.Normalize().String()
}
