// Package shared provides a save device backed by a user-selected directory,
// such as a removable drive or a synced folder.
//
// The device is not ready until a directory has been chosen through a
// driven.DeviceSelector. Selection and disconnect handling happen in Update,
// which the host calls periodically.
package shared
