// Package services implements the driving port interfaces.
// Services contain the core save/load lifecycle and settings logic and
// orchestrate calls to driven ports (save devices, config stores).
//
// Services are pure Go with no CGO.
package services
