package domain

import "time"

// SaveResult is the completion notification for one accepted save.
type SaveResult struct {
	// RequestID identifies the save request that produced this result.
	RequestID string

	// Location is where the file was being written.
	Location Location

	// Err is nil on success.
	Err error

	// Started and Finished bracket the transfer.
	Started  time.Time
	Finished time.Time
}

// OK reports whether the save succeeded.
func (r SaveResult) OK() bool {
	return r.Err == nil
}

// Duration returns how long the transfer took.
func (r SaveResult) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// DeviceEventResponse tells a shared device what to do after the user
// cancels the device selector or the selected device disconnects.
type DeviceEventResponse int

// Available responses.
const (
	// ResponseNothing leaves the device unready until PromptForDevice is called.
	ResponseNothing DeviceEventResponse = iota

	// ResponsePrompt shows the selector once more; cancelling it again is final.
	ResponsePrompt

	// ResponseForce keeps showing the selector until a device is chosen.
	ResponseForce
)

// String returns the string representation.
func (r DeviceEventResponse) String() string {
	switch r {
	case ResponseNothing:
		return "nothing"
	case ResponsePrompt:
		return "prompt"
	case ResponseForce:
		return "force"
	default:
		return unknownDescription
	}
}
