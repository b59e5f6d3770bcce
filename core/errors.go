package session

import "errors"

// User-visible session errors. These are short stable strings, one per
// failure category; underlying diagnostics are recorded on spans instead.
var (
	ErrMicrophoneUnavailable = errors.New("microphone unavailable")
	ErrTransportOpen         = errors.New("could not connect to voice service")
	ErrTransportRuntime      = errors.New("voice session ended unexpectedly")
)
