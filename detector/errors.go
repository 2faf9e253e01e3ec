package detector

import (
	"errors"
)

var (
	// ErrPermission means the microphone is denied or unavailable. Start
	// surfaces it and leaves no partial state behind.
	ErrPermission = errors.New("microphone access denied or unavailable")

	// ErrInitialization means the analysis runtime could not be prepared.
	// IsReady reports false afterwards.
	ErrInitialization = errors.New("analysis runtime failed to initialize")

	// ErrAlreadyRecording means Start was called while a session is live
	ErrAlreadyRecording = errors.New("detector is already recording")
)
