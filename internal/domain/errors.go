package domain

import "errors"

var (
	// ErrRoomIDRequired rejects a call start with an empty (after trimming) room id.
	ErrRoomIDRequired = errors.New("room id required")

	// ErrCallInProgress rejects starting a call while one is already active.
	ErrCallInProgress = errors.New("call already in progress")

	// ErrPermissionDenied reports that the user refused camera/microphone access.
	ErrPermissionDenied = errors.New("media permission denied")

	// ErrDeviceUnavailable reports that no usable capture device could be opened.
	ErrDeviceUnavailable = errors.New("media device unavailable")

	// ErrNotInitialized reports use of the call provider before Initialize.
	ErrNotInitialized = errors.New("call provider not initialized")
)
