package ai

import "errors"

// Sentinel kinds for summary client errors.
var (
	ErrNoBaseURL = errors.New("summary service base url is required")
	ErrNoSession = errors.New("follow-up requires a session id")
	ErrRemote    = errors.New("summary service error")
)
