package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrInvalidOutcome = errors.New("invalid outcome assignment")
	ErrNoSummarizer   = errors.New("summary service not configured")
)
