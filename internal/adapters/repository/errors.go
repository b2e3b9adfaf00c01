package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidToken = errors.New("invalid continuation token")
	ErrInvalidLimit = errors.New("invalid page limit")
	ErrNotEmpty     = errors.New("record still has children")
)
