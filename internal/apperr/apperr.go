package apperr

import "errors"

var (
	// ErrInvalidArgument marks values rejected at construction time
	// (malformed time ranges, negative durations, bad request fields).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTooManyEvents is returned when a caller exceeds the configured
	// per-request event limit.
	ErrTooManyEvents = errors.New("too many events")
)
