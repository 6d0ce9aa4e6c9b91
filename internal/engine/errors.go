package engine

import "errors"

// Sentinel errors for engine operations.
var (
	ErrNotFound        = errors.New("active mode not found")
	ErrInvalidDuration = errors.New("duration out of range")
	ErrInvalidPeriod   = errors.New("invalid period")
)
