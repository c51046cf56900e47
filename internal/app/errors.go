package service

import "errors"

// Sentinel error kinds for the service.
var (
	ErrNotStarted = errors.New("service not started")
	ErrInvalidJob = errors.New("invalid race job")
)
