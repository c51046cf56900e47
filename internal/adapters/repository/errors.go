package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrNotFound    = errors.New("report not found")
	ErrInvalidKey  = errors.New("invalid race key")
	ErrStoreClosed = errors.New("report store closed")
)
