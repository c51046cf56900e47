package queue

import "errors"

// Sentinel kinds for enqueue failures.
var (
	ErrFull   = errors.New("race queue full")
	ErrClosed = errors.New("race queue closed")
)
