package tables

import "errors"

// Sentinel errors for table loading.
var (
	ErrUnsupportedFormat = errors.New("unsupported table format")
	ErrEmptyTable        = errors.New("table has no header row")
	ErrMalformedNumber   = errors.New("malformed number")
	ErrMalformedDate     = errors.New("malformed date")
)
