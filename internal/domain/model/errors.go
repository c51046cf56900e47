package model

import "errors"

// Sentinel error kinds shared by the analysis stages. These allow errors.Is/As from callers.
var (
	ErrEmptyInput    = errors.New("empty input")
	ErrMissingColumn = errors.New("missing column")
	ErrNoContenders  = errors.New("no contenders found")
)
