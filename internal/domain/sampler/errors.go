package sampler

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNonFinite     = errors.New("log density is not finite at any initial point")
	ErrInvalidConfig = errors.New("invalid sampler config")
)
