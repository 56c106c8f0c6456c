package bt

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownVariant = errors.New("unknown model variant")
	ErrUnknownScale   = errors.New("unknown ability scale")
	ErrInvalidData    = errors.New("invalid game data")
)
