package ranking

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptyDraws = errors.New("no posterior draws")
	ErrShape      = errors.New("draw has the wrong number of teams")
)
