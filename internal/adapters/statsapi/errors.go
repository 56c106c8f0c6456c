package statsapi

import "errors"

// Sentinel kinds for stats API errors.
var (
	ErrStatus     = errors.New("stats api returned non-2xx status")
	ErrDecode     = errors.New("stats api response could not be decoded")
	ErrRequest    = errors.New("stats api request failed")
	ErrIncomplete = errors.New("line score has no final runs")
)
