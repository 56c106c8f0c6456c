package report

import "errors"

var (
	ErrUnknownFormat = errors.New("unknown estimates format")
	ErrNoSummaries   = errors.New("no team summaries to write")
	ErrWrite         = errors.New("failed to write estimates")
)
