package simulate

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid simulation config")
	ErrRecovery      = errors.New("posterior ranking does not recover the truth")
)
