package plot

import "errors"

var (
	ErrEmptyFigure = errors.New("figure has no teams")
	ErrShape       = errors.New("figure inputs disagree on team count")
	ErrRender      = errors.New("failed to render figure")
)
