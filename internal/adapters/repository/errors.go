package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotOpen  = errors.New("store is not open")
	ErrNoGames  = errors.New("no completed games for season")
	ErrOpen     = errors.New("open database failed")
	ErrQuery    = errors.New("query failed")
	ErrWrite    = errors.New("write failed")
	ErrReadOnly = errors.New("store is read-only")
)
