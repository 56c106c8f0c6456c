package service

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid fit request")
	ErrSampling       = errors.New("sampling failed")
	ErrIngest         = errors.New("ingest failed")
)
