package worker

import (
	"github.com/okian/pairwise/pkg/logger"
)

type settings struct {
	name   string
	logger logger.Logger
}

// Option applies a configuration option to an InMemoryWorker.
type Option func(*settings)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

type poolSettings struct {
	name     string
	failFast bool
}

// PoolOption applies a configuration option to a Pool.
type PoolOption func(*poolSettings)

// WithPoolName prefixes worker names and names the pool logger.
func WithPoolName(name string) PoolOption {
	return func(s *poolSettings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithFailFast cancels outstanding jobs after the first job error.
func WithFailFast() PoolOption {
	return func(s *poolSettings) {
		s.failFast = true
	}
}
