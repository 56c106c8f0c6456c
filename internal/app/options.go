package service

import (
	"github.com/okian/pairwise/internal/adapters/report"
	"github.com/okian/pairwise/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount caps the number of chains sampled at once.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithOutputDir sets where estimates and plots are written. An empty dir
// disables both files.
func WithOutputDir(dir string) Option {
	return func(s *Service) {
		s.outputDir = dir
	}
}

// WithFormat sets the estimates file format.
func WithFormat(f report.Format) Option {
	return func(s *Service) {
		if f != "" {
			s.format = f
		}
	}
}

// WithPlot toggles the rank violin plot.
func WithPlot(enabled bool) Option {
	return func(s *Service) {
		s.plot = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
