package service

import (
	"github.com/okian/handicap/internal/adapters/repository"
	"github.com/okian/handicap/internal/config"
	"github.com/okian/handicap/internal/domain/report"
	"github.com/okian/handicap/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration the stages and the job pipeline are built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStore sets the report store. Start falls back to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithReportOptions passes options to the report builder.
func WithReportOptions(opts ...report.Option) Option {
	return func(s *Service) {
		s.reportOpts = append(s.reportOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
