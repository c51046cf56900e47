package grouping

import (
	"github.com/okian/handicap/internal/domain/factor"
	"github.com/okian/handicap/pkg/logger"
)

const (
	defaultGapPenalty = 3.0
	defaultGroup1Size = 2
	defaultGroup2Size = 2
)

// Option configures a Grouper.
type Option func(*Grouper)

// WithFactors sets the shared factor configuration.
func WithFactors(cfg *factor.Config) Option {
	return func(g *Grouper) {
		if cfg != nil {
			g.factors = cfg
		}
	}
}

// WithGapPenalty sets the score added for each significant gap.
func WithGapPenalty(p float64) Option {
	return func(g *Grouper) {
		if p >= 0 {
			g.gapPenalty = p
		}
	}
}

// WithTierSizes sets how many horses fill Group 1 by score and Group 2.
func WithTierSizes(group1, group2 int) Option {
	return func(g *Grouper) {
		if group1 > 0 {
			g.group1Size = group1
		}
		if group2 >= 0 {
			g.group2Size = group2
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Grouper) {
		if l != nil {
			g.log = l
		}
	}
}
