package situation

import (
	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/pkg/logger"
)

// Default signal thresholds.
const (
	defaultPedigreeEdge  = 10.0
	defaultComboROI      = 2.0
	defaultComboMinStart = 10
)

// Option configures an Adjuster.
type Option func(*Adjuster)

// WithPedigreeEdge sets the pedigree edge over dirt that earns an upgrade
// for a first-time surface.
func WithPedigreeEdge(edge float64) Option {
	return func(a *Adjuster) {
		if edge >= 0 {
			a.pedigreeEdge = edge
		}
	}
}

// WithCombo sets the trainer/jockey combo ROI that must be exceeded and the
// minimum number of starts behind it.
func WithCombo(roi float64, minStarts int) Option {
	return func(a *Adjuster) {
		a.comboROI = roi
		if minStarts >= 0 {
			a.comboMinStarts = minStarts
		}
	}
}

// WithReasonPolicy decides whether a later reason replaces an earlier one
// for the same horse and disposition.
func WithReasonPolicy(p model.ReasonPolicy) Option {
	return func(a *Adjuster) {
		if p.Valid() {
			a.policy = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Adjuster) {
		if l != nil {
			a.log = l
		}
	}
}
