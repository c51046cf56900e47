package contender

import "github.com/okian/handicap/pkg/logger"

// Default rule thresholds.
const (
	defaultPrimePowerTop = 4
	defaultSpeedMargin   = 5.0
	defaultRecentStarts  = 3
	defaultPaceTop       = 3
	defaultPedigreeEdge  = 5.0
)

// Thresholds tunes the inclusion rules.
type Thresholds struct {
	PrimePowerTop int     // horses taken by prime power
	SpeedMargin   float64 // points below the last-race benchmark still competitive
	RecentStarts  int     // trailing starts inspected for competitive speed
	PaceTop       int     // horses taken per pace figure
	PedigreeEdge  float64 // required pedigree edge over dirt for a first-time surface
}

// DefaultThresholds returns the standard rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PrimePowerTop: defaultPrimePowerTop,
		SpeedMargin:   defaultSpeedMargin,
		RecentStarts:  defaultRecentStarts,
		PaceTop:       defaultPaceTop,
		PedigreeEdge:  defaultPedigreeEdge,
	}
}

// Option configures a Filter.
type Option func(*Filter)

// WithThresholds replaces the rule thresholds. Non-positive counts and
// negative margins keep their defaults.
func WithThresholds(t Thresholds) Option {
	return func(f *Filter) {
		if t.PrimePowerTop > 0 {
			f.th.PrimePowerTop = t.PrimePowerTop
		}
		if t.SpeedMargin >= 0 {
			f.th.SpeedMargin = t.SpeedMargin
		}
		if t.RecentStarts > 0 {
			f.th.RecentStarts = t.RecentStarts
		}
		if t.PaceTop > 0 {
			f.th.PaceTop = t.PaceTop
		}
		if t.PedigreeEdge >= 0 {
			f.th.PedigreeEdge = t.PedigreeEdge
		}
	}
}

// WithLogger sets the logger used for rule diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.log = l
		}
	}
}
