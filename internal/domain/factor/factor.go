// Package factor defines the Factor Matrix: the named performance factors
// used to compare contenders, their gap thresholds, and how each value is
// drawn from the field or the past starts.
//
// A Config is built once at startup and shared read-only by the grouper and
// the report builder.
package factor

import (
	"github.com/montanaflynn/stats"

	"github.com/okian/handicap/internal/domain/model"
)

// Source tells where a factor's value comes from.
type Source int

// Factor sources.
const (
	// Current reads the value straight from today's field entry.
	Current Source = iota
	// Past takes the best value over the horse's past starts.
	Past
)

// Factor names.
const (
	PrimePower = "bris_prime_power"
	BestSpeed  = "best_bris_speed"
	Best2FPace = "best_2f_pace"
	Best4FPace = "best_4f_pace"
	BestLate   = "best_late_pace"
)

const defaultGap = 5.0

// Factor is one column of the matrix.
type Factor struct {
	Name           string
	Column         string
	Source         Source
	HigherIsBetter bool
	Gap            float64 // deficit from the best value that counts as significant
}

// Better reports whether a ranks ahead of b on this factor.
func (f Factor) Better(a, b float64) bool {
	if f.HigherIsBetter {
		return a > b
	}
	return a < b
}

// Gapped reports whether v trails the best value by more than the gap.
func (f Factor) Gapped(v, best float64) bool {
	if f.HigherIsBetter {
		return v < best-f.Gap
	}
	return v > best+f.Gap
}

// Config is the immutable factor list.
type Config struct {
	factors []Factor
}

// Option adjusts a Config while it is being built.
type Option func(*Config)

// WithGaps overrides gap thresholds by factor name. Unknown names and
// negative values are ignored.
func WithGaps(gaps map[string]float64) Option {
	return func(c *Config) {
		for i := range c.factors {
			if g, ok := gaps[c.factors[i].Name]; ok && g >= 0 {
				c.factors[i].Gap = g
			}
		}
	}
}

// WithFactors replaces the factor list.
func WithFactors(factors ...Factor) Option {
	return func(c *Config) {
		if len(factors) > 0 {
			c.factors = append([]Factor{}, factors...)
		}
	}
}

// Defaults returns the five standard factors.
func Defaults() []Factor {
	return []Factor{
		{Name: PrimePower, Column: model.ColPrimePower, Source: Current, HigherIsBetter: true, Gap: 5.0},
		{Name: BestSpeed, Column: model.ColSpeed, Source: Past, HigherIsBetter: true, Gap: 5.0},
		{Name: Best2FPace, Column: model.ColPace2F, Source: Past, HigherIsBetter: true, Gap: 3.0},
		{Name: Best4FPace, Column: model.ColPace4F, Source: Past, HigherIsBetter: true, Gap: 3.0},
		{Name: BestLate, Column: model.ColLatePace, Source: Past, HigherIsBetter: true, Gap: 3.0},
	}
}

// NewConfig builds the factor configuration.
func NewConfig(opts ...Option) *Config {
	c := &Config{factors: Defaults()}
	for _, opt := range opts {
		opt(c)
	}
	for i := range c.factors {
		if c.factors[i].Gap < 0 {
			c.factors[i].Gap = defaultGap
		}
	}
	return c
}

// Factors returns a copy of the factor list in matrix order.
func (c *Config) Factors() []Factor {
	return append([]Factor{}, c.factors...)
}

// CurrentColumns lists the field columns the matrix reads.
func (c *Config) CurrentColumns() []string {
	var cols []string
	for _, f := range c.factors {
		if f.Source == Current {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

// Value computes one cell. Past factors take the best value across the
// horse's starts; an absent column or empty history yields None.
func (f Factor) Value(e model.Entry, history model.History) model.Num {
	if f.Source == Current {
		return e.Number(f.Column)
	}
	values := history.Values(e.ProgramNumber, f.Column)
	var (
		best float64
		err  error
	)
	if f.HigherIsBetter {
		best, err = stats.Max(values)
	} else {
		best, err = stats.Min(values)
	}
	if err != nil {
		return model.None()
	}
	return model.Some(best)
}
