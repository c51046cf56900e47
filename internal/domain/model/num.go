package model

import "math"

// Num is a float64 that may be absent. Absent values never take part in
// comparisons or aggregates.
type Num struct {
	V  float64
	OK bool
}

// Some wraps a present value. NaN is treated as absent.
func Some(v float64) Num {
	if math.IsNaN(v) {
		return Num{}
	}
	return Num{V: v, OK: true}
}

// None is the absent value.
func None() Num { return Num{} }

// Or returns the value, or def when absent.
func (n Num) Or(def float64) float64 {
	if !n.OK {
		return def
	}
	return n.V
}
