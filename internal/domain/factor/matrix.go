package factor

import (
	"math"

	"github.com/okian/handicap/internal/domain/model"
)

// Matrix holds one row of factor values per contender.
type Matrix struct {
	Factors []Factor
	IDs     []string // contender order
	cells   map[string]map[string]model.Num
}

// Build computes the matrix for the contenders from today's entries and
// their past starts.
func (c *Config) Build(contenders model.Field, starts model.PastStarts) Matrix {
	ids := contenders.IDs()
	history := starts.History(ids)
	m := Matrix{
		Factors: c.Factors(),
		IDs:     ids,
		cells:   make(map[string]map[string]model.Num, len(ids)),
	}
	for _, e := range contenders.Entries {
		row := make(map[string]model.Num, len(m.Factors))
		for _, f := range m.Factors {
			row[f.Name] = f.Value(e, history)
		}
		m.cells[e.ProgramNumber] = row
	}
	return m
}

// Value returns one cell.
func (m Matrix) Value(id, factor string) model.Num {
	return m.cells[id][factor]
}

// Column returns the present values of one factor in contender order.
func (m Matrix) Column(factor string) []float64 {
	var out []float64
	for _, id := range m.IDs {
		if v := m.Value(id, factor); v.OK {
			out = append(out, v.V)
		}
	}
	return out
}

// Best returns the best present value of a factor.
func (m Matrix) Best(f Factor) (float64, bool) {
	var (
		best  float64
		found bool
	)
	for _, id := range m.IDs {
		v := m.Value(id, f.Name)
		if !v.OK {
			continue
		}
		if !found || f.Better(v.V, best) {
			best, found = v.V, true
		}
	}
	return best, found
}

// Rank returns the competition rank of id on f: one plus the number of
// contenders with a strictly better value. Missing values have no rank.
func (m Matrix) Rank(id string, f Factor) (int, bool) {
	v := m.Value(id, f.Name)
	if !v.OK {
		return 0, false
	}
	rank := 1
	for _, other := range m.IDs {
		o := m.Value(other, f.Name)
		if o.OK && f.Better(o.V, v.V) {
			rank++
		}
	}
	return rank, true
}

// Render rounds every cell to two decimals, using na for missing values.
func (m Matrix) Render(na string) map[string]map[string]any {
	out := make(map[string]map[string]any, len(m.IDs))
	for _, id := range m.IDs {
		row := make(map[string]any, len(m.Factors))
		for _, f := range m.Factors {
			v := m.Value(id, f.Name)
			if !v.OK {
				row[f.Name] = na
				continue
			}
			row[f.Name] = Round2(v.V)
		}
		out[id] = row
	}
	return out
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
