// Package contender reduces a race's field to its plausible contenders.
//
// A horse is a contender when it satisfies at least one of four rules: top
// prime power, competitive recent speed, a top pace figure, or a pedigree
// edge for a first-time surface. The result is the union of the rules.
package contender

import (
	"context"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/pkg/logger"
)

var (
	requiredField = []string{
		model.ColProgramNumber, model.ColPrimePower, model.ColSurface,
		model.ColPedTurf, model.ColPedMud,
	}
	requiredStarts = []string{
		model.ColProgramNumber, model.ColRaceDate, model.ColSpeed,
		model.ColPPSurface, model.ColTrackCondition,
	}
	paceFigures = []string{model.ColPace2F, model.ColPace4F, model.ColLatePace}
)

// Filter isolates contenders. It is safe for concurrent use.
type Filter struct {
	th  Thresholds
	log logger.Logger
}

// New creates a Filter with the standard thresholds.
func New(opts ...Option) *Filter {
	f := &Filter{th: DefaultThresholds(), log: logger.Nop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Thresholds returns the thresholds in effect.
func (f *Filter) Thresholds() Thresholds { return f.th }

// Isolate returns the subset of field, in table order, that satisfies at
// least one rule. field must hold a single race. An empty field yields
// ErrEmptyInput and an empty union yields ErrNoContenders; both come with an
// empty result.
func (f *Filter) Isolate(ctx context.Context, field model.Field, starts model.PastStarts) (model.Field, error) {
	if field.Len() == 0 {
		f.log.Warn(ctx, "field is empty, cannot identify contenders")
		return model.Field{Columns: field.Columns}, model.ErrEmptyInput
	}
	if err := field.Columns.Require(requiredField...); err != nil {
		return model.Field{}, fmt.Errorf("field: %w", err)
	}
	if err := starts.Columns.Require(requiredStarts...); err != nil {
		return model.Field{}, fmt.Errorf("past starts: %w", err)
	}

	race := field.Entries[0].Key()
	log := f.log.With(logger.String("race", race.String()))
	history := starts.History(field.IDs())

	picked := make(map[string]struct{})
	add := func(rule string, ids []string) {
		var added []string
		for _, id := range ids {
			if _, ok := picked[id]; ok {
				continue
			}
			picked[id] = struct{}{}
			added = append(added, id)
		}
		if len(added) > 0 {
			sort.Strings(added)
			log.Debug(ctx, "rule adds contenders", logger.String("rule", rule), logger.Strings("ids", added))
		}
	}

	add("prime_power", f.topPrimePower(field))

	threshold := f.speedBenchmark(field, history) - f.th.SpeedMargin
	add(fmt.Sprintf("competitive_speed>=%g", threshold), f.competitiveSpeed(field, history, threshold))

	for _, fig := range paceFigures {
		if !starts.Columns.Has(fig) {
			continue
		}
		add("pace:"+fig, f.topPace(field, history, fig))
	}

	add("pedigree", f.pedigree(field, history))

	if len(picked) == 0 {
		log.Warn(ctx, "no contenders identified")
		return model.Field{Columns: field.Columns}, model.ErrNoContenders
	}

	out := field.Subset(picked)
	log.Info(ctx, "contenders identified", logger.Int("count", out.Len()), logger.Strings("ids", sortedIDs(picked)))
	return out, nil
}

type scored struct {
	id    string
	value float64
}

// top returns up to n ids with the highest values. Ties keep input order.
func top(values []scored, n int) []string {
	sort.SliceStable(values, func(i, j int) bool { return values[i].value > values[j].value })
	if len(values) > n {
		values = values[:n]
	}
	ids := make([]string, len(values))
	for i, v := range values {
		ids[i] = v.id
	}
	return ids
}

func (f *Filter) topPrimePower(field model.Field) []string {
	var values []scored
	for _, e := range field.Entries {
		if e.PrimePower.OK {
			values = append(values, scored{id: e.ProgramNumber, value: e.PrimePower.V})
		}
	}
	return top(values, f.th.PrimePowerTop)
}

// speedBenchmark is the best speed figure any horse earned in its most
// recent start, or 0 when none is known.
func (f *Filter) speedBenchmark(field model.Field, history model.History) float64 {
	var last []float64
	for _, id := range field.IDs() {
		if ps, ok := history.Latest(id); ok && ps.Speed.OK {
			last = append(last, ps.Speed.V)
		}
	}
	best, err := stats.Max(last)
	if err != nil {
		return 0
	}
	return best
}

func (f *Filter) competitiveSpeed(field model.Field, history model.History, threshold float64) []string {
	var ids []string
	for _, id := range field.IDs() {
		for _, ps := range history.Recent(id, f.th.RecentStarts) {
			if ps.Speed.OK && ps.Speed.V >= threshold {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids
}

func (f *Filter) topPace(field model.Field, history model.History, fig string) []string {
	var values []scored
	for _, id := range field.IDs() {
		best, err := stats.Max(history.Values(id, fig))
		if err != nil {
			continue
		}
		values = append(values, scored{id: id, value: best})
	}
	return top(values, f.th.PaceTop)
}

func (f *Filter) pedigree(field model.Field, history model.History) []string {
	var ids []string
	for _, e := range field.Entries {
		for _, edge := range model.FirstSurfaceEdges(e, history) {
			if edge.Edge > f.th.PedigreeEdge {
				ids = append(ids, e.ProgramNumber)
				break
			}
		}
	}
	return ids
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
