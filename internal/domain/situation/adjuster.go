// Package situation adjusts contender tiers for the race situation: the
// projected pace shape, pedigree for a first-time surface, and trainer and
// jockey combo form.
package situation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/pkg/logger"
)

// Adjustment reasons.
const (
	ReasonLoneSpeed      = "Advantaged by Lone Speed scenario"
	ReasonDuelCloser     = "Advantaged by Pace Duel scenario"
	ReasonDuelEarlySpeed = "Disadvantaged by Pace Duel scenario"
)

var (
	requiredField  = []string{model.ColProgramNumber, model.ColRunStyle, model.ColSurface, model.ColPedTurf, model.ColPedMud}
	requiredStarts = []string{model.ColProgramNumber, model.ColPPSurface, model.ColTrackCondition}
)

// Result is the outcome of a situational pass.
type Result struct {
	Pace        model.PaceScenario
	Tiers       model.Tiers
	Adjustments *model.Adjustments
}

// Adjuster applies situational signals to tiers. It is safe for concurrent use.
type Adjuster struct {
	pedigreeEdge   float64
	comboROI       float64
	comboMinStarts int
	policy         model.ReasonPolicy
	log            logger.Logger
}

// New creates an Adjuster with the standard thresholds and the LastWins policy.
func New(opts ...Option) *Adjuster {
	a := &Adjuster{
		pedigreeEdge:   defaultPedigreeEdge,
		comboROI:       defaultComboROI,
		comboMinStarts: defaultComboMinStart,
		policy:         model.LastWins,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ClassifyPace projects the pace shape from the contenders' run styles.
// A single early horse, or a single pure E among several early horses, is a
// lone speed. Several early horses otherwise duel. No early horse is unclear.
func ClassifyPace(contenders model.Field) model.PaceScenario {
	early, pure := 0, 0
	for _, e := range contenders.Entries {
		if !model.IsEarlySpeed(e.RunStyle) {
			continue
		}
		early++
		if e.RunStyle == model.StyleEarly {
			pure++
		}
	}
	switch {
	case early == 0:
		return model.Unclear
	case early == 1, pure == 1:
		return model.LoneSpeed
	default:
		return model.PaceDuel
	}
}

// Signals derives the upgrade and downgrade signals for every contender.
// Within one horse later signals of the same disposition are resolved by
// the reason policy.
func (a *Adjuster) Signals(pace model.PaceScenario, contenders model.Field, starts model.PastStarts) *model.Adjustments {
	adj := model.NewAdjustments(a.policy)
	history := starts.History(contenders.IDs())
	for _, e := range contenders.Entries {
		id := e.ProgramNumber
		switch {
		case pace == model.LoneSpeed && model.IsEarlySpeed(e.RunStyle):
			adj.Add(model.Upgrade, id, ReasonLoneSpeed)
		case pace == model.PaceDuel && model.IsPresserOrCloser(e.RunStyle):
			adj.Add(model.Upgrade, id, ReasonDuelCloser)
		case pace == model.PaceDuel && model.IsEarlySpeed(e.RunStyle):
			adj.Add(model.Downgrade, id, ReasonDuelEarlySpeed)
		}

		for _, edge := range model.FirstSurfaceEdges(e, history) {
			if edge.Edge <= a.pedigreeEdge {
				continue
			}
			switch edge.Change {
			case model.FirstTurf:
				adj.Add(model.Upgrade, id, fmt.Sprintf("Strong turf pedigree (%s) for first turf start", num(edge.Rating)))
			case model.FirstWet:
				adj.Add(model.Upgrade, id, fmt.Sprintf("Strong mud pedigree (%s) for first wet track start", num(edge.Rating)))
			}
		}

		roi, runs := e.TJComboROI365.Or(0), e.TJComboStarts365.Or(0)
		if roi > a.comboROI && runs >= float64(a.comboMinStarts) {
			adj.Add(model.Upgrade, id, fmt.Sprintf("High ROI T/J Combo (%s)", num(roi)))
		}
	}
	return adj
}

// Adjust classifies the pace, derives the signals and moves horses one tier
// per signal: every upgrade first, then every downgrade. The input tiers are
// not modified and membership is conserved.
func (a *Adjuster) Adjust(ctx context.Context, tiers model.Tiers, contenders model.Field, starts model.PastStarts) (Result, error) {
	if contenders.Len() == 0 {
		return Result{}, model.ErrEmptyInput
	}
	if err := contenders.Columns.Require(requiredField...); err != nil {
		return Result{}, fmt.Errorf("contenders: %w", err)
	}
	if err := starts.Columns.Require(requiredStarts...); err != nil {
		return Result{}, fmt.Errorf("past starts: %w", err)
	}

	log := a.log.With(logger.String("race", contenders.Entries[0].Key().String()))
	pace := ClassifyPace(contenders)
	log.Info(ctx, "pace scenario", logger.String("pace", string(pace)))

	adj := a.Signals(pace, contenders, starts)
	out := tiers.Clone()
	a.apply(ctx, log, out, adj, model.Upgrade, model.Tier.Up)
	a.apply(ctx, log, out, adj, model.Downgrade, model.Tier.Down)
	out.Normalize()

	log.Info(ctx, "groups adjusted",
		logger.Strings("group_1", out[model.Group1]),
		logger.Strings("group_2", out[model.Group2]),
		logger.Strings("group_3", out[model.Group3]))
	return Result{Pace: pace, Tiers: out, Adjustments: adj}, nil
}

func (a *Adjuster) apply(ctx context.Context, log logger.Logger, tiers model.Tiers, adj *model.Adjustments, d model.Disposition, step func(model.Tier) model.Tier) {
	for _, id := range adj.IDs(d) {
		from, ok := tiers.Where(id)
		if !ok {
			continue
		}
		to := step(from)
		if tiers.Move(id, to) {
			log.Info(ctx, "horse moved",
				logger.String("id", id),
				logger.String("disposition", string(d)),
				logger.String("from", string(from)),
				logger.String("to", string(to)),
				logger.String("reason", adj.Reason(d, id)))
		}
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
