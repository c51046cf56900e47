// Package grouping stratifies contenders into three tiers from a Factor
// Matrix and Gap Analysis.
//
// Each factor ranks the contenders with competition ranking and the ranks
// are summed into a grouping score, lower being stronger. A horse trailing
// the best value of a factor by more than that factor's gap takes a flat
// penalty. The two lowest scores and the morning-line favorite form Group 1,
// the next two Group 2, and the rest Group 3.
package grouping

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/handicap/internal/domain/factor"
	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/pkg/logger"
)

// Score is one contender's grouping score.
type Score struct {
	ID    string
	Value float64
}

// Grouper assigns contenders to tiers. It is safe for concurrent use.
type Grouper struct {
	factors    *factor.Config
	gapPenalty float64
	group1Size int
	group2Size int
	log        logger.Logger
}

// New creates a Grouper with the default factors.
func New(opts ...Option) *Grouper {
	g := &Grouper{
		factors:    factor.NewConfig(),
		gapPenalty: defaultGapPenalty,
		group1Size: defaultGroup1Size,
		group2Size: defaultGroup2Size,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Factors returns the factor configuration the grouper scores with.
func (g *Grouper) Factors() *factor.Config { return g.factors }

// Scores computes the grouping score of every contender, sorted ascending.
// Equal scores keep contender order. A missing factor value adds neither a
// rank nor a penalty.
func (g *Grouper) Scores(m factor.Matrix) []Score {
	scores := make([]Score, len(m.IDs))
	for i, id := range m.IDs {
		scores[i].ID = id
	}
	for _, f := range m.Factors {
		best, ok := m.Best(f)
		if !ok {
			continue
		}
		for i, id := range m.IDs {
			rank, ok := m.Rank(id, f)
			if !ok {
				continue
			}
			scores[i].Value += float64(rank)
			if f.Gapped(m.Value(id, f.Name).V, best) {
				scores[i].Value += g.gapPenalty
			}
		}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Value < scores[j].Value })
	return scores
}

// Group assigns the contenders to tiers. Fewer than two contenders all go
// to Group 1.
func (g *Grouper) Group(ctx context.Context, contenders model.Field, starts model.PastStarts) (model.Tiers, error) {
	if contenders.Len() == 0 {
		g.log.Warn(ctx, "no contenders to group")
		return nil, model.ErrEmptyInput
	}
	required := append([]string{model.ColProgramNumber, model.ColMorningLineOdds}, g.factors.CurrentColumns()...)
	if err := contenders.Columns.Require(required...); err != nil {
		return nil, fmt.Errorf("contenders: %w", err)
	}

	log := g.log.With(logger.String("race", contenders.Entries[0].Key().String()))
	if contenders.Len() < 2 {
		log.Warn(ctx, "not enough contenders to group, assigning all to group 1")
		return model.NewTiers(contenders.IDs(), nil, nil), nil
	}

	scores := g.Scores(g.factors.Build(contenders, starts))

	var g1, g2, g3 []string
	placed := make(map[string]struct{}, len(scores))
	for _, s := range scores[:min(g.group1Size, len(scores))] {
		g1 = append(g1, s.ID)
		placed[s.ID] = struct{}{}
	}
	if fav, ok := contenders.Favorite(); ok {
		if _, in := placed[fav.ProgramNumber]; !in {
			log.Debug(ctx, "favorite forced into group 1", logger.String("id", fav.ProgramNumber))
			g1 = append(g1, fav.ProgramNumber)
			placed[fav.ProgramNumber] = struct{}{}
		}
	}
	for _, s := range scores {
		if _, in := placed[s.ID]; in {
			continue
		}
		if len(g2) < g.group2Size {
			g2 = append(g2, s.ID)
		} else {
			g3 = append(g3, s.ID)
		}
	}

	tiers := model.NewTiers(g1, g2, g3)
	log.Info(ctx, "contenders grouped",
		logger.Strings("group_1", tiers[model.Group1]),
		logger.Strings("group_2", tiers[model.Group2]),
		logger.Strings("group_3", tiers[model.Group3]))
	return tiers, nil
}
