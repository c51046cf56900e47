package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/internal/domain/report"
	"github.com/okian/handicap/pkg/logger"
	"github.com/okian/handicap/pkg/metrics"
)

// Outcome is the result of analysing one race. A skipped race carries the
// reason and no report; a failed race carries the error.
type Outcome struct {
	Race    model.RaceKey  `json:"race"`
	Report  *report.Report `json:"report,omitempty"`
	Skipped bool           `json:"skipped"`
	Reason  string         `json:"reason,omitempty"`
	Err     error          `json:"-"`
}

// AnalyzeRace runs the filter, grouper, adjuster and report builder over
// one race. Races with an empty field or no contenders are skipped; other
// stage errors are returned.
func (s *Service) AnalyzeRace(ctx context.Context, field model.Field, starts model.PastStarts) (Outcome, error) {
	var out Outcome
	if races := field.Races(); len(races) > 0 {
		out.Race = races[0]
	}
	log := s.logger.With(logger.String("race", out.Race.String()))

	start := time.Now()
	contenders, err := s.filter.Isolate(ctx, field, starts)
	stage("filter", start)
	if err != nil {
		return s.settle(ctx, log, out, err)
	}
	metrics.ObserveContenders(contenders.Len())

	start = time.Now()
	tiers, err := s.grouper.Group(ctx, contenders, starts)
	stage("group", start)
	if err != nil {
		return s.settle(ctx, log, out, err)
	}

	start = time.Now()
	adjusted, err := s.adjuster.Adjust(ctx, tiers, contenders, starts)
	stage("adjust", start)
	if err != nil {
		return s.settle(ctx, log, out, err)
	}
	metrics.RecordPaceScenario(string(adjusted.Pace))
	metrics.RecordAdjustments(string(model.Upgrade), adjusted.Adjustments.Len(model.Upgrade))
	metrics.RecordAdjustments(string(model.Downgrade), adjusted.Adjustments.Len(model.Downgrade))

	start = time.Now()
	r := s.builder.Build(report.Input{
		Contenders:  contenders,
		Starts:      starts,
		Tiers:       adjusted.Tiers,
		Adjustments: adjusted.Adjustments,
		Pace:        adjusted.Pace,
	})
	stage("report", start)

	_ = metrics.RecordRace(metrics.OutcomeReported)
	log.Info(ctx, "race analysed",
		logger.Strings("group_1", r.Summary.Groups[model.Group1]),
		logger.String("pace", string(r.Summary.PaceScenario)),
	)
	out.Report = &r
	return out, nil
}

// settle turns a stage error into a skip or a failure.
func (s *Service) settle(ctx context.Context, log logger.Logger, out Outcome, err error) (Outcome, error) {
	if errors.Is(err, model.ErrEmptyInput) || errors.Is(err, model.ErrNoContenders) {
		_ = metrics.RecordRace(metrics.OutcomeSkipped)
		log.Warn(ctx, "race skipped", logger.Error(err))
		out.Skipped = true
		out.Reason = err.Error()
		return out, nil
	}
	_ = metrics.RecordRace(metrics.OutcomeFailed)
	metrics.RecordError("app", errorKind(err))
	log.Error(ctx, "race analysis failed", logger.Error(err))
	return out, fmt.Errorf("race %s: %w", out.Race, err)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "stage_error"
	}
}

func stage(name string, start time.Time) {
	metrics.RecordStageLatency(name, float64(time.Since(start).Microseconds())/1000)
}

// AnalyzeCard analyses every race of a card, up to worker_count races at
// once. Outcomes follow the order races first appear in field. A failing
// race is reported through its Outcome.Err and does not stop the others;
// the returned error is set only when ctx ends first.
func (s *Service) AnalyzeCard(ctx context.Context, field model.Field, starts model.PastStarts) ([]Outcome, error) {
	races := field.Races()
	outcomes := make([]Outcome, len(races))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.WorkerCount)
	for i, key := range races {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := s.AnalyzeRace(gctx, field.ForRace(key), starts.ForRace(key))
			out.Race = key
			out.Err = err
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, ctx.Err()
}

// Analyze implements the worker analyzer: a skipped race yields a nil report.
func (s *Service) Analyze(ctx context.Context, job model.RaceJob) (*report.Report, error) { //nolint:gocritic // hugeParam: jobs travel by value
	out, err := s.AnalyzeRace(ctx, job.Field, job.Starts)
	if err != nil {
		return nil, err
	}
	return out.Report, nil
}
