// Package service wires the handicapping stages into per-race and per-card
// analysis and runs the asynchronous race-job pipeline behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/handicap/internal/adapters/mq/queue"
	"github.com/okian/handicap/internal/adapters/mq/worker"
	"github.com/okian/handicap/internal/adapters/repository"
	"github.com/okian/handicap/internal/config"
	"github.com/okian/handicap/internal/domain/contender"
	"github.com/okian/handicap/internal/domain/dedupe"
	"github.com/okian/handicap/internal/domain/factor"
	"github.com/okian/handicap/internal/domain/grouping"
	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/internal/domain/report"
	"github.com/okian/handicap/internal/domain/situation"
	"github.com/okian/handicap/pkg/logger"
	"github.com/okian/handicap/pkg/metrics"
)

// Service implements the API dependencies of the handicapping system.
type Service struct {
	mu sync.RWMutex

	cfg        *config.Config
	reportOpts []report.Option

	// Stages
	filter   *contender.Filter
	grouper  *grouping.Grouper
	adjuster *situation.Adjuster
	builder  *report.Builder

	// Job pipeline
	store   repository.Store
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *worker.Pool

	started bool
	logger  logger.Logger
}

// Submission acknowledges a submitted race job.
type Submission struct {
	JobID     string        `json:"job_id"`
	Race      model.RaceKey `json:"race"`
	Duplicate bool          `json:"duplicate"`
}

// New constructs a Service. The stages are ready immediately; the job
// pipeline starts with Start.
func New(opts ...Option) *Service {
	s := &Service{cfg: config.New()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Default()
	}

	factors := factor.NewConfig(factor.WithGaps(s.cfg.Grouping.Gaps))
	f := s.cfg.Filter
	s.filter = contender.New(
		contender.WithThresholds(contender.Thresholds{
			PrimePowerTop: f.PrimePowerTop,
			SpeedMargin:   f.SpeedMargin,
			RecentStarts:  f.RecentStarts,
			PaceTop:       f.PaceTop,
			PedigreeEdge:  f.PedigreeEdge,
		}),
		contender.WithLogger(s.logger.Named("filter")),
	)
	g := s.cfg.Grouping
	s.grouper = grouping.New(
		grouping.WithFactors(factors),
		grouping.WithGapPenalty(g.GapPenalty),
		grouping.WithTierSizes(g.Group1Size, g.Group2Size),
		grouping.WithLogger(s.logger.Named("grouper")),
	)
	sit := s.cfg.Situation
	s.adjuster = situation.New(
		situation.WithPedigreeEdge(sit.PedigreeEdge),
		situation.WithCombo(sit.ComboROI, sit.ComboMinStarts),
		situation.WithReasonPolicy(model.ReasonPolicy(sit.ReasonPolicy)),
		situation.WithLogger(s.logger.Named("adjuster")),
	)
	s.builder = report.NewBuilder(append([]report.Option{report.WithFactors(factors)}, s.reportOpts...)...)
	return s
}

// Start initializes and starts the job pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting handicapping service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.logger.Info(ctx, "using in-memory report store")
	}
	s.deduper = dedupe.New(dedupe.WithCapacity(s.cfg.DedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.cfg.QueueSize))
	s.pool = worker.NewPool(s.cfg.WorkerCount, s.queue, s, s.store,
		worker.WithLogger(s.logger.Named("worker")))
	s.pool.Start(ctx)
	metrics.UpdateReportsStored(s.store.Count(ctx))

	s.started = true
	s.logger.Info(ctx, "handicapping service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.cfg.QueueSize),
		logger.Int("dedupeSize", s.cfg.DedupeSize),
	)
	return nil
}

// Stop stops accepting jobs, lets queued races finish, and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping handicapping service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	s.started = false
	s.logger.Info(ctx, "handicapping service stopped")
	return errors.Join(errs...)
}

// Submit queues a race for asynchronous analysis. A job id already seen is
// acknowledged as a duplicate without being queued again. A full queue
// returns queue.ErrFull and the id may be resubmitted.
func (s *Service) Submit(ctx context.Context, job model.RaceJob) (Submission, error) { //nolint:gocritic // hugeParam: jobs travel by value
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Submission{}, ErrNotStarted
	}

	races := job.Field.Races()
	if len(races) != 1 {
		return Submission{}, fmt.Errorf("%w: field holds %d races, want 1", ErrInvalidJob, len(races))
	}
	job.Race = races[0]
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	sub := Submission{JobID: job.ID, Race: job.Race}

	if s.deduper.SeenAndRecord(ctx, job.ID) {
		metrics.RecordJobDuplicate()
		s.logger.Debug(ctx, "duplicate race job", logger.String("job_id", job.ID))
		sub.Duplicate = true
		return sub, nil
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Forget(ctx, job.ID)
		return Submission{}, err
	}
	return sub, nil
}

// Report returns the stored report for a race.
func (s *Service) Report(ctx context.Context, key model.RaceKey) (report.Report, error) {
	store, err := s.reports()
	if err != nil {
		return report.Report{}, err
	}
	return store.Get(ctx, key)
}

// Reports returns every stored report ordered by track and race.
func (s *Service) Reports(ctx context.Context) ([]report.Report, error) {
	store, err := s.reports()
	if err != nil {
		return nil, err
	}
	return store.List(ctx)
}

func (s *Service) reports() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.cfg.WorkerCount,
		"queueSize":   s.cfg.QueueSize,
		"dedupeSize":  s.cfg.DedupeSize,
		"reportStore": s.cfg.ReportStore,
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		stored := s.store.Count(ctx)
		c := s.pool.Counters()

		stats["queueLength"] = queueLen
		stats["reportsStored"] = stored
		stats["dedupeEntries"] = s.deduper.Size()
		stats["racesReported"] = c.Reported.Load()
		stats["racesSkipped"] = c.Skipped.Load()
		stats["racesFailed"] = c.Failed.Load()

		metrics.UpdateReportsStored(stored)
	}
	return stats
}
