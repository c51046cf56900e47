// Package repository persists race reports. Reports are keyed by race; saving
// a report for a race that already has one replaces it.
package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/internal/domain/report"
	"github.com/okian/handicap/pkg/metrics"
)

// Store provides read/write access to race reports.
type Store interface {
	// Save stores r under its race key, replacing any earlier report.
	Save(ctx context.Context, r report.Report) error

	// Get returns the report for key.
	// Returns ErrNotFound if no report exists.
	Get(ctx context.Context, key model.RaceKey) (report.Report, error)

	// List returns all reports ordered by track, then race number.
	List(ctx context.Context) ([]report.Report, error)

	// Count returns the number of stored reports.
	Count(ctx context.Context) int

	Close() error
}

func validKey(key model.RaceKey) error {
	if key.Track == "" || key.Race <= 0 || strings.ContainsAny(key.Track, `/\`) || strings.Contains(key.Track, "..") {
		return fmt.Errorf("%w: %q race %d", ErrInvalidKey, key.Track, key.Race)
	}
	return nil
}

func sortReports(rs []report.Report) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i].Key(), rs[j].Key()
		if a.Track != b.Track {
			return a.Track < b.Track
		}
		return a.Race < b.Race
	})
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
