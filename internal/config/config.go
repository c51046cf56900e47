// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config with defaults; Load layers file and env on top.
// - Nested sections use "." in YAML paths and "__" in env names.
// - External errors are wrapped with ErrLoadConfig or ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/pkg/logger"
)

// Report store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory race queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers, and the number of
	// races analysed at once by the analyze command.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many job ids are remembered for duplicate detection.
	DedupeSize int `koanf:"dedupe_size"`

	// ReportStore selects where reports go: memory, file or sqlite.
	ReportStore string `koanf:"report_store"`

	// ReportsDir is the root of the file store.
	ReportsDir string `koanf:"reports_dir"`

	// SQLitePath is the database file of the sqlite store.
	SQLitePath string `koanf:"sqlite_path"`

	// FieldFile and PastStartsFile are the default analyze inputs.
	FieldFile      string `koanf:"field_file"`
	PastStartsFile string `koanf:"past_starts_file"`

	// Sheet names the workbook sheet read from XLSX inputs.
	Sheet string `koanf:"sheet"`

	// ShutdownTimeout bounds graceful shutdown of the service.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	Filter    Filter    `koanf:"filter"`
	Grouping  Grouping  `koanf:"grouping"`
	Situation Situation `koanf:"situation"`
}

// Filter holds the contender inclusion thresholds.
type Filter struct {
	PrimePowerTop int     `koanf:"prime_power_top"`
	SpeedMargin   float64 `koanf:"speed_margin"`
	RecentStarts  int     `koanf:"recent_starts"`
	PaceTop       int     `koanf:"pace_top"`
	PedigreeEdge  float64 `koanf:"pedigree_edge"`
}

// Grouping holds the tiering parameters.
type Grouping struct {
	GapPenalty float64 `koanf:"gap_penalty"`
	Group1Size int     `koanf:"group1_size"`
	Group2Size int     `koanf:"group2_size"`

	// Gaps overrides the significant-gap size per factor name.
	Gaps map[string]float64 `koanf:"gaps"`
}

// Situation holds the situational signal thresholds.
type Situation struct {
	PedigreeEdge   float64 `koanf:"pedigree_edge"`
	ComboROI       float64 `koanf:"combo_roi"`
	ComboMinStarts int     `koanf:"combo_min_starts"`
	ReasonPolicy   string  `koanf:"reason_policy"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		QueueSize:       1024,
		WorkerCount:     runtime.NumCPU(),
		DedupeSize:      10_000,
		ReportStore:     StoreFile,
		ReportsDir:      "reports",
		SQLitePath:      "reports.db",
		ShutdownTimeout: 10 * time.Second,
		Filter: Filter{
			PrimePowerTop: 4,
			SpeedMargin:   5,
			RecentStarts:  3,
			PaceTop:       3,
			PedigreeEdge:  5,
		},
		Grouping: Grouping{
			GapPenalty: 3,
			Group1Size: 2,
			Group2Size: 2,
		},
		Situation: Situation{
			PedigreeEdge:   10,
			ComboROI:       2.0,
			ComboMinStarts: 10,
			ReasonPolicy:   string(model.LastWins),
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.Filter.PrimePowerTop <= 0, c.Filter.RecentStarts <= 0, c.Filter.PaceTop <= 0:
		return fmt.Errorf("%w: filter counts must be positive", ErrInvalidConfig)
	case c.Filter.SpeedMargin < 0, c.Filter.PedigreeEdge < 0:
		return fmt.Errorf("%w: filter margins must not be negative", ErrInvalidConfig)
	case c.Grouping.GapPenalty < 0 || c.Grouping.Group1Size <= 0 || c.Grouping.Group2Size < 0:
		return fmt.Errorf("%w: invalid grouping settings", ErrInvalidConfig)
	case c.Situation.PedigreeEdge < 0 || c.Situation.ComboMinStarts < 0:
		return fmt.Errorf("%w: invalid situation settings", ErrInvalidConfig)
	case !model.ReasonPolicy(c.Situation.ReasonPolicy).Valid():
		return fmt.Errorf("%w: unknown reason_policy %q", ErrInvalidConfig, c.Situation.ReasonPolicy)
	}
	switch c.ReportStore {
	case StoreMemory, StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("%w: unknown report_store %q", ErrInvalidConfig, c.ReportStore)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
