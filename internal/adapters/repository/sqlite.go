package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/internal/domain/report"
	"github.com/okian/handicap/pkg/metrics"
)

// SQLiteStore keeps reports in a SQLite database, one row per race.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, cfg.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// writes are serialized by SQLite anyway
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS reports (
		track        TEXT    NOT NULL,
		race_number  INTEGER NOT NULL,
		report_id    TEXT    NOT NULL,
		generated_at DATETIME NOT NULL,
		data         TEXT    NOT NULL,
		PRIMARY KEY (track, race_number)
	);`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, r report.Report) error {
	defer observe("save", time.Now())
	key := r.Key()
	if err := validKey(key); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", key, err)
	}
	const q = `
	INSERT INTO reports (track, race_number, report_id, generated_at, data)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (track, race_number) DO UPDATE SET
		report_id = excluded.report_id,
		generated_at = excluded.generated_at,
		data = excluded.data`
	if _, err := s.db.ExecContext(ctx, q, key.Track, key.Race, r.Metadata.ReportID, r.Metadata.GeneratedAt.UTC(), string(data)); err != nil {
		metrics.RecordError("repository", "save_failed")
		return fmt.Errorf("save report %s: %w", key, err)
	}
	metrics.UpdateReportsStored(s.Count(ctx))
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key model.RaceKey) (report.Report, error) {
	defer observe("get", time.Now())
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM reports WHERE track = ? AND race_number = ?`, key.Track, key.Race).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordError("repository", "not_found")
		return report.Report{}, ErrNotFound
	}
	if err != nil {
		return report.Report{}, fmt.Errorf("get report %s: %w", key, err)
	}
	var r report.Report
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return report.Report{}, fmt.Errorf("decode report %s: %w", key, err)
	}
	return r, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]report.Report, error) {
	defer observe("list", time.Now())
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM reports ORDER BY track, race_number`)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []report.Report
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("list reports: %w", err)
		}
		var r report.Report
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
