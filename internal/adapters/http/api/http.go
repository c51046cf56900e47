// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/handicap/internal/adapters/mq/queue"
	"github.com/okian/handicap/internal/adapters/repository"
	"github.com/okian/handicap/internal/adapters/tables"
	service "github.com/okian/handicap/internal/app"
	"github.com/okian/handicap/internal/domain/model"
	"github.com/okian/handicap/internal/domain/report"
)

// maxBodyBytes bounds a race request body.
const maxBodyBytes = 8 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Submit queues a single race for asynchronous analysis.
	Submit(ctx context.Context, job model.RaceJob) (service.Submission, error)

	// AnalyzeRace analyses a race synchronously.
	AnalyzeRace(ctx context.Context, field model.Field, starts model.PastStarts) (service.Outcome, error)

	// Read operations expose stored reports.
	Report(ctx context.Context, key model.RaceKey) (report.Report, error)
	Reports(ctx context.Context) ([]report.Report, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	racesHandler   *RacesHandler
	reportsHandler *ReportsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		racesHandler:   NewRacesHandler(deps),
		reportsHandler: NewReportsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/races", MetricsMiddleware(s.racesHandler.HandleSubmit, "races"))
	mux.HandleFunc("/analyze", MetricsMiddleware(s.racesHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/reports", MetricsMiddleware(s.reportsHandler.HandleList, "reports"))
	mux.HandleFunc("/reports/{track}/{race}", MetricsMiddleware(s.reportsHandler.HandleGet, "report"))
}

// raceRequest mirrors the OpenAPI schema for POST /races and POST /analyze.
// Records use feed or canonical column names. Without past_starts, numbered
// past-performance columns on the field records are used.
type raceRequest struct {
	JobID      string           `json:"job_id"`
	Field      []map[string]any `json:"field"`
	PastStarts []map[string]any `json:"past_starts"`
}

func (r raceRequest) decode() (model.Field, model.PastStarts, error) {
	if len(r.Field) == 0 {
		return model.Field{}, model.PastStarts{}, NewKind("decode race", ErrBadRequest)
	}
	fieldTable := tables.FromRecords(r.Field)
	field, err := tables.DecodeField(fieldTable)
	if err != nil {
		return model.Field{}, model.PastStarts{}, WrapKind("decode race", ErrBadRequest, err)
	}
	var starts model.PastStarts
	if len(r.PastStarts) > 0 {
		starts, err = tables.DecodePastStarts(tables.FromRecords(r.PastStarts))
	} else {
		starts, err = tables.DecodeWidePastStarts(fieldTable)
	}
	if err != nil {
		return model.Field{}, model.PastStarts{}, WrapKind("decode race", ErrBadRequest, err)
	}
	return field, starts, nil
}

func readRace(w http.ResponseWriter, r *http.Request) (raceRequest, error) {
	var req raceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return raceRequest{}, WrapKind("read race", ErrBadRequest, err)
	}
	return req, nil
}

type ackResponse struct {
	Status    string        `json:"status"`
	JobID     string        `json:"job_id"`
	Race      model.RaceKey `json:"race"`
	Duplicate bool          `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	tagError(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps service and adapter errors to HTTP responses.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidJob), errors.Is(err, model.ErrMissingColumn):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind("submit race", ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind("serve", ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
