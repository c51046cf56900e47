package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/handicap/pkg/metrics"
)

// Race endpoint outcomes. Error responses use their error code instead.
const (
	outcomeAccepted  = "accepted"
	outcomeDuplicate = "duplicate"
	outcomeReported  = "reported"
	outcomeSkipped   = "skipped"
)

// MetricsMiddleware records request count and latency for endpoint. Responses
// tagged by the handler are also counted per outcome, and error responses are
// counted under their error code. A skipped race is not an error.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		durationMs := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if rec.outcome != "" {
			metrics.RecordRaceResponse(endpoint, rec.outcome)
		}
		if rec.status >= http.StatusBadRequest && rec.outcome != outcomeSkipped {
			metrics.RecordError("http_"+endpoint, errorType(rec))
		}
	}
}

// errorType prefers the code written in the error body, falling back to the
// status class for responses written outside writeError.
func errorType(rec *responseRecorder) string {
	if rec.code != "" {
		return rec.code
	}
	switch {
	case rec.status >= http.StatusInternalServerError:
		return "internal"
	case rec.status == http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

// tag marks the response with a race outcome when w is recorded.
func tag(w http.ResponseWriter, outcome string) {
	if rec, ok := w.(*responseRecorder); ok {
		rec.outcome = outcome
	}
}

// tagError marks the response with its error code when w is recorded.
func tagError(w http.ResponseWriter, code string) {
	if rec, ok := w.(*responseRecorder); ok {
		rec.code = code
	}
}

// responseRecorder captures the status, error code and outcome of a response.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	code    string
	outcome string
}

func (rw *responseRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
