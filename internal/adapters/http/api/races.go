package api

import (
	"net/http"

	"github.com/okian/handicap/internal/domain/model"
)

// RacesHandler handles race submission and synchronous analysis.
type RacesHandler struct {
	deps Dependencies
}

// NewRacesHandler creates a new races handler.
func NewRacesHandler(deps Dependencies) *RacesHandler {
	return &RacesHandler{deps: deps}
}

// HandleSubmit handles POST /races. New jobs are acknowledged with 202,
// duplicates with 200.
func (h *RacesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := readRace(w, r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	field, starts, err := req.decode()
	if err != nil {
		writeFailure(w, err)
		return
	}

	sub, err := h.deps.Submit(r.Context(), model.RaceJob{ID: req.JobID, Field: field, Starts: starts})
	if err != nil {
		writeFailure(w, err)
		return
	}
	if sub.Duplicate {
		tag(w, outcomeDuplicate)
		writeJSON(w, http.StatusOK, ackResponse{Status: outcomeDuplicate, JobID: sub.JobID, Race: sub.Race, Duplicate: true})
		return
	}
	tag(w, outcomeAccepted)
	writeJSON(w, http.StatusAccepted, ackResponse{Status: outcomeAccepted, JobID: sub.JobID, Race: sub.Race})
}

// HandleAnalyze handles POST /analyze. A report is returned with 200; a
// skipped race is answered with 422 and the skip reason.
func (h *RacesHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := readRace(w, r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	field, starts, err := req.decode()
	if err != nil {
		writeFailure(w, err)
		return
	}

	out, err := h.deps.AnalyzeRace(r.Context(), field, starts)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if out.Skipped {
		tag(w, outcomeSkipped)
		writeJSON(w, http.StatusUnprocessableEntity, out)
		return
	}
	tag(w, outcomeReported)
	writeJSON(w, http.StatusOK, out.Report)
}
