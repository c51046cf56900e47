package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/handicap/internal/domain/model"
)

// ReportsHandler serves stored race reports.
type ReportsHandler struct {
	deps Dependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Dependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleList handles GET /reports.
func (h *ReportsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	reports, err := h.deps.Reports(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// HandleGet handles GET /reports/{track}/{race}.
func (h *ReportsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	race, err := strconv.Atoi(r.PathValue("race"))
	if err != nil || race <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("parse race number", ErrBadRequest))
		return
	}
	key := model.RaceKey{Track: strings.ToUpper(r.PathValue("track")), Race: race}

	rep, err := h.deps.Report(r.Context(), key)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
