// Package report builds the structured handicapping report for one race.
package report

import (
	"time"

	"github.com/okian/handicap/internal/domain/model"
)

// NotAvailable marks a factor value the horse has no data for.
const NotAvailable = "N/A"

// DefaultProcess names the analysis that produced a report.
const DefaultProcess = "Adapted Handicapping Process"

// Favorite classifications by the tier holding the favorite.
const (
	Legitimate = "Legitimate"
	Vulnerable = "Vulnerable"
	False      = "False"
)

// Report is the document produced for one race.
type Report struct {
	Race     RaceIdentification `json:"race_identification"`
	Summary  Summary            `json:"handicapping_summary"`
	Data     SupportingData     `json:"supporting_data"`
	Metadata Metadata           `json:"metadata"`
}

// Key returns the race the report covers.
func (r Report) Key() model.RaceKey {
	return model.RaceKey{Track: r.Race.Track, Race: r.Race.RaceNumber}
}

// RaceIdentification describes the race.
type RaceIdentification struct {
	Track           string  `json:"track"`
	RaceNumber      int     `json:"race_number"`
	DistanceFurlong float64 `json:"distance_furlongs"`
	Surface         string  `json:"surface"`
	RaceType        string  `json:"race_type"`
}

// Favorite describes the morning-line favorite and how the analysis rates it.
type Favorite struct {
	ProgramNumber  string `json:"program_number"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
}

// Summary holds the conclusions.
type Summary struct {
	Favorite      *Favorite          `json:"favorite_details"`
	KeyHorse      *string            `json:"key_horse_for_exotics"`
	WinContenders []string           `json:"primary_win_contenders"`
	Groups        model.Tiers        `json:"contender_groups"`
	PaceScenario  model.PaceScenario `json:"pace_scenario"`
}

// Profile summarizes one factor across the contenders.
type Profile struct {
	Count  int     `json:"count"`
	Best   float64 `json:"best"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
}

// SupportingData holds the evidence behind the summary.
type SupportingData struct {
	FactorMatrix    map[string]map[string]any    `json:"factor_matrix"`
	AdjustmentNotes map[string]map[string]string `json:"adjustment_notes"`
	FieldProfile    map[string]Profile           `json:"field_profile"`
}

// Metadata identifies the report.
type Metadata struct {
	ReportID    string    `json:"report_id"`
	GeneratedAt time.Time `json:"report_generated_at"`
	Process     string    `json:"process"`
}
