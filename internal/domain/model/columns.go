package model

import (
	"fmt"
	"sort"
)

// Canonical column names of the field table.
const (
	ColTrack           = "track_code"
	ColRaceNumber      = "race_number"
	ColProgramNumber   = "program_number"
	ColHorseName       = "horse_name"
	ColPrimePower      = "bris_prime_power"
	ColPedDirt         = "bris_ped_dirt"
	ColPedTurf         = "bris_ped_turf"
	ColPedMud          = "bris_ped_mud"
	ColRunStyle        = "bris_run_style"
	ColSurface         = "surface"
	ColMorningLineOdds = "morning_line_odds"
	ColTJComboROI      = "tj_combo_roi_365d"
	ColTJComboStarts   = "tj_combo_starts_365d"
	ColDistanceYards   = "distance_yards"
	ColRaceType        = "race_type"
)

// Canonical column names of the past-starts table.
const (
	ColRaceDate       = "pp_race_date"
	ColPPSurface      = "pp_surface"
	ColTrackCondition = "pp_track_condition"
	ColSpeed          = "pp_bris_speed"
	ColPace2F         = "pp_bris_pace_2f"
	ColPace4F         = "pp_bris_pace_4f"
	ColLatePace       = "pp_bris_late_pace"
)

// Columns is the set of column names a table was loaded with.
type Columns map[string]struct{}

// NewColumns builds a column set.
func NewColumns(names ...string) Columns {
	c := make(Columns, len(names))
	for _, n := range names {
		c[n] = struct{}{}
	}
	return c
}

// Has reports whether the column is present.
func (c Columns) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Require returns an ErrMissingColumn error naming the first absent column.
func (c Columns) Require(names ...string) error {
	for _, n := range names {
		if !c.Has(n) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, n)
		}
	}
	return nil
}

// Names returns the column names in sorted order.
func (c Columns) Names() []string {
	out := make([]string, 0, len(c))
	for n := range c {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// FieldColumnNames lists every canonical field column.
var FieldColumnNames = []string{
	ColTrack, ColRaceNumber, ColProgramNumber, ColHorseName, ColPrimePower,
	ColPedDirt, ColPedTurf, ColPedMud, ColRunStyle, ColSurface,
	ColMorningLineOdds, ColTJComboROI, ColTJComboStarts, ColDistanceYards, ColRaceType,
}

// PastStartColumnNames lists every canonical past-starts column.
var PastStartColumnNames = []string{
	ColTrack, ColRaceNumber, ColProgramNumber, ColRaceDate, ColPPSurface,
	ColTrackCondition, ColSpeed, ColPace2F, ColPace4F, ColLatePace,
}
