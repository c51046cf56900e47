package tables

import (
	"strings"

	"github.com/okian/handicap/internal/domain/model"
)

// fieldAliases maps feed column names of the field table to canonical ones.
var fieldAliases = map[string]string{
	"Track":                         model.ColTrack,
	"track":                         model.ColTrack,
	"Race_#":                        model.ColRaceNumber,
	"race":                          model.ColRaceNumber,
	"Program_Number_(if_available)": model.ColProgramNumber,
	"program_number_if_available":   model.ColProgramNumber,
	"Horse_Name":                    model.ColHorseName,
	"BRIS_Prime_Power_Rating":       model.ColPrimePower,
	"BRIS_Dirt_Pedigree_Rating":     model.ColPedDirt,
	"bris_dirt_pedigree_rating":     model.ColPedDirt,
	"BRIS_Turf_Pedigree_Rating":     model.ColPedTurf,
	"bris_turf_pedigree_rating":     model.ColPedTurf,
	"BRIS_Mud_Pedigree_Rating":      model.ColPedMud,
	"bris_mud_pedigree_rating":      model.ColPedMud,
	"BRIS_Run_Style_designation":    model.ColRunStyle,
	"bris_run_style_designation":    model.ColRunStyle,
	"Surface":                       model.ColSurface,
	"surface_today":                 model.ColSurface,
	"Morn._Line_Odds(if_available)": model.ColMorningLineOdds,
	"T/J_Combo_$2_ROI_(365D)":       model.ColTJComboROI,
	"T/J_Combo_#_Starts_(365D)":     model.ColTJComboStarts,
	"Distance_(in_yards)":           model.ColDistanceYards,
	"Race_Type":                     model.ColRaceType,
	"race_type_today":               model.ColRaceType,
}

// pastAliases maps feed column names of a long past-starts table.
var pastAliases = map[string]string{
	"Track":                         model.ColTrack,
	"track":                         model.ColTrack,
	"Race_#":                        model.ColRaceNumber,
	"race":                          model.ColRaceNumber,
	"Program_Number_(if_available)": model.ColProgramNumber,
	"program_number_if_available":   model.ColProgramNumber,
	"Race_Date":                     model.ColRaceDate,
	"Surface":                       model.ColPPSurface,
	"Track_Condition":               model.ColTrackCondition,
	"BRIS_Speed_Rating":             model.ColSpeed,
	"BRIS_2f_Pace_Fig":              model.ColPace2F,
	"BRIS_4f_Pace_Fig":              model.ColPace4F,
	"BRIS_Late_Pace_Fig":            model.ColLatePace,
}

// widePrefixes maps the per-start column stems of a wide past-performance
// table (e.g. "BRIS_Speed_Rating_3") to canonical past-start columns.
var widePrefixes = map[string]string{
	"Race_Date":          model.ColRaceDate,
	"pp_race_date":       model.ColRaceDate,
	"Surface":            model.ColPPSurface,
	"pp_surface":         model.ColPPSurface,
	"Track_Condition":    model.ColTrackCondition,
	"pp_track_condition": model.ColTrackCondition,
	"BRIS_Speed_Rating":  model.ColSpeed,
	"pp_bris_speed":      model.ColSpeed,
	"BRIS_2f_Pace_Fig":   model.ColPace2F,
	"pp_bris_pace_2f":    model.ColPace2F,
	"BRIS_4f_Pace_Fig":   model.ColPace4F,
	"pp_bris_pace_4f":    model.ColPace4F,
	"BRIS_Late_Pace_Fig": model.ColLatePace,
	"pp_bris_late_pace":  model.ColLatePace,
}

func canonical(aliases map[string]string, header string) string {
	h := strings.TrimSpace(header)
	if c, ok := aliases[h]; ok {
		return c
	}
	return h
}

// FieldColumn returns the canonical field-table name of a header.
func FieldColumn(header string) string { return canonical(fieldAliases, header) }

// PastStartColumn returns the canonical past-starts name of a header.
func PastStartColumn(header string) string { return canonical(pastAliases, header) }
