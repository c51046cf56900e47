package model

import (
	"slices"
	"sort"
	"time"
)

// Surface and track-condition codes.
const (
	SurfaceTurf  = "T"
	SurfaceDirt  = "D"
	SurfaceMuddy = "M"
	SurfaceSlop  = "S"
)

// WetSurfaces are today's surface codes that count as an off track.
var WetSurfaces = []string{SurfaceMuddy, SurfaceSlop}

// WetConditions are past-start track conditions that count as a wet start.
var WetConditions = []string{"M", "S", "SY"}

// PastStart is one historical race run by a horse.
type PastStart struct {
	Track          string // optional: the race the horse is entered in today
	RaceNumber     int
	ProgramNumber  string
	Date           time.Time
	Surface        string
	TrackCondition string

	Speed    Num
	Pace2F   Num
	Pace4F   Num
	LatePace Num
}

// Number returns the performance figure stored under a canonical column name.
func (p PastStart) Number(column string) Num {
	switch column {
	case ColSpeed:
		return p.Speed
	case ColPace2F:
		return p.Pace2F
	case ColPace4F:
		return p.Pace4F
	case ColLatePace:
		return p.LatePace
	default:
		return None()
	}
}

// PastStarts is the long-format past-performance table.
type PastStarts struct {
	Columns Columns
	Rows    []PastStart
}

// ForRace keeps the rows of horses entered in one race. Tables without race
// identifiers are returned unchanged.
func (p PastStarts) ForRace(key RaceKey) PastStarts {
	if !p.Columns.Has(ColTrack) || !p.Columns.Has(ColRaceNumber) {
		return p
	}
	out := PastStarts{Columns: p.Columns}
	for _, r := range p.Rows {
		if r.Track == key.Track && r.RaceNumber == key.Race {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// History maps a program number to its past starts in chronological order.
type History map[string][]PastStart

// History groups the rows of the given horses. Within a horse, rows are
// ordered by date; rows sharing a date keep table order.
func (p PastStarts) History(ids []string) History {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	h := make(History, len(ids))
	for _, r := range p.Rows {
		if _, ok := want[r.ProgramNumber]; !ok {
			continue
		}
		h[r.ProgramNumber] = append(h[r.ProgramNumber], r)
	}
	for id, rows := range h {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
		h[id] = rows
	}
	return h
}

// Latest returns the most recent start. Among starts sharing the latest date
// the last one in table order wins.
func (h History) Latest(id string) (PastStart, bool) {
	rows := h[id]
	if len(rows) == 0 {
		return PastStart{}, false
	}
	return rows[len(rows)-1], true
}

// Recent returns up to n most recent starts, oldest first.
func (h History) Recent(id string, n int) []PastStart {
	rows := h[id]
	if n < len(rows) {
		return rows[len(rows)-n:]
	}
	return rows
}

// Values collects the present values of a figure across a horse's starts.
func (h History) Values(id, column string) []float64 {
	var out []float64
	for _, r := range h[id] {
		if v := r.Number(column); v.OK {
			out = append(out, v.V)
		}
	}
	return out
}

// RanOnSurface reports whether any start was run on the surface.
func (h History) RanOnSurface(id, surface string) bool {
	for _, r := range h[id] {
		if r.Surface == surface {
			return true
		}
	}
	return false
}

// RanInConditions reports whether any start was run in one of the track conditions.
func (h History) RanInConditions(id string, conditions []string) bool {
	for _, r := range h[id] {
		if slices.Contains(conditions, r.TrackCondition) {
			return true
		}
	}
	return false
}

// IsWetSurface reports whether today's surface code is an off track.
func IsWetSurface(surface string) bool { return slices.Contains(WetSurfaces, surface) }
