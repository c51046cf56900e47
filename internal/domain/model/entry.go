// Package model contains domain models passed between layers.
package model

import (
	"sort"
)

// Entry is one horse entered in today's race.
type Entry struct {
	Track         string
	RaceNumber    int
	ProgramNumber string // identifier within the race
	HorseName     string

	PrimePower Num
	PedDirt    Num
	PedTurf    Num
	PedMud     Num

	RunStyle string // E, E/P, P or S
	Surface  string // today's surface code: D, T, M, S

	MorningLineOdds  Num
	TJComboROI365    Num
	TJComboStarts365 Num

	DistanceYards Num
	RaceType      string
}

// Number returns the numeric attribute stored under a canonical column name.
func (e Entry) Number(column string) Num {
	switch column {
	case ColPrimePower:
		return e.PrimePower
	case ColPedDirt:
		return e.PedDirt
	case ColPedTurf:
		return e.PedTurf
	case ColPedMud:
		return e.PedMud
	case ColMorningLineOdds:
		return e.MorningLineOdds
	case ColTJComboROI:
		return e.TJComboROI365
	case ColTJComboStarts:
		return e.TJComboStarts365
	case ColDistanceYards:
		return e.DistanceYards
	default:
		return None()
	}
}

// Key returns the race the entry belongs to.
func (e Entry) Key() RaceKey {
	return RaceKey{Track: e.Track, Race: e.RaceNumber}
}

// Field is the table of entries for one or more races.
type Field struct {
	Columns Columns
	Entries []Entry
}

// Len returns the number of entries.
func (f Field) Len() int { return len(f.Entries) }

// IDs returns the program numbers in table order.
func (f Field) IDs() []string {
	ids := make([]string, len(f.Entries))
	for i, e := range f.Entries {
		ids[i] = e.ProgramNumber
	}
	return ids
}

// Lookup returns the entry with the given program number.
func (f Field) Lookup(id string) (Entry, bool) {
	for _, e := range f.Entries {
		if e.ProgramNumber == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Subset keeps the entries whose program number is in ids, preserving table order.
func (f Field) Subset(ids map[string]struct{}) Field {
	out := Field{Columns: f.Columns}
	for _, e := range f.Entries {
		if _, ok := ids[e.ProgramNumber]; ok {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// Races returns the distinct race keys in order of first appearance.
func (f Field) Races() []RaceKey {
	seen := make(map[RaceKey]struct{})
	var keys []RaceKey
	for _, e := range f.Entries {
		k := e.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// ForRace keeps the entries of one race.
func (f Field) ForRace(key RaceKey) Field {
	out := Field{Columns: f.Columns}
	for _, e := range f.Entries {
		if e.Key() == key {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// Favorite returns the entry with the lowest morning-line odds. Ties keep
// table order and entries without odds sort last.
func (f Field) Favorite() (Entry, bool) {
	if len(f.Entries) == 0 {
		return Entry{}, false
	}
	idx := make([]int, len(f.Entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		oa, ob := f.Entries[idx[a]].MorningLineOdds, f.Entries[idx[b]].MorningLineOdds
		if oa.OK != ob.OK {
			return oa.OK
		}
		return oa.OK && oa.V < ob.V
	})
	return f.Entries[idx[0]], true
}
