package model

import "fmt"

// RaceKey identifies one race on a card.
type RaceKey struct {
	Track string `json:"track"`
	Race  int    `json:"race_number"`
}

func (k RaceKey) String() string {
	return fmt.Sprintf("%s-R%d", k.Track, k.Race)
}

// PaceScenario is the projected early-race shape.
type PaceScenario string

// Pace scenarios.
const (
	LoneSpeed PaceScenario = "Lone Speed"
	PaceDuel  PaceScenario = "Pace Duel"
	Unclear   PaceScenario = "Unclear"
)

// Run-style designations.
const (
	StyleEarly        = "E"
	StyleEarlyPresser = "E/P"
	StylePresser      = "P"
	StyleSustained    = "S"
)

// IsEarlySpeed reports whether the run style shows early speed.
func IsEarlySpeed(style string) bool {
	return style == StyleEarly || style == StyleEarlyPresser
}

// IsPresserOrCloser reports whether the run style sits off the pace.
func IsPresserOrCloser(style string) bool {
	return style == StylePresser || style == StyleSustained
}

// RaceJob is one race submitted for asynchronous analysis.
type RaceJob struct {
	ID     string
	Race   RaceKey
	Field  Field
	Starts PastStarts
}
