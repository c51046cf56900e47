package model

import (
	"encoding/json"
	"strings"
)

// Disposition is the direction of a situational adjustment.
type Disposition string

// Dispositions.
const (
	Upgrade   Disposition = "upgrade"
	Downgrade Disposition = "downgrade"
)

// ReasonPolicy decides what happens when a horse earns a second reason for
// the same disposition.
type ReasonPolicy string

// Reason policies.
const (
	// LastWins keeps only the most recently recorded reason.
	LastWins ReasonPolicy = "last_wins"
	// KeepAll keeps every reason in the order they were recorded.
	KeepAll ReasonPolicy = "keep_all"
)

// Valid reports whether p is a known policy.
func (p ReasonPolicy) Valid() bool {
	return p == LastWins || p == KeepAll
}

// Adjustments records upgrade and downgrade reasons per horse.
type Adjustments struct {
	policy  ReasonPolicy
	reasons map[Disposition]map[string][]string
	order   map[Disposition][]string
}

// NewAdjustments returns an empty record using the given policy.
// Unknown policies fall back to LastWins.
func NewAdjustments(policy ReasonPolicy) *Adjustments {
	if !policy.Valid() {
		policy = LastWins
	}
	return &Adjustments{
		policy: policy,
		reasons: map[Disposition]map[string][]string{
			Upgrade:   {},
			Downgrade: {},
		},
		order: map[Disposition][]string{},
	}
}

// Policy returns the reason policy in effect.
func (a *Adjustments) Policy() ReasonPolicy { return a.policy }

// Add records a reason for id under d.
func (a *Adjustments) Add(d Disposition, id, reason string) {
	byID, ok := a.reasons[d]
	if !ok {
		byID = map[string][]string{}
		a.reasons[d] = byID
	}
	prev, seen := byID[id]
	if !seen {
		a.order[d] = append(a.order[d], id)
	}
	if a.policy == KeepAll {
		byID[id] = append(prev, reason)
		return
	}
	byID[id] = []string{reason}
}

// Has reports whether id holds a signal under d.
func (a *Adjustments) Has(d Disposition, id string) bool {
	_, ok := a.reasons[d][id]
	return ok
}

// IDs returns the horses holding a signal under d, in first-recorded order.
func (a *Adjustments) IDs(d Disposition) []string {
	return append([]string{}, a.order[d]...)
}

// Reasons returns the reasons kept for id under d.
func (a *Adjustments) Reasons(d Disposition, id string) []string {
	return append([]string{}, a.reasons[d][id]...)
}

// Reason returns the kept reasons for id under d joined into one note.
func (a *Adjustments) Reason(d Disposition, id string) string {
	return strings.Join(a.reasons[d][id], "; ")
}

// Len counts the horses holding a signal under d.
func (a *Adjustments) Len(d Disposition) int { return len(a.order[d]) }

// Notes flattens the record into disposition -> id -> note.
func (a *Adjustments) Notes() map[string]map[string]string {
	out := map[string]map[string]string{
		string(Upgrade):   {},
		string(Downgrade): {},
	}
	for d, ids := range a.order {
		if out[string(d)] == nil {
			out[string(d)] = map[string]string{}
		}
		for _, id := range ids {
			out[string(d)][id] = a.Reason(d, id)
		}
	}
	return out
}

// MarshalJSON renders the flattened notes.
func (a *Adjustments) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Notes())
}
