package model

import "sort"

// Tier is an ordinal contender group, Group 1 being the strongest.
type Tier string

// Tier labels, best to worst.
const (
	Group1 Tier = "Group 1"
	Group2 Tier = "Group 2"
	Group3 Tier = "Group 3"
)

// TierOrder lists the tiers best to worst.
var TierOrder = []Tier{Group1, Group2, Group3}

// Up returns the next better tier; Group 1 stays put.
func (t Tier) Up() Tier {
	switch t {
	case Group2:
		return Group1
	case Group3:
		return Group2
	default:
		return t
	}
}

// Down returns the next worse tier; Group 3 stays put.
func (t Tier) Down() Tier {
	switch t {
	case Group1:
		return Group2
	case Group2:
		return Group3
	default:
		return t
	}
}

// Tiers maps each tier to its members. Every contender belongs to exactly one tier.
type Tiers map[Tier][]string

// NewTiers returns an assignment with all three tiers present.
func NewTiers(g1, g2, g3 []string) Tiers {
	t := Tiers{
		Group1: append([]string{}, g1...),
		Group2: append([]string{}, g2...),
		Group3: append([]string{}, g3...),
	}
	t.Normalize()
	return t
}

// Clone returns a deep copy.
func (t Tiers) Clone() Tiers {
	out := make(Tiers, len(TierOrder))
	for _, tier := range TierOrder {
		out[tier] = append([]string{}, t[tier]...)
	}
	return out
}

// Where returns the tier holding id.
func (t Tiers) Where(id string) (Tier, bool) {
	for _, tier := range TierOrder {
		for _, m := range t[tier] {
			if m == id {
				return tier, true
			}
		}
	}
	return "", false
}

// Move relocates id to the target tier. It is a no-op when id is unknown
// or already there.
func (t Tiers) Move(id string, to Tier) bool {
	from, ok := t.Where(id)
	if !ok || from == to {
		return false
	}
	members := t[from]
	for i, m := range members {
		if m == id {
			t[from] = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	t[to] = append(t[to], id)
	return true
}

// Normalize deduplicates and sorts each tier.
func (t Tiers) Normalize() {
	for _, tier := range TierOrder {
		seen := make(map[string]struct{}, len(t[tier]))
		out := make([]string, 0, len(t[tier]))
		for _, m := range t[tier] {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
		sort.Strings(out)
		t[tier] = out
	}
}

// Members returns every contender across tiers, sorted.
func (t Tiers) Members() []string {
	var out []string
	for _, tier := range TierOrder {
		out = append(out, t[tier]...)
	}
	sort.Strings(out)
	return out
}

// Len counts members across tiers.
func (t Tiers) Len() int {
	n := 0
	for _, tier := range TierOrder {
		n += len(t[tier])
	}
	return n
}
