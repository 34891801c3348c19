package models

import (
	"fmt"
	"strings"
)

// Tier is one stage in the certification ladder. Tiers are ordered; progression
// rules compare them directly.
type Tier int

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
	Tier4 // Consultant
	Tier5 // Coach
)

// AllTiers lists every tier in ladder order.
var AllTiers = []Tier{Tier1, Tier2, Tier3, Tier4, Tier5}

var tierNames = map[Tier]string{
	Tier1: "tier1",
	Tier2: "tier2",
	Tier3: "tier3",
	Tier4: "consultant",
	Tier5: "coach",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Valid reports whether t is one of the five ladder tiers.
func (t Tier) Valid() bool {
	return t >= Tier1 && t <= Tier5
}

// Next returns the tier above t; ok is false at the top of the ladder.
func (t Tier) Next() (Tier, bool) {
	if t >= Tier5 || !t.Valid() {
		return 0, false
	}
	return t + 1, true
}

// Prev returns the tier below t; ok is false at the bottom of the ladder.
func (t Tier) Prev() (Tier, bool) {
	if t <= Tier1 || !t.Valid() {
		return 0, false
	}
	return t - 1, true
}

// ParseTier maps external tier identifiers ("tier1".."tier3", "consultant",
// "coach", or bare digits) to a Tier.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tier1", "1":
		return Tier1, nil
	case "tier2", "2":
		return Tier2, nil
	case "tier3", "3":
		return Tier3, nil
	case "tier4", "consultant", "4":
		return Tier4, nil
	case "tier5", "coach", "5":
		return Tier5, nil
	default:
		return 0, fmt.Errorf("unrecognized tier %q", s)
	}
}
