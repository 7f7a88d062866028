package model

// Tier is the difficulty classification of a question.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// Tiers lists every tier from easiest to hardest.
var Tiers = []Tier{TierEasy, TierMedium, TierHard}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierEasy, TierMedium, TierHard:
		return true
	}
	return false
}

// Numeric returns the 1..3 encoding used by the difficulty oracle.
// Unknown tiers encode as medium.
func (t Tier) Numeric() int {
	switch t {
	case TierEasy:
		return 1
	case TierHard:
		return 3
	default:
		return 2
	}
}

// ParseTier converts a raw tier name, reporting false for unknown names.
func ParseTier(raw string) (Tier, bool) {
	t := Tier(raw)
	return t, t.Valid()
}
