package quiz

import "github.com/stemsi/smartquiz-backend/internal/model"

// StartingTier is the tier of the first question of every session.
const StartingTier = model.TierMedium

// FallbackTier is the deterministic progression used whenever the oracle
// cannot answer: one step up after a correct answer, one step down after an
// incorrect one, saturating at both ends. Unknown tiers map to medium.
func FallbackTier(current model.Tier, wasCorrect bool) model.Tier {
	if wasCorrect {
		switch current {
		case model.TierEasy:
			return model.TierMedium
		case model.TierMedium, model.TierHard:
			return model.TierHard
		}
		return model.TierMedium
	}

	switch current {
	case model.TierHard:
		return model.TierMedium
	case model.TierMedium, model.TierEasy:
		return model.TierEasy
	}
	return model.TierMedium
}
