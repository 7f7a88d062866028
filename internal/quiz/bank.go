package quiz

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// UsedSet tracks, per tier, the questions already presented in a session.
// It only grows; With returns a copy so earlier states stay untouched.
type UsedSet map[model.Tier][]uuid.UUID

// Contains reports whether id was already used in tier t.
func (u UsedSet) Contains(t model.Tier, id uuid.UUID) bool {
	return slices.Contains(u[t], id)
}

// With returns a copy of u with id appended to tier t.
func (u UsedSet) With(t model.Tier, id uuid.UUID) UsedSet {
	out := u.Clone()
	out[t] = append(out[t], id)
	return out
}

// Clone returns a deep copy of u.
func (u UsedSet) Clone() UsedSet {
	out := make(UsedSet, len(model.Tiers))
	for t, ids := range u {
		out[t] = slices.Clone(ids)
	}
	return out
}

// PickUnused returns a uniformly random question of the requested tier that
// is not in used. When every question of the tier was already used the whole
// tier is eligible again. An empty tier falls back to medium; an empty medium
// tier is ErrEmptyBank.
func PickUnused(bank *model.QuestionBank, used UsedSet, tier model.Tier, rng *rand.Rand) (model.Question, error) {
	if bank == nil {
		return model.Question{}, ErrEmptyBank
	}

	questions := bank.Tiers[tier]
	if len(questions) == 0 {
		if tier == model.TierMedium {
			return model.Question{}, fmt.Errorf("tier %s: %w", tier, ErrEmptyBank)
		}
		return PickUnused(bank, used, model.TierMedium, rng)
	}

	pool := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if !used.Contains(tier, q.ID) {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		pool = questions
	}

	return pool[rng.IntN(len(pool))], nil
}
