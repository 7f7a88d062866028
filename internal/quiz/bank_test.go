package quiz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickUnused_SkipsUsedQuestions(t *testing.T) {
	bank := makeBank(0, 4, 0)
	rng := testRand()
	used := UsedSet{}

	for range 4 {
		q, err := PickUnused(bank, used, model.TierMedium, rng)
		require.NoError(t, err)
		assert.False(t, used.Contains(model.TierMedium, q.ID), "question %s picked twice", q.ID)
		used = used.With(model.TierMedium, q.ID)
	}
	assert.Len(t, used[model.TierMedium], 4)
}

func TestPickUnused_ExhaustedTierRepeats(t *testing.T) {
	bank := makeBank(1, 1, 1)
	only := bank.Tiers[model.TierHard][0]
	used := UsedSet{}.With(model.TierHard, only.ID)

	q, err := PickUnused(bank, used, model.TierHard, testRand())
	require.NoError(t, err)
	assert.Equal(t, only.ID, q.ID)
}

func TestPickUnused_EmptyTierFallsBackToMedium(t *testing.T) {
	bank := makeBank(0, 2, 0)

	q, err := PickUnused(bank, UsedSet{}, model.TierEasy, testRand())
	require.NoError(t, err)
	assert.Equal(t, model.TierMedium, q.Tier)

	q, err = PickUnused(bank, UsedSet{}, model.TierHard, testRand())
	require.NoError(t, err)
	assert.Equal(t, model.TierMedium, q.Tier)
}

func TestPickUnused_EmptyMedium(t *testing.T) {
	bank := makeBank(3, 0, 3)

	_, err := PickUnused(bank, UsedSet{}, model.TierMedium, testRand())
	require.ErrorIs(t, err, ErrEmptyBank)

	_, err = PickUnused(bank, UsedSet{}, model.TierHard, testRand())
	require.NoError(t, err, "hard tier has questions of its own")

	_, err = PickUnused(makeBank(0, 0, 0), UsedSet{}, model.TierEasy, testRand())
	require.ErrorIs(t, err, ErrEmptyBank)

	_, err = PickUnused(nil, UsedSet{}, model.TierEasy, testRand())
	require.ErrorIs(t, err, ErrEmptyBank)
}

func TestUsedSet_WithDoesNotMutate(t *testing.T) {
	id := uuid.New()
	base := UsedSet{}
	next := base.With(model.TierEasy, id)

	assert.False(t, base.Contains(model.TierEasy, id))
	assert.True(t, next.Contains(model.TierEasy, id))
	assert.False(t, next.Contains(model.TierHard, id))
}
