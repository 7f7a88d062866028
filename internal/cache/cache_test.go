package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestBankCache(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	c := NewBankCache(rdb, time.Hour)

	bank := model.NewQuestionBank(uuid.New(), "Tata Surya")
	bank.Tiers[model.TierHard] = []model.Question{{
		ID: uuid.New(), QuizID: bank.QuizID, Tier: model.TierHard, Text: "Planet terbesar?",
		Choices: []string{"Jupiter", "Mars", "Bumi", "Venus"}, CorrectAnswer: "Jupiter",
	}}

	miss, err := c.Get(ctx, bank.QuizID)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, bank))
	got, err := c.Get(ctx, bank.QuizID)
	require.NoError(t, err)
	assert.Equal(t, bank, got)

	mr.FastForward(time.Hour + time.Second)
	got, err = c.Get(ctx, bank.QuizID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, bank))
	require.NoError(t, c.Invalidate(ctx, bank.QuizID))
	got, err = c.Get(ctx, bank.QuizID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionMarker(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	m := NewSessionMarker(rdb, time.Hour)

	none, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, none)

	first := ActiveSession{SessionID: uuid.New(), QuizID: uuid.New(), QuizTitle: "A", StartedAt: time.Now().UTC().Truncate(time.Second)}
	prev, err := m.Set(ctx, "u1", first)
	require.NoError(t, err)
	assert.Nil(t, prev)

	second := ActiveSession{SessionID: uuid.New(), QuizID: uuid.New(), QuizTitle: "B", StartedAt: first.StartedAt}
	prev, err = m.Set(ctx, "u1", second)
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, first.SessionID, prev.SessionID)

	cleared, err := m.Clear(ctx, "u1", first.SessionID)
	require.NoError(t, err)
	assert.False(t, cleared)

	got, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, second, *got)

	cleared, err = m.Clear(ctx, "u1", second.SessionID)
	require.NoError(t, err)
	assert.True(t, cleared)

	got, err = m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
