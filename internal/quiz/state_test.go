package quiz

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reduce(t *testing.T, s State, ev Event) (State, []Effect) {
	t.Helper()
	next, effects, err := Reduce(s, ev)
	require.NoError(t, err)
	return next, effects
}

// presenting returns a state showing a medium question with the given budget.
func presenting(t *testing.T, settings Settings) State {
	t.Helper()
	bank := makeBank(2, 2, 2)
	s := NewState(uuid.New(), bank.QuizID, model.Identity{}, settings)
	s, _ = reduce(t, s, BankLoaded{Title: bank.QuizTitle})
	s, _ = reduce(t, s, QuestionPicked{Question: bank.Tiers[model.TierMedium][0]})
	return s
}

func TestReduce_InitialLoad(t *testing.T) {
	s := NewState(uuid.New(), uuid.New(), model.Identity{}, DefaultSettings)
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.Equal(t, model.TierMedium, s.Tier)

	s, effects := reduce(t, s, BankLoaded{Title: "Ekologi"})
	assert.Equal(t, "Ekologi", s.QuizTitle)
	require.Len(t, effects, 1)
	assert.Equal(t, PickQuestion{Tier: model.TierMedium, Used: UsedSet{}}, effects[0])

	q := makeBank(0, 1, 0).Tiers[model.TierMedium][0]
	s, effects = reduce(t, s, QuestionPicked{Question: q})
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.Equal(t, q.ID, s.Current.ID)
	assert.Equal(t, 60, s.Remaining)
	assert.True(t, s.Used.Contains(model.TierMedium, q.ID))
	assert.Equal(t, []Effect{ScheduleTick{Gen: 1}}, effects)
}

func TestReduce_FallbackQuestionSetsTier(t *testing.T) {
	s := NewState(uuid.New(), uuid.New(), model.Identity{}, DefaultSettings)
	s, _ = reduce(t, s, BankLoaded{})

	q := makeBank(0, 0, 1).Tiers[model.TierHard][0]
	s, _ = reduce(t, s, QuestionPicked{Question: q})
	assert.Equal(t, model.TierHard, s.Tier)
	assert.True(t, s.Used.Contains(model.TierHard, q.ID))
}

func TestReduce_SubmitIsIdempotent(t *testing.T) {
	s := presenting(t, DefaultSettings)
	s, _ = reduce(t, s, OptionSelected{Option: "A"})
	s.Remaining = 50

	s, effects := reduce(t, s, AnswerSubmitted{})
	require.Len(t, s.Answers, 1)
	rec := s.Answers[0]
	assert.True(t, rec.IsCorrect)
	assert.Equal(t, 10, rec.TimeTaken)
	assert.False(t, rec.TimedOut)
	require.NotNil(t, rec.SelectedOption)
	assert.Equal(t, "A", *rec.SelectedOption)
	assert.Equal(t, []Effect{CancelTimer{}, PredictTier{Tier: model.TierMedium, WasCorrect: true, TimeTaken: 10}}, effects)

	again, effects := reduce(t, s, AnswerSubmitted{})
	assert.Len(t, again.Answers, 1)
	assert.Empty(t, effects)
}

func TestReduce_SubmitWithoutSelectionIsIncorrect(t *testing.T) {
	s := presenting(t, DefaultSettings)

	s, _ = reduce(t, s, AnswerSubmitted{})
	require.Len(t, s.Answers, 1)
	assert.False(t, s.Answers[0].IsCorrect)
	assert.Nil(t, s.Answers[0].SelectedOption)
	assert.False(t, s.Answers[0].TimedOut)
}

func TestReduce_TimerExpiryForcesTimedOutAnswer(t *testing.T) {
	s := presenting(t, Settings{QuestionCount: 15, SecondsPerQuestion: 3})
	s, _ = reduce(t, s, OptionSelected{Option: "A"})
	gen := s.TimerGen

	s, effects := reduce(t, s, TimerTicked{Gen: gen})
	assert.Equal(t, 2, s.Remaining)
	assert.Equal(t, []Effect{ScheduleTick{Gen: gen}}, effects)

	s, _ = reduce(t, s, TimerTicked{Gen: gen})
	s, effects = reduce(t, s, TimerTicked{Gen: gen})

	assert.Equal(t, PhaseSubmitted, s.Phase)
	assert.Zero(t, s.Remaining)
	require.Len(t, s.Answers, 1)
	rec := s.Answers[0]
	assert.True(t, rec.TimedOut)
	assert.False(t, rec.IsCorrect)
	assert.Nil(t, rec.SelectedOption)
	assert.Equal(t, 3, rec.TimeTaken)
	assert.Contains(t, effects, Effect(CancelTimer{}))
}

func TestReduce_StaleTickIgnored(t *testing.T) {
	s := presenting(t, DefaultSettings)

	next, effects := reduce(t, s, TimerTicked{Gen: s.TimerGen - 1})
	assert.Equal(t, s.Remaining, next.Remaining)
	assert.Empty(t, effects)

	s, _ = reduce(t, s, AnswerSubmitted{})
	next, effects = reduce(t, s, TimerTicked{Gen: s.TimerGen})
	assert.Len(t, next.Answers, 1)
	assert.Empty(t, effects)
}

func TestReduce_PredictionAndPreloadGateFeedback(t *testing.T) {
	s := presenting(t, DefaultSettings)
	s, _ = reduce(t, s, OptionSelected{Option: "B"})
	s, _ = reduce(t, s, AnswerSubmitted{})
	assert.False(t, s.FeedbackVisible)

	s, _ = reduce(t, s, PredictionStarted{})
	assert.Equal(t, PhasePredicting, s.Phase)

	s, effects := reduce(t, s, TierPredicted{Tier: model.TierEasy, Fallback: true})
	assert.Equal(t, PhasePreloading, s.Phase)
	assert.Equal(t, model.TierEasy, s.NextTier)
	assert.False(t, s.FeedbackVisible)
	require.Len(t, effects, 1)
	pick := effects[0].(PickQuestion)
	assert.True(t, pick.Preload)
	assert.Equal(t, model.TierEasy, pick.Tier)
	require.NotNil(t, s.LastPrediction)
	assert.Equal(t, Prediction{From: model.TierMedium, Predicted: model.TierEasy, Fallback: true}, *s.LastPrediction)

	_, _, err := Reduce(s, Advanced{})
	require.ErrorIs(t, err, ErrNextNotReady)

	next := makeBank(1, 0, 0).Tiers[model.TierEasy][0]
	s, _ = reduce(t, s, QuestionPicked{Question: next, Preload: true})
	assert.Equal(t, PhaseFeedback, s.Phase)
	assert.True(t, s.FeedbackVisible)
	assert.Equal(t, next.ID, s.Next.ID)

	gen := s.TimerGen
	s, effects = reduce(t, s, Advanced{})
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.Equal(t, 1, s.Index)
	assert.Equal(t, next.ID, s.Current.ID)
	assert.Equal(t, model.TierEasy, s.Tier)
	assert.Nil(t, s.Next)
	assert.Nil(t, s.Selected)
	assert.False(t, s.Submitted)
	assert.False(t, s.FeedbackVisible)
	assert.Equal(t, 60, s.Remaining)
	assert.Equal(t, []Effect{ScheduleTick{Gen: gen + 1}}, effects)
	assert.Len(t, s.Answers, s.Index)
}

func TestReduce_NextNotReadyInFeedbackWithoutPreload(t *testing.T) {
	s := presenting(t, DefaultSettings)
	s.Phase = PhaseFeedback
	s.Submitted = true

	_, _, err := Reduce(s, Advanced{})
	require.ErrorIs(t, err, ErrNextNotReady)
}

func TestReduce_CompletesAtBudget(t *testing.T) {
	s := presenting(t, Settings{QuestionCount: 1, SecondsPerQuestion: 60})
	s, _ = reduce(t, s, OptionSelected{Option: "A"})
	s, _ = reduce(t, s, AnswerSubmitted{})
	s, _ = reduce(t, s, PredictionStarted{})
	s, _ = reduce(t, s, TierPredicted{Tier: model.TierHard})
	s, _ = reduce(t, s, QuestionPicked{Question: makeBank(0, 0, 1).Tiers[model.TierHard][0], Preload: true})

	at := time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC)
	resultID := uuid.New()
	s, effects := reduce(t, s, Advanced{At: at, ResultID: resultID})

	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Equal(t, 1, s.Index)
	assert.Len(t, s.Answers, 1)
	require.NotNil(t, s.Result)
	assert.Equal(t, resultID, s.Result.ID)
	assert.Equal(t, 100.0, s.Result.Score)
	assert.Equal(t, PersistPending, s.Persistence)
	require.Len(t, effects, 2)
	assert.IsType(t, PersistResult{}, effects[1])

	again, effects := reduce(t, s, Advanced{At: at, ResultID: uuid.New()})
	assert.Equal(t, resultID, again.Result.ID)
	assert.Empty(t, effects)

	failed, _ := reduce(t, s, ResultPersisted{Err: errors.New("unavailable")})
	assert.Equal(t, PersistFailed, failed.Persistence)
	assert.Equal(t, 100.0, failed.Result.Score)
}

func TestReduce_SelectValidation(t *testing.T) {
	s := presenting(t, DefaultSettings)

	_, _, err := Reduce(s, OptionSelected{Option: "Z"})
	require.ErrorIs(t, err, ErrInvalidOption)

	s, _ = reduce(t, s, OptionSelected{Option: "C"})
	require.NotNil(t, s.Selected)
	assert.Equal(t, "C", *s.Selected)

	s, _ = reduce(t, s, AnswerSubmitted{})
	_, _, err = Reduce(s, OptionSelected{Option: "A"})
	require.ErrorIs(t, err, ErrNotPresenting)
}

func TestReduce_FailureAndAbandon(t *testing.T) {
	s := NewState(uuid.New(), uuid.New(), model.Identity{}, DefaultSettings)
	failed, effects := reduce(t, s, BankFailed{Err: ErrNotFound})
	assert.Equal(t, PhaseFailed, failed.Phase)
	assert.ErrorIs(t, failed.Failure, ErrNotFound)
	assert.Equal(t, []Effect{CancelTimer{}}, effects)

	_, _, err := Reduce(failed, AnswerSubmitted{})
	require.ErrorIs(t, err, ErrSessionClosed)

	live := presenting(t, DefaultSettings)
	gone, effects := reduce(t, live, Abandoned{})
	assert.Equal(t, PhaseAbandoned, gone.Phase)
	assert.Equal(t, []Effect{CancelTimer{}}, effects)

	_, _, err = Reduce(gone, Advanced{})
	require.ErrorIs(t, err, ErrSessionClosed)

	still, effects := reduce(t, gone, Abandoned{})
	assert.Equal(t, PhaseAbandoned, still.Phase)
	assert.Empty(t, effects)
}

func TestReduce_AnswersNotShared(t *testing.T) {
	s := presenting(t, DefaultSettings)
	s.Answers = make([]model.AnswerRecord, 0, 16)

	a, _ := reduce(t, s, AnswerSubmitted{})
	b, _ := reduce(t, s, OptionSelected{Option: "A"})
	b, _ = reduce(t, b, AnswerSubmitted{})

	require.Len(t, a.Answers, 1)
	require.Len(t, b.Answers, 1)
	assert.False(t, a.Answers[0].IsCorrect)
	assert.True(t, b.Answers[0].IsCorrect)
}
