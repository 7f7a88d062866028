package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	ctrl      *Controller
	sched     *manualScheduler
	predictor *predictorStub
	saver     *saverStub
	bank      *model.QuestionBank
}

func newHarness(t *testing.T, bank *model.QuestionBank, predictor *predictorStub) *harness {
	t.Helper()
	h := &harness{
		sched:     &manualScheduler{},
		predictor: predictor,
		saver:     &saverStub{},
		bank:      bank,
	}
	var p Predictor
	if predictor != nil {
		p = predictor
	}
	h.ctrl = NewController(context.Background(), bank.QuizID, model.Identity{UserID: "u-1"}, &bankStub{bank: bank}, p, h.saver, Options{
		Settings:      DefaultSettings,
		OracleTimeout: 20 * time.Millisecond,
		Scheduler:     h.sched,
		Rand:          testRand(),
		Log:           zerolog.Nop(),
	})
	return h
}

func TestController_FullSessionWithOracleDown(t *testing.T) {
	h := newHarness(t, makeBank(5, 5, 5), &predictorStub{err: errors.New("connection refused")})

	s, err := h.ctrl.Start()
	require.NoError(t, err)
	assert.Equal(t, PhasePresenting, s.Phase)
	assert.Equal(t, model.TierMedium, s.Tier)

	wantTier := model.TierMedium
	for i := range DefaultSettings.QuestionCount {
		require.Equal(t, PhasePresenting, s.Phase)
		require.Equal(t, i, s.Index)
		require.Len(t, s.Answers, s.Index)
		require.Equal(t, wantTier, s.Current.Tier)

		_, err = h.ctrl.Select("A")
		require.NoError(t, err)
		s, err = h.ctrl.Submit()
		require.NoError(t, err)

		assert.Equal(t, PhaseFeedback, s.Phase)
		assert.True(t, s.FeedbackVisible)
		require.NotNil(t, s.Next)
		require.NotNil(t, s.LastPrediction)
		assert.True(t, s.LastPrediction.Fallback)
		require.Len(t, s.Answers, i+1)

		wantTier = FallbackTier(wantTier, true)
		assert.Equal(t, wantTier, s.NextTier)

		s, err = h.ctrl.Next()
		require.NoError(t, err)
	}

	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Len(t, s.Answers, DefaultSettings.QuestionCount)
	require.NotNil(t, s.Result)
	assert.Equal(t, 100.0, s.Result.Score)
	assert.Equal(t, PersistSaved, s.Persistence)
	require.Len(t, h.saver.saved, 1)
	assert.Equal(t, s.Result.ID, h.saver.saved[0].ID)
	assert.Equal(t, "u-1", h.saver.saved[0].UserID)
	assert.Zero(t, h.sched.Armed())

	s, err = h.ctrl.Next()
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Len(t, h.saver.saved, 1)
}

func TestController_FallbackScenarios(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), &predictorStub{err: errors.New("timeout")})
	_, err := h.ctrl.Start()
	require.NoError(t, err)

	for range 10 {
		h.sched.Fire()
	}
	_, err = h.ctrl.Select("A")
	require.NoError(t, err)
	s, err := h.ctrl.Submit()
	require.NoError(t, err)
	assert.Equal(t, 10, s.Answers[0].TimeTaken)
	assert.Equal(t, model.TierHard, s.NextTier)

	s, err = h.ctrl.Next()
	require.NoError(t, err)
	assert.Equal(t, model.TierHard, s.Tier)

	for range 45 {
		h.sched.Fire()
	}
	_, err = h.ctrl.Select("B")
	require.NoError(t, err)
	s, err = h.ctrl.Submit()
	require.NoError(t, err)
	assert.Equal(t, 45, s.Answers[1].TimeTaken)
	assert.False(t, s.Answers[1].IsCorrect)
	assert.Equal(t, model.TierMedium, s.NextTier)
}

func TestController_OracleChoosesTier(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), &predictorStub{tier: model.TierEasy})
	_, err := h.ctrl.Start()
	require.NoError(t, err)

	_, err = h.ctrl.Select("A")
	require.NoError(t, err)
	s, err := h.ctrl.Submit()
	require.NoError(t, err)
	assert.Equal(t, model.TierEasy, s.NextTier)
	assert.False(t, s.LastPrediction.Fallback)
	assert.Equal(t, model.TierEasy, s.Next.Tier)
	assert.Equal(t, 1, h.predictor.calls)
}

func TestController_OracleInvalidTierFallsBack(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), &predictorStub{tier: model.Tier("legendary")})
	_, err := h.ctrl.Start()
	require.NoError(t, err)

	s, err := h.ctrl.Submit()
	require.NoError(t, err)
	assert.Equal(t, model.TierEasy, s.NextTier)
	assert.True(t, s.LastPrediction.Fallback)
}

func TestController_OracleTimeoutFallsBack(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), &predictorStub{block: true})
	_, err := h.ctrl.Start()
	require.NoError(t, err)

	_, err = h.ctrl.Select("A")
	require.NoError(t, err)
	s, err := h.ctrl.Submit()
	require.NoError(t, err)
	assert.Equal(t, model.TierHard, s.NextTier)
	assert.True(t, s.LastPrediction.Fallback)
	assert.Equal(t, PhaseFeedback, s.Phase)
}

func TestController_NilPredictorUsesFallback(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), nil)
	_, err := h.ctrl.Start()
	require.NoError(t, err)

	s, err := h.ctrl.Submit()
	require.NoError(t, err)
	assert.Equal(t, model.TierEasy, s.NextTier)
}

func TestController_TimerExpiry(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), &predictorStub{tier: model.TierMedium})
	_, err := h.ctrl.Start()
	require.NoError(t, err)
	_, err = h.ctrl.Select("A")
	require.NoError(t, err)

	for range DefaultSettings.SecondsPerQuestion {
		require.Equal(t, 1, h.sched.Fire())
	}

	s := h.ctrl.State()
	assert.Equal(t, PhaseFeedback, s.Phase)
	require.Len(t, s.Answers, 1)
	rec := s.Answers[0]
	assert.True(t, rec.TimedOut)
	assert.False(t, rec.IsCorrect)
	assert.Nil(t, rec.SelectedOption)
	assert.Equal(t, 60, rec.TimeTaken)

	assert.Zero(t, h.sched.Fire())
	assert.Zero(t, h.sched.Armed())
}

func TestController_SubmitTwiceRecordsOnce(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), &predictorStub{tier: model.TierHard})
	_, err := h.ctrl.Start()
	require.NoError(t, err)

	_, err = h.ctrl.Submit()
	require.NoError(t, err)
	s, err := h.ctrl.Submit()
	require.NoError(t, err)

	assert.Len(t, s.Answers, 1)
	assert.Equal(t, 1, h.predictor.calls)
}

func TestController_StartFailures(t *testing.T) {
	bank := makeBank(1, 1, 1)
	ctrl := NewController(context.Background(), bank.QuizID, model.Identity{}, &bankStub{err: ErrNotFound}, nil, &saverStub{}, Options{Scheduler: &manualScheduler{}, Log: zerolog.Nop()})

	s, err := ctrl.Start()
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, PhaseFailed, s.Phase)

	empty := makeBank(2, 0, 2)
	ctrl = NewController(context.Background(), empty.QuizID, model.Identity{}, &bankStub{bank: empty}, nil, &saverStub{}, Options{Scheduler: &manualScheduler{}, Log: zerolog.Nop()})
	s, err = ctrl.Start()
	require.ErrorIs(t, err, ErrEmptyBank)
	assert.Equal(t, PhaseFailed, s.Phase)
}

func TestController_PersistenceFailureKeepsScore(t *testing.T) {
	bank := makeBank(2, 2, 2)
	saver := &saverStub{err: ErrPersistence}
	ctrl := NewController(context.Background(), bank.QuizID, model.Identity{}, &bankStub{bank: bank}, nil, saver, Options{
		Settings:  Settings{QuestionCount: 2, SecondsPerQuestion: 60},
		Scheduler: &manualScheduler{},
		Rand:      testRand(),
		Log:       zerolog.Nop(),
	})

	_, err := ctrl.Start()
	require.NoError(t, err)
	for range 2 {
		_, err = ctrl.Select("A")
		require.NoError(t, err)
		_, err = ctrl.Submit()
		require.NoError(t, err)
		_, err = ctrl.Next()
		require.NoError(t, err)
	}

	s := ctrl.State()
	assert.Equal(t, PhaseCompleted, s.Phase)
	assert.Equal(t, PersistFailed, s.Persistence)
	require.ErrorIs(t, s.PersistErr, ErrPersistence)
	assert.Equal(t, 100.0, s.Result.Score)

	v := NewView(s)
	assert.NotEmpty(t, v.PersistError)
	assert.Nil(t, v.Question)
}

func TestController_NextBeforeSubmit(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), nil)
	_, err := h.ctrl.Start()
	require.NoError(t, err)

	_, err = h.ctrl.Next()
	require.ErrorIs(t, err, ErrNextNotReady)

	_, err = h.ctrl.Select("nope")
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestController_AbandonCancelsTimer(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), nil)
	_, err := h.ctrl.Start()
	require.NoError(t, err)
	require.Equal(t, 1, h.sched.Armed())

	s := h.ctrl.Abandon()
	assert.Equal(t, PhaseAbandoned, s.Phase)
	assert.Zero(t, h.sched.Armed())

	_, err = h.ctrl.Submit()
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestController_Subscribe(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), nil)
	updates, cancel := h.ctrl.Subscribe()
	defer cancel()

	first := <-updates
	assert.Equal(t, PhaseLoading, first.Phase)

	_, err := h.ctrl.Start()
	require.NoError(t, err)

	var last State
	for {
		select {
		case last = <-updates:
			continue
		default:
		}
		break
	}
	assert.Equal(t, PhasePresenting, last.Phase)

	cancel()
	_, ok := <-updates
	assert.False(t, ok)
}

func TestView_HidesCorrectAnswerUntilFeedback(t *testing.T) {
	h := newHarness(t, makeBank(3, 3, 3), nil)
	s, err := h.ctrl.Start()
	require.NoError(t, err)

	v := NewView(s)
	require.NotNil(t, v.Question)
	assert.Nil(t, v.Feedback)
	assert.False(t, v.NextReady)
	assert.Empty(t, v.NextTier)

	s, err = h.ctrl.Submit()
	require.NoError(t, err)
	v = NewView(s)
	require.NotNil(t, v.Feedback)
	assert.Equal(t, "A", v.Feedback.CorrectAnswer)
	assert.True(t, v.NextReady)
	assert.Equal(t, s.SessionID, v.SessionID)
}
