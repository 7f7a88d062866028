package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/importer"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatedDocument = "```json\n" + `{
  "easy": [{"question": "2 + 2 = ?", "choices": ["3", "4", "5", "6"], "correct_answer": "4"}],
  "medium": [
    {"question": "12 x 12 = ?", "choices": ["124", "144", "132", "154"], "correct_answer": "144"},
    {"question": "Akar dari 81?", "choices": ["7", "8", "9", "10"], "correct_answer": "9"}
  ],
  "hard": []
}` + "\n```"

func newQuizFixture() (*QuizService, *memQuizStore, *memStats) {
	quizzes := newMemQuizStore()
	stats := newMemStats()
	banks := NewBankService(quizzes, &memQuestionStore{bank: makeBank(1)}, nil, zerolog.Nop())
	return NewQuizService(quizzes, &memQuestionStore{bank: makeBank(1)}, stats, banks, zerolog.Nop()), quizzes, stats
}

func TestQuizService_Import(t *testing.T) {
	svc, quizzes, _ := newQuizFixture()

	detail, err := svc.Import(context.Background(), model.ImportQuizRequest{Title: "  Matematika Dasar ", Document: generatedDocument})
	require.NoError(t, err)

	assert.Equal(t, "Matematika Dasar", detail.Title)
	assert.Equal(t, 3, detail.TotalQuestions)
	assert.Equal(t, map[model.Tier]int{model.TierEasy: 1, model.TierMedium: 2, model.TierHard: 0}, detail.TierCounts)

	require.Len(t, quizzes.created, 1)
	for _, q := range quizzes.created[0] {
		assert.Equal(t, detail.ID, q.QuizID)
		assert.True(t, q.Valid())
	}
}

func TestQuizService_ImportRejectsInvalidDocument(t *testing.T) {
	svc, quizzes, _ := newQuizFixture()

	_, err := svc.Import(context.Background(), model.ImportQuizRequest{Title: "Rusak", Document: `{"easy": []}`})
	assert.ErrorIs(t, err, importer.ErrInvalidDocument)
	assert.Empty(t, quizzes.created)
}

func TestQuizService_StatisticsDefaultsToZero(t *testing.T) {
	svc, quizzes, stats := newQuizFixture()
	ctx := context.Background()
	qz := model.Quiz{ID: uuid.New(), Title: "Ekosistem"}
	quizzes.quizzes[qz.ID] = qz

	st, err := svc.Statistics(ctx, qz.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalAttempts)
	assert.Equal(t, "Ekosistem", st.QuizTitle)

	_, err = stats.Apply(ctx, qz.ID, model.StatsUpdate{QuizID: qz.ID, QuizTitle: qz.Title, Score: 80, At: time.Now()})
	require.NoError(t, err)
	st, err = svc.Statistics(ctx, qz.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalAttempts)

	_, err = svc.Statistics(ctx, uuid.New())
	assert.ErrorIs(t, err, quiz.ErrNotFound)
}

func TestQuizService_GetAndDelete(t *testing.T) {
	svc, quizzes, _ := newQuizFixture()
	ctx := context.Background()
	qz := model.Quiz{ID: uuid.New(), Title: "Listrik Statis"}
	quizzes.quizzes[qz.ID] = qz

	detail, err := svc.Get(ctx, qz.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.TierCounts[model.TierHard])

	qs, err := svc.Questions(ctx, qz.ID, model.TierEasy)
	require.NoError(t, err)
	assert.Len(t, qs, 1)

	require.NoError(t, svc.Delete(ctx, qz.ID))
	_, err = svc.Get(ctx, qz.ID)
	assert.ErrorIs(t, err, quiz.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, qz.ID), quiz.ErrNotFound)
}
