package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/cache"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// QuizStore is the quiz metadata table.
type QuizStore interface {
	List(ctx context.Context) ([]model.Quiz, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	TierCounts(ctx context.Context, id uuid.UUID) (map[model.Tier]int, error)
	CreateWithQuestions(ctx context.Context, q *model.Quiz, questions []model.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// QuestionStore reads questions.
type QuestionStore interface {
	ListByTier(ctx context.Context, quizID uuid.UUID, tier model.Tier) ([]model.Question, error)
	ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error)
}

// ResultStore holds results and history.
type ResultStore interface {
	SaveWithHistory(ctx context.Context, res *model.SessionResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SessionResult, error)
	ListHistory(ctx context.Context, userID string, limit, offset int) ([]model.HistoryEntry, int, error)
}

// StatsStore holds the per-quiz aggregate.
type StatsStore interface {
	Get(ctx context.Context, quizID uuid.UUID) (*model.QuizStatistics, error)
	Apply(ctx context.Context, quizID uuid.UUID, upds ...model.StatsUpdate) (*model.QuizStatistics, error)
}

// StatsQueue hands aggregate updates to the statistics worker.
type StatsQueue interface {
	Enqueue(ctx context.Context, upd model.StatsUpdate) error
}

// BankCache caches assembled question banks.
type BankCache interface {
	Get(ctx context.Context, quizID uuid.UUID) (*model.QuestionBank, error)
	Set(ctx context.Context, bank *model.QuestionBank) error
	Invalidate(ctx context.Context, quizID uuid.UUID) error
}

// SessionMarker records each user's active attempt.
type SessionMarker interface {
	Set(ctx context.Context, userID string, s cache.ActiveSession) (*cache.ActiveSession, error)
	Get(ctx context.Context, userID string) (*cache.ActiveSession, error)
	Clear(ctx context.Context, userID string, sessionID uuid.UUID) (bool, error)
}
