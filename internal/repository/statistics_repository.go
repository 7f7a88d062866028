package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
)

// StatisticsRepository maintains the advisory per-quiz aggregate.
type StatisticsRepository struct {
	pool *pgxpool.Pool
}

// NewStatisticsRepository creates a new StatisticsRepository.
func NewStatisticsRepository(pool *pgxpool.Pool) *StatisticsRepository {
	return &StatisticsRepository{pool: pool}
}

// Get returns quiz.ErrNotFound when the quiz has no attempts yet.
func (r *StatisticsRepository) Get(ctx context.Context, quizID uuid.UUID) (*model.QuizStatistics, error) {
	var s model.QuizStatistics
	err := r.pool.QueryRow(ctx,
		`SELECT quiz_id, quiz_title, total_attempts, total_score, average_score, created_at, last_attempt_at
		 FROM quiz_statistics WHERE quiz_id = $1`, quizID,
	).Scan(&s.QuizID, &s.QuizTitle, &s.TotalAttempts, &s.TotalScore, &s.AverageScore, &s.CreatedAt, &s.LastAttemptAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// Apply folds attempts of one quiz into its aggregate as a read followed by
// a write. Concurrent callers for the same quiz can lose updates; the
// statistics worker is the only caller in normal operation.
func (r *StatisticsRepository) Apply(ctx context.Context, quizID uuid.UUID, upds ...model.StatsUpdate) (*model.QuizStatistics, error) {
	prev, err := r.Get(ctx, quizID)
	if err != nil && !errors.Is(err, quiz.ErrNotFound) {
		return nil, fmt.Errorf("read statistics: %w", err)
	}
	if len(upds) == 0 {
		return prev, nil
	}

	var next model.QuizStatistics
	for _, upd := range upds {
		upd.QuizID = quizID
		next = quiz.FoldAttempt(prev, upd)
		prev = &next
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO quiz_statistics (quiz_id, quiz_title, total_attempts, total_score, average_score, created_at, last_attempt_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (quiz_id) DO UPDATE SET
		     quiz_title = EXCLUDED.quiz_title,
		     total_attempts = EXCLUDED.total_attempts,
		     total_score = EXCLUDED.total_score,
		     average_score = EXCLUDED.average_score,
		     last_attempt_at = EXCLUDED.last_attempt_at`,
		next.QuizID, next.QuizTitle, next.TotalAttempts, next.TotalScore, next.AverageScore, next.CreatedAt, next.LastAttemptAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &next, nil
}
