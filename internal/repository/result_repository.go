package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/smartquiz-backend/internal/database"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// resultDetails is the JSONB part of a stored result.
type resultDetails struct {
	DifficultyDistribution  map[model.Tier]int                   `json:"difficulty_distribution"`
	PerformanceByDifficulty map[model.Tier]model.TierPerformance `json:"performance_by_difficulty"`
	DifficultyTransitions   []model.TierTransition               `json:"difficulty_transitions"`
	TimeDistribution        model.TimeDistribution               `json:"time_distribution"`
	Answers                 []model.AnswerRecord                 `json:"answers_detail"`
}

// ResultRepository stores completed sessions and the per-user history.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveWithHistory writes a result and, for attributed results, its history
// entry in one transaction. Writing the same session twice is a no-op, so
// the call can be retried after an ambiguous failure.
func (r *ResultRepository) SaveWithHistory(ctx context.Context, res *model.SessionResult) error {
	details, err := json.Marshal(resultDetails{
		DifficultyDistribution:  res.DifficultyDistribution,
		PerformanceByDifficulty: res.PerformanceByDifficulty,
		DifficultyTransitions:   res.DifficultyTransitions,
		TimeDistribution:        res.TimeDistribution,
		Answers:                 res.Answers,
	})
	if err != nil {
		return fmt.Errorf("marshal result details: %w", err)
	}
	distribution, err := json.Marshal(res.DifficultyDistribution)
	if err != nil {
		return fmt.Errorf("marshal distribution: %w", err)
	}

	err = database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`INSERT INTO quiz_results (id, session_id, user_id, user_name, user_email, quiz_id, quiz_title,
			     score, total_questions, correct_answers, incorrect_answers, average_time, details, completed_at)
			 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 ON CONFLICT (session_id) DO NOTHING`,
			res.ID, res.SessionID, res.UserID, res.UserName, res.UserEmail, res.QuizID, res.QuizTitle,
			res.Score, res.TotalQuestions, res.CorrectAnswers, res.IncorrectAnswers, res.AverageTimePerQuestion,
			details, res.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		if tag.RowsAffected() == 0 || res.Anonymous() {
			return nil
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO quiz_history (user_id, result_id, quiz_id, quiz_title, score, difficulty_distribution, completed_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (result_id) DO NOTHING`,
			res.UserID, res.ID, res.QuizID, res.QuizTitle, res.Score, distribution, res.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		return nil
	})
	return mapError(err)
}

// GetByID returns a stored result.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SessionResult, error) {
	var (
		res                 model.SessionResult
		userID, name, email *string
		details             []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, user_id, user_name, user_email, quiz_id, quiz_title, score,
		     total_questions, correct_answers, incorrect_answers, average_time, details, completed_at
		 FROM quiz_results WHERE id = $1`, id,
	).Scan(&res.ID, &res.SessionID, &userID, &name, &email, &res.QuizID, &res.QuizTitle, &res.Score,
		&res.TotalQuestions, &res.CorrectAnswers, &res.IncorrectAnswers, &res.AverageTimePerQuestion,
		&details, &res.CompletedAt)
	if err != nil {
		return nil, mapError(err)
	}

	res.UserID = deref(userID)
	res.UserName = deref(name)
	res.UserEmail = deref(email)

	var d resultDetails
	if err := json.Unmarshal(details, &d); err != nil {
		return nil, fmt.Errorf("decode result details: %w", err)
	}
	res.DifficultyDistribution = d.DifficultyDistribution
	res.PerformanceByDifficulty = d.PerformanceByDifficulty
	res.DifficultyTransitions = d.DifficultyTransitions
	res.TimeDistribution = d.TimeDistribution
	res.Answers = d.Answers
	return &res, nil
}

// ListHistory returns a page of a user's history, newest first, and the total count.
func (r *ResultRepository) ListHistory(ctx context.Context, userID string, limit, offset int) ([]model.HistoryEntry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quiz_history WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, result_id, quiz_id, quiz_title, score, difficulty_distribution, completed_at
		 FROM quiz_history WHERE user_id = $1
		 ORDER BY completed_at DESC
		 LIMIT $2 OFFSET $3`, userID, limit, offset,
	)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var (
			e            model.HistoryEntry
			distribution []byte
			completedAt  time.Time
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.ResultID, &e.QuizID, &e.QuizTitle, &e.Score, &distribution, &completedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(distribution, &e.DifficultyDistribution); err != nil {
			return nil, 0, fmt.Errorf("decode distribution: %w", err)
		}
		e.CompletedAt = completedAt
		entries = append(entries, e)
	}
	return entries, total, mapError(rows.Err())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
