package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/smartquiz-backend/internal/database"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
)

// QuizRepository handles quiz metadata access.
type QuizRepository struct {
	pool *pgxpool.Pool
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(pool *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{pool: pool}
}

// List returns quizzes newest first.
func (r *QuizRepository) List(ctx context.Context) ([]model.Quiz, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, total_questions, created_at, updated_at
		 FROM quizzes ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	quizzes := []model.Quiz{}
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.TotalQuestions, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, mapError(rows.Err())
}

// GetByID returns quiz.ErrNotFound for unknown ids.
func (r *QuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	var q model.Quiz
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, total_questions, created_at, updated_at FROM quizzes WHERE id = $1`, id,
	).Scan(&q.ID, &q.Title, &q.TotalQuestions, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &q, nil
}

// TierCounts returns the number of questions per tier, zero for empty tiers.
func (r *QuizRepository) TierCounts(ctx context.Context, id uuid.UUID) (map[model.Tier]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT difficulty, COUNT(*) FROM questions WHERE quiz_id = $1 GROUP BY difficulty`, id,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	counts := make(map[model.Tier]int, len(model.Tiers))
	for _, t := range model.Tiers {
		counts[t] = 0
	}
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, err
		}
		counts[model.Tier(tier)] = n
	}
	return counts, mapError(rows.Err())
}

// CreateWithQuestions inserts a quiz and all its questions atomically.
func (r *QuizRepository) CreateWithQuestions(ctx context.Context, q *model.Quiz, questions []model.Question) error {
	err := database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO quizzes (id, title, total_questions)
			 VALUES ($1, $2, $3)
			 RETURNING created_at, updated_at`,
			q.ID, q.Title, len(questions),
		).Scan(&q.CreatedAt, &q.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		q.TotalQuestions = len(questions)

		rows := make([][]any, 0, len(questions))
		for _, qs := range questions {
			rows = append(rows, []any{qs.ID, q.ID, string(qs.Tier), qs.Text, qs.Choices, qs.CorrectAnswer, qs.OrderNum})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"questions"},
			[]string{"id", "quiz_id", "difficulty", "question_text", "choices", "correct_answer", "order_num"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy questions: %w", err)
		}
		return nil
	})
	return mapError(err)
}

// Delete removes a quiz; questions and results cascade.
func (r *QuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return quiz.ErrNotFound
	}
	return nil
}
