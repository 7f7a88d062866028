package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByTier retrieves the questions of one tier of a quiz, ordered by order_num.
func (r *QuestionRepository) ListByTier(ctx context.Context, quizID uuid.UUID, tier model.Tier) ([]model.Question, error) {
	return r.list(ctx,
		`SELECT id, quiz_id, difficulty, question_text, choices, correct_answer, order_num
		 FROM questions WHERE quiz_id = $1 AND difficulty = $2
		 ORDER BY order_num`, quizID, string(tier),
	)
}

// ListByQuiz retrieves every question of a quiz grouped by tier.
func (r *QuestionRepository) ListByQuiz(ctx context.Context, quizID uuid.UUID) ([]model.Question, error) {
	return r.list(ctx,
		`SELECT id, quiz_id, difficulty, question_text, choices, correct_answer, order_num
		 FROM questions WHERE quiz_id = $1
		 ORDER BY CASE difficulty WHEN 'easy' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, order_num`, quizID,
	)
}

func (r *QuestionRepository) list(ctx context.Context, sql string, args ...any) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var q model.Question
		var tier string
		if err := rows.Scan(&q.ID, &q.QuizID, &tier, &q.Text, &q.Choices, &q.CorrectAnswer, &q.OrderNum); err != nil {
			return nil, err
		}
		q.Tier = model.Tier(tier)
		questions = append(questions, q)
	}
	return questions, mapError(rows.Err())
}
