package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/importer"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
)

// QuizService manages imported quizzes.
type QuizService struct {
	quizzes   QuizStore
	questions QuestionStore
	stats     StatsStore
	banks     *BankService
	log       zerolog.Logger
}

// NewQuizService creates a QuizService.
func NewQuizService(quizzes QuizStore, questions QuestionStore, stats StatsStore, banks *BankService, log zerolog.Logger) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		questions: questions,
		stats:     stats,
		banks:     banks,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
}

// List returns every quiz, newest first.
func (s *QuizService) List(ctx context.Context) ([]model.Quiz, error) {
	quizzes, err := s.quizzes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

// Get returns a quiz with its per-tier question counts.
func (s *QuizService) Get(ctx context.Context, id uuid.UUID) (*model.QuizDetail, error) {
	qz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.quizzes.TierCounts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	return &model.QuizDetail{Quiz: *qz, TierCounts: counts}, nil
}

// Questions returns the questions of a quiz, optionally limited to one tier.
// Correct answers are included; callers must restrict this to admins.
func (s *QuizService) Questions(ctx context.Context, id uuid.UUID, tier model.Tier) ([]model.Question, error) {
	if _, err := s.quizzes.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if tier != "" {
		return s.questions.ListByTier(ctx, id, tier)
	}
	return s.questions.ListByQuiz(ctx, id)
}

// Import validates a generated quiz document and stores it as a new quiz.
func (s *QuizService) Import(ctx context.Context, req model.ImportQuizRequest) (*model.QuizDetail, error) {
	doc, err := importer.Parse(req.Document)
	if err != nil {
		return nil, err
	}

	qz := &model.Quiz{ID: uuid.New(), Title: strings.TrimSpace(req.Title)}
	questions := doc.Questions(qz.ID)
	if err := s.quizzes.CreateWithQuestions(ctx, qz, questions); err != nil {
		return nil, fmt.Errorf("store quiz: %w", err)
	}

	counts := make(map[model.Tier]int, len(model.Tiers))
	for _, t := range model.Tiers {
		counts[t] = len(doc.Tier(t))
	}

	s.log.Info().
		Str("quiz_id", qz.ID.String()).
		Str("title", qz.Title).
		Int("questions", len(questions)).
		Msg("Quiz imported")

	return &model.QuizDetail{Quiz: *qz, TierCounts: counts}, nil
}

// Delete removes a quiz and drops its cached bank. Sessions already running
// keep the bank they loaded.
func (s *QuizService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.quizzes.Delete(ctx, id); err != nil {
		return err
	}
	if s.banks != nil {
		s.banks.Invalidate(ctx, id)
	}
	s.log.Info().Str("quiz_id", id.String()).Msg("Quiz deleted")
	return nil
}

// Statistics returns the aggregate of a quiz. A quiz nobody has finished yet
// reports zero attempts.
func (s *QuizService) Statistics(ctx context.Context, id uuid.UUID) (*model.QuizStatistics, error) {
	qz, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	st, err := s.stats.Get(ctx, id)
	if errors.Is(err, quiz.ErrNotFound) {
		return &model.QuizStatistics{QuizID: qz.ID, QuizTitle: qz.Title}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load statistics: %w", err)
	}
	return st, nil
}
