package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"golang.org/x/sync/errgroup"
)

// BankService assembles the three-tier question bank of a quiz.
type BankService struct {
	quizzes   QuizStore
	questions QuestionStore
	cache     BankCache
	log       zerolog.Logger
}

// NewBankService creates a BankService. cache may be nil.
func NewBankService(quizzes QuizStore, questions QuestionStore, cache BankCache, log zerolog.Logger) *BankService {
	return &BankService{
		quizzes:   quizzes,
		questions: questions,
		cache:     cache,
		log:       log.With().Str("component", "bank_service").Logger(),
	}
}

// Load returns the bank of quizID, or quiz.ErrNotFound. Tiers may be empty.
func (s *BankService) Load(ctx context.Context, quizID uuid.UUID) (*model.QuestionBank, error) {
	if s.cache != nil {
		bank, err := s.cache.Get(ctx, quizID)
		if err != nil {
			s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Bank cache read failed")
		} else if bank != nil {
			return bank, nil
		}
	}

	qz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("load quiz %s: %w", quizID, err)
	}

	tiers := make([][]model.Question, len(model.Tiers))
	g, gctx := errgroup.WithContext(ctx)
	for i, tier := range model.Tiers {
		g.Go(func() error {
			qs, err := s.questions.ListByTier(gctx, quizID, tier)
			if err != nil {
				return fmt.Errorf("load %s questions: %w", tier, err)
			}
			tiers[i] = qs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bank := model.NewQuestionBank(qz.ID, qz.Title)
	for i, tier := range model.Tiers {
		for _, q := range tiers[i] {
			if !q.Valid() {
				s.log.Warn().Str("quiz_id", quizID.String()).Str("question_id", q.ID.String()).Msg("Skipping malformed question")
				continue
			}
			bank.Tiers[tier] = append(bank.Tiers[tier], q)
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, bank); err != nil {
			s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Bank cache write failed")
		}
	}

	s.log.Debug().
		Str("quiz_id", quizID.String()).
		Int("easy", bank.Count(model.TierEasy)).
		Int("medium", bank.Count(model.TierMedium)).
		Int("hard", bank.Count(model.TierHard)).
		Msg("Question bank loaded")

	return bank, nil
}

// Invalidate drops any cached bank of quizID.
func (s *BankService) Invalidate(ctx context.Context, quizID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, quizID); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Bank cache invalidation failed")
	}
}
