package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
)

// RetryPolicy bounds the attempts of the primary result write.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy waits 300ms then 900ms between three attempts.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 300 * time.Millisecond, Multiplier: 3}

// Delay is the wait after the given failed attempt, counting from 1.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ResultService persists completed sessions and serves history.
type ResultService struct {
	results ResultStore
	stats   StatsStore
	queue   StatsQueue
	policy  RetryPolicy
	sleep   func(ctx context.Context, d time.Duration) error
	log     zerolog.Logger
}

// NewResultService creates a ResultService. queue may be nil, in which case
// the aggregate is updated inline.
func NewResultService(results ResultStore, stats StatsStore, queue StatsQueue, policy RetryPolicy, log zerolog.Logger) *ResultService {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	return &ResultService{
		results: results,
		stats:   stats,
		queue:   queue,
		policy:  policy,
		sleep:   sleepCtx,
		log:     log.With().Str("component", "result_service").Logger(),
	}
}

// Save writes the result and its history entry, retrying per the policy.
// Permission failures are returned at once; integrity violations (the quiz
// was deleted mid-attempt) are not retried. After the write succeeds the
// quiz aggregate is updated on a best-effort basis.
func (s *ResultService) Save(ctx context.Context, res model.SessionResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	log := s.log.With().Str("result_id", res.ID.String()).Str("quiz_id", res.QuizID.String()).Logger()

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		attempts = attempt
		lastErr = s.results.SaveWithHistory(ctx, &res)
		if lastErr == nil {
			break
		}
		if errors.Is(lastErr, quiz.ErrPermissionDenied) {
			log.Error().Err(lastErr).Msg("Result write denied")
			return lastErr
		}
		if errors.Is(lastErr, quiz.ErrIntegrity) {
			break
		}
		if attempt == s.policy.MaxAttempts {
			break
		}

		wait := s.policy.Delay(attempt)
		log.Warn().Err(lastErr).Int("attempt", attempt).Dur("retry_in", wait).Msg("Result write failed, retrying")
		if err := s.sleep(ctx, wait); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}
	if lastErr != nil {
		log.Error().Err(lastErr).Int("attempts", attempts).Msg("Result not persisted")
		return fmt.Errorf("%w after %d attempts: %w", quiz.ErrPersistence, attempts, lastErr)
	}

	log.Info().Float64("score", res.Score).Bool("anonymous", res.Anonymous()).Int("attempts", attempts).Msg("Result persisted")
	s.updateStatistics(ctx, res)
	return nil
}

func (s *ResultService) updateStatistics(ctx context.Context, res model.SessionResult) {
	upd := model.StatsUpdate{QuizID: res.QuizID, QuizTitle: res.QuizTitle, Score: res.Score, At: res.CompletedAt}

	if s.queue != nil {
		err := s.queue.Enqueue(ctx, upd)
		if err == nil {
			return
		}
		s.log.Warn().Err(err).Str("quiz_id", res.QuizID.String()).Msg("Stats enqueue failed, updating inline")
	}

	if _, err := s.stats.Apply(ctx, res.QuizID, upd); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", res.QuizID.String()).Msg("Statistics update dropped")
	}
}

// History returns a page of userID's attempts, newest first.
func (s *ResultService) History(ctx context.Context, userID string, page, perPage int) ([]model.HistoryEntry, int, error) {
	return s.results.ListHistory(ctx, userID, perPage, (page-1)*perPage)
}

// Result returns one of userID's results. Results of other users are
// reported as not found.
func (s *ResultService) Result(ctx context.Context, userID string, resultID uuid.UUID) (*model.SessionResult, error) {
	res, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, quiz.ErrNotFound
	}
	return res, nil
}
