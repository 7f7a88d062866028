package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/config"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
)

const (
	StatsBatchSize    = 50
	StatsBatchTimeout = 2 * time.Second
	StatsPollTimeout  = 1 * time.Second
	StatsMaxAttempts  = 5
)

// StatsApplier folds attempts into the aggregate of one quiz.
type StatsApplier interface {
	Apply(ctx context.Context, quizID uuid.UUID, upds ...model.StatsUpdate) (*model.QuizStatistics, error)
}

// StatsWorker is the single consumer of the statistics queue, which keeps
// read-modify-write updates of the same quiz from racing each other.
type StatsWorker struct {
	stats StatsApplier
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewStatsWorker(stats StatsApplier, rdb *redis.Client, log zerolog.Logger) *StatsWorker {
	return &StatsWorker{
		stats: stats,
		rdb:   rdb,
		log:   log.With().Str("component", "stats_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *StatsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("StatsWorker started")

	batch := make([]model.StatsUpdate, 0, StatsBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= StatsBatchSize || time.Since(lastFlush) >= StatsBatchTimeout) {

			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flush(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, StatsPollTimeout, config.WorkerKey.QuizStatsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
					time.Sleep(StatsPollTimeout)
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var upd model.StatsUpdate
			if err := json.Unmarshal([]byte(item[1]), &upd); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, upd)
		}
	}
}

// ----------------------------------------------------------------
// Per-quiz fold with requeue on failure
// ----------------------------------------------------------------

// flush applies a batch one quiz at a time. Updates of a quiz whose write
// fails go back to the queue until they have failed StatsMaxAttempts times.
// Integrity violations (the quiz was deleted meanwhile) are dropped at once.
func (w *StatsWorker) flush(ctx context.Context, batch []model.StatsUpdate) {
	if len(batch) == 0 {
		return
	}

	order := make([]uuid.UUID, 0)
	byQuiz := make(map[uuid.UUID][]model.StatsUpdate)
	for _, upd := range batch {
		if _, seen := byQuiz[upd.QuizID]; !seen {
			order = append(order, upd.QuizID)
		}
		byQuiz[upd.QuizID] = append(byQuiz[upd.QuizID], upd)
	}

	for _, quizID := range order {
		upds := byQuiz[quizID]
		stats, err := w.stats.Apply(ctx, quizID, upds...)
		if err != nil {
			w.retry(ctx, quizID, upds, err)
			continue
		}
		w.log.Debug().
			Str("quiz_id", quizID.String()).
			Int("total_attempts", stats.TotalAttempts).
			Float64("average_score", stats.AverageScore).
			Msg("Statistics updated")
	}
}

func (w *StatsWorker) retry(ctx context.Context, quizID uuid.UUID, upds []model.StatsUpdate, err error) {
	log := w.log.With().Err(err).Str("quiz_id", quizID.String()).Logger()

	if errors.Is(err, quiz.ErrIntegrity) {
		log.Error().Int("dropped", len(upds)).Msg("Statistics update rejected by the database, dropping")
		return
	}

	again := make([]model.StatsUpdate, 0, len(upds))
	dropped := 0
	for _, upd := range upds {
		upd.Attempts++
		if upd.Attempts >= StatsMaxAttempts {
			dropped++
			continue
		}
		again = append(again, upd)
	}
	if dropped > 0 {
		log.Error().Int("dropped", dropped).Int("max_attempts", StatsMaxAttempts).Msg("Statistics update failed too often, dropping")
	}
	if len(again) > 0 {
		log.Warn().Int("updates", len(again)).Msg("Statistics update failed, requeueing")
		w.requeue(ctx, again)
	}
}

func (w *StatsWorker) requeue(ctx context.Context, upds []model.StatsUpdate) {
	pipe := w.rdb.Pipeline()
	for _, upd := range upds {
		raw, err := json.Marshal(upd)
		if err != nil {
			continue
		}
		pipe.RPush(ctx, config.WorkerKey.QuizStatsQueue, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("lost", len(upds)).Msg("Requeue failed")
	}
}
