package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/smartquiz-backend/internal/config"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// StatsQueue is the producer side of the statistics queue.
type StatsQueue struct {
	rdb *redis.Client
}

// NewStatsQueue creates a StatsQueue.
func NewStatsQueue(rdb *redis.Client) *StatsQueue {
	return &StatsQueue{rdb: rdb}
}

// Enqueue schedules upd for the statistics worker.
func (q *StatsQueue) Enqueue(ctx context.Context, upd model.StatsUpdate) error {
	raw, err := json.Marshal(upd)
	if err != nil {
		return fmt.Errorf("encode stats update: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.QuizStatsQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue stats update: %w", err)
	}
	return nil
}
