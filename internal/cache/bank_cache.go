// Package cache holds the Redis-backed caches and markers of the quiz service.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/smartquiz-backend/internal/config"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// BankCache stores assembled question banks as JSON.
type BankCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewBankCache creates a BankCache whose entries expire after ttl.
func NewBankCache(rdb *redis.Client, ttl time.Duration) *BankCache {
	return &BankCache{rdb: rdb, ttl: ttl}
}

// Get returns (nil, nil) on a miss.
func (c *BankCache) Get(ctx context.Context, quizID uuid.UUID) (*model.QuestionBank, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.QuestionBankKey(quizID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bank: %w", err)
	}

	var bank model.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	return &bank, nil
}

// Set caches bank under its quiz id.
func (c *BankCache) Set(ctx context.Context, bank *model.QuestionBank) error {
	raw, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("encode bank: %w", err)
	}
	if err := c.rdb.Set(ctx, config.CacheKey.QuestionBankKey(bank.QuizID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set bank: %w", err)
	}
	return nil
}

// Invalidate drops the cached bank of quizID.
func (c *BankCache) Invalidate(ctx context.Context, quizID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.QuestionBankKey(quizID)).Err()
}
