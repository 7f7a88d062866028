package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuestionBankKey returns the cache key for a quiz's assembled question bank
func (r *CacheKeyStruct) QuestionBankKey(quizID uuid.UUID) string {
	return fmt.Sprintf("quiz:%s:bank", quizID)
}

// UserActiveSessionKey returns the cache key for a user's in-progress attempt
func (r *CacheKeyStruct) UserActiveSessionKey(userID string) string {
	return fmt.Sprintf("user:%s:active_session", userID)
}

// SessionStartRateKey returns the rate limit key for session starts from one client
func (r *CacheKeyStruct) SessionStartRateKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:session_start:%s", clientIP)
}

var CacheKey = NewCacheKeyStruct()
