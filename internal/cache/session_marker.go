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
)

// ActiveSession is the marker of a user's in-progress attempt.
type ActiveSession struct {
	SessionID uuid.UUID `json:"session_id"`
	QuizID    uuid.UUID `json:"quiz_id"`
	QuizTitle string    `json:"quiz_title"`
	StartedAt time.Time `json:"started_at"`
}

// clearIfOwner deletes the marker only when it still names the given session,
// so a finished attempt cannot clear the marker of a newer one.
var clearIfOwner = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then return 0 end
local ok, marker = pcall(cjson.decode, raw)
if ok and marker.session_id == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionMarker tracks the active attempt of each user.
type SessionMarker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionMarker creates a SessionMarker. ttl bounds how long a marker
// outlives a server that died without clearing it.
func NewSessionMarker(rdb *redis.Client, ttl time.Duration) *SessionMarker {
	return &SessionMarker{rdb: rdb, ttl: ttl}
}

// Set records s as the active attempt of userID, returning the marker it replaced.
func (m *SessionMarker) Set(ctx context.Context, userID string, s ActiveSession) (*ActiveSession, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode marker: %w", err)
	}

	prevRaw, err := m.rdb.SetArgs(ctx, config.CacheKey.UserActiveSessionKey(userID), raw, redis.SetArgs{
		TTL: m.ttl,
		Get: true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set marker: %w", err)
	}

	var prev ActiveSession
	if err := json.Unmarshal([]byte(prevRaw), &prev); err != nil {
		return nil, nil
	}
	return &prev, nil
}

// Get returns (nil, nil) when the user has no active attempt.
func (m *SessionMarker) Get(ctx context.Context, userID string) (*ActiveSession, error) {
	raw, err := m.rdb.Get(ctx, config.CacheKey.UserActiveSessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get marker: %w", err)
	}

	var s ActiveSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode marker: %w", err)
	}
	return &s, nil
}

// Clear removes the marker of userID if it still points at sessionID.
func (m *SessionMarker) Clear(ctx context.Context, userID string, sessionID uuid.UUID) (bool, error) {
	n, err := clearIfOwner.Run(ctx, m.rdb, []string{config.CacheKey.UserActiveSessionKey(userID)}, sessionID.String()).Int()
	if err != nil {
		return false, fmt.Errorf("clear marker: %w", err)
	}
	return n == 1, nil
}
