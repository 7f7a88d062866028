package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TierPerformance aggregates the answers given in one tier.
type TierPerformance struct {
	Total   int     `json:"total"`
	Correct int     `json:"correct"`
	AvgTime float64 `json:"avg_time"`
}

// TierTransition records a move between consecutive questions.
type TierTransition struct {
	From         Tier `json:"from"`
	To           Tier `json:"to"`
	AfterCorrect bool `json:"after_correct"`
}

// TimeDistribution buckets answers by response time.
type TimeDistribution struct {
	Under10s int `json:"under_10s"`
	Under30s int `json:"under_30s"`
	Under60s int `json:"under_60s"`
	Timeout  int `json:"timeout"`
}

// SessionResult is computed once when a session completes and written once.
type SessionResult struct {
	ID                      uuid.UUID                `json:"id"`
	SessionID               uuid.UUID                `json:"session_id"`
	UserID                  string                   `json:"user_id,omitempty"`
	UserName                string                   `json:"user_name,omitempty"`
	UserEmail               string                   `json:"user_email,omitempty"`
	QuizID                  uuid.UUID                `json:"quiz_id"`
	QuizTitle               string                   `json:"quiz_title"`
	Score                   float64                  `json:"score"`
	TotalQuestions          int                      `json:"total_questions"`
	CorrectAnswers          int                      `json:"correct_answers"`
	IncorrectAnswers        int                      `json:"incorrect_answers"`
	DifficultyDistribution  map[Tier]int             `json:"difficulty_distribution"`
	PerformanceByDifficulty map[Tier]TierPerformance `json:"performance_by_difficulty"`
	DifficultyTransitions   []TierTransition         `json:"difficulty_transitions"`
	AverageTimePerQuestion  float64                  `json:"average_time_per_question"`
	TimeDistribution        TimeDistribution         `json:"time_distribution"`
	Answers                 []AnswerRecord           `json:"answers_detail"`
	CompletedAt             time.Time                `json:"completed_at"`
}

// DisplayScore is the score rounded for presentation only.
func (r *SessionResult) DisplayScore() int {
	return int(math.Round(r.Score))
}

// Anonymous reports whether the result has no user attribution.
func (r *SessionResult) Anonymous() bool {
	return r.UserID == ""
}

// HistoryEntry is the lightweight per-user reference to a SessionResult.
type HistoryEntry struct {
	ID                     uuid.UUID    `json:"id"`
	UserID                 string       `json:"user_id"`
	ResultID               uuid.UUID    `json:"result_id"`
	QuizID                 uuid.UUID    `json:"quiz_id"`
	QuizTitle              string       `json:"quiz_title"`
	Score                  float64      `json:"score"`
	DifficultyDistribution map[Tier]int `json:"difficulty_distribution"`
	CompletedAt            time.Time    `json:"completed_at"`
}

// QuizStatistics is the advisory running aggregate for one quiz.
type QuizStatistics struct {
	QuizID        uuid.UUID `json:"quiz_id"`
	QuizTitle     string    `json:"quiz_title"`
	TotalAttempts int       `json:"total_attempts"`
	TotalScore    float64   `json:"total_score"`
	AverageScore  float64   `json:"average_score"`
	CreatedAt     time.Time `json:"created_at"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
}

// StatsUpdate is one finished attempt to fold into QuizStatistics.
type StatsUpdate struct {
	QuizID    uuid.UUID `json:"quiz_id"`
	QuizTitle string    `json:"quiz_title"`
	Score     float64   `json:"score"`
	At        time.Time `json:"at"`
	// Attempts counts failed applies; the statistics worker drops the update
	// once it reaches its limit.
	Attempts int `json:"attempts,omitempty"`
}
