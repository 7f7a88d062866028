package model

import (
	"time"

	"github.com/google/uuid"
)

// Quiz is the metadata of an imported quiz.
type Quiz struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// QuizDetail is a quiz with its per-tier question counts.
type QuizDetail struct {
	Quiz
	TierCounts map[Tier]int `json:"tier_counts"`
}

// ImportQuizRequest is the payload for importing a generated quiz document.
// Document is the raw generator output; code fences are tolerated.
type ImportQuizRequest struct {
	Title    string `json:"title" binding:"required,min=1,max=255"`
	Document string `json:"document" binding:"required"`
}
