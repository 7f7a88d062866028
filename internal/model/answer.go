package model

import "github.com/google/uuid"

// AnswerRecord is one answered (or timed-out) question of a session.
// Records are appended in order and never mutated.
type AnswerRecord struct {
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption *string   `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
	TimeTaken      int       `json:"time_taken"`
	TimedOut       bool      `json:"timed_out"`
	Tier           Tier      `json:"difficulty"`
}
