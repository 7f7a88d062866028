package model

import "github.com/google/uuid"

// QuestionBank holds every question of one quiz, partitioned by tier.
// It is read-only once loaded into a session.
type QuestionBank struct {
	QuizID    uuid.UUID           `json:"quiz_id"`
	QuizTitle string              `json:"quiz_title"`
	Tiers     map[Tier][]Question `json:"tiers"`
}

// NewQuestionBank creates an empty bank with all three tiers present.
func NewQuestionBank(quizID uuid.UUID, title string) *QuestionBank {
	tiers := make(map[Tier][]Question, len(Tiers))
	for _, t := range Tiers {
		tiers[t] = []Question{}
	}
	return &QuestionBank{QuizID: quizID, QuizTitle: title, Tiers: tiers}
}

// Count returns the number of questions in a tier.
func (b *QuestionBank) Count(t Tier) int {
	return len(b.Tiers[t])
}

// Total returns the number of questions across all tiers.
func (b *QuestionBank) Total() int {
	n := 0
	for _, qs := range b.Tiers {
		n += len(qs)
	}
	return n
}
