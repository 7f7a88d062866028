package model

import (
	"slices"

	"github.com/google/uuid"
)

// ChoiceCount is the number of answer choices every question carries.
const ChoiceCount = 4

// Question is a single multiple-choice question of one tier.
type Question struct {
	ID            uuid.UUID `json:"id"`
	QuizID        uuid.UUID `json:"quiz_id"`
	Tier          Tier      `json:"difficulty"`
	Text          string    `json:"question"`
	Choices       []string  `json:"choices"`
	CorrectAnswer string    `json:"correct_answer"`
	OrderNum      int       `json:"order_num"`
}

// Valid reports whether the question has the expected number of choices and
// a correct answer that is one of them.
func (q *Question) Valid() bool {
	return len(q.Choices) == ChoiceCount && q.HasChoice(q.CorrectAnswer)
}

// HasChoice reports whether option is one of the question's choices.
func (q *Question) HasChoice(option string) bool {
	return slices.Contains(q.Choices, option)
}

// QuestionForLearner is a question without the correct answer, sent to learners.
type QuestionForLearner struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"question"`
	Choices []string  `json:"choices"`
	Tier    Tier      `json:"difficulty"`
}

// ForLearner strips the correct answer from the question.
func (q *Question) ForLearner() QuestionForLearner {
	return QuestionForLearner{
		ID:      q.ID,
		Text:    q.Text,
		Choices: slices.Clone(q.Choices),
		Tier:    q.Tier,
	}
}
