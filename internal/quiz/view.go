package quiz

import (
	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// Feedback is the verdict on the last answer, shown once the next question
// is preloaded.
type Feedback struct {
	Correct       bool    `json:"is_correct"`
	CorrectAnswer string  `json:"correct_answer"`
	Selected      *string `json:"selected_option"`
	TimedOut      bool    `json:"timed_out"`
}

// View is the client-facing projection of a State. The correct answer of the
// outstanding question is never part of it.
type View struct {
	SessionID       uuid.UUID                 `json:"session_id"`
	QuizID          uuid.UUID                 `json:"quiz_id"`
	QuizTitle       string                    `json:"quiz_title"`
	Phase           Phase                     `json:"phase"`
	Index           int                       `json:"question_index"`
	TotalQuestions  int                       `json:"total_questions"`
	Answered        int                       `json:"answered"`
	Tier            model.Tier                `json:"current_difficulty"`
	NextTier        model.Tier                `json:"next_difficulty,omitempty"`
	Question        *model.QuestionForLearner `json:"question,omitempty"`
	TimeLeft        int                       `json:"time_left"`
	Selected        *string                   `json:"selected_option"`
	Submitted       bool                      `json:"answer_submitted"`
	FeedbackVisible bool                      `json:"show_feedback"`
	Feedback        *Feedback                 `json:"feedback,omitempty"`
	NextReady       bool                      `json:"next_ready"`
	Prediction      *Prediction               `json:"prediction,omitempty"`
	Result          *model.SessionResult      `json:"result,omitempty"`
	Persistence     PersistStatus             `json:"persistence,omitempty"`
	PersistError    string                    `json:"persistence_error,omitempty"`
	Error           string                    `json:"error,omitempty"`
}

// NewView projects s for the learner.
func NewView(s State) View {
	v := View{
		SessionID:       s.SessionID,
		QuizID:          s.QuizID,
		QuizTitle:       s.QuizTitle,
		Phase:           s.Phase,
		Index:           s.Index,
		TotalQuestions:  s.Settings.QuestionCount,
		Answered:        len(s.Answers),
		Tier:            s.Tier,
		TimeLeft:        s.Remaining,
		Selected:        s.Selected,
		Submitted:       s.Submitted,
		FeedbackVisible: s.FeedbackVisible,
		Result:          s.Result,
		Persistence:     s.Persistence,
	}

	if s.Current != nil && s.Phase != PhaseCompleted {
		q := s.Current.ForLearner()
		v.Question = &q
	}

	if s.FeedbackVisible && len(s.Answers) > 0 {
		last := s.Answers[len(s.Answers)-1]
		v.Feedback = &Feedback{
			Correct:       last.IsCorrect,
			CorrectAnswer: s.Current.CorrectAnswer,
			Selected:      last.SelectedOption,
			TimedOut:      last.TimedOut,
		}
		v.NextTier = s.NextTier
		v.Prediction = s.LastPrediction
		v.NextReady = s.Next != nil || s.Index+1 >= s.Settings.QuestionCount
	}

	if s.PersistErr != nil {
		v.PersistError = s.PersistErr.Error()
	}
	if s.Failure != nil {
		v.Error = s.Failure.Error()
	}
	return v
}
