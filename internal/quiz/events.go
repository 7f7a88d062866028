package quiz

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// Event is an input to the session state machine.
type Event interface{ event() }

// BankLoaded reports that the question bank is available.
type BankLoaded struct{ Title string }

// BankFailed reports that the bank could not be loaded or yielded no question.
type BankFailed struct{ Err error }

// QuestionPicked delivers a question from the bank. Preload marks the
// question that follows the one currently answered.
type QuestionPicked struct {
	Question model.Question
	Preload  bool
}

// OptionSelected records the learner's current choice without submitting it.
type OptionSelected struct{ Option string }

// AnswerSubmitted submits the current selection.
type AnswerSubmitted struct{}

// TimerTicked is one countdown interval elapsing for timer generation Gen.
type TimerTicked struct{ Gen int }

// PredictionStarted marks the oracle call as in flight.
type PredictionStarted struct{}

// TierPredicted carries the tier for the next question.
type TierPredicted struct {
	Tier     model.Tier
	Fallback bool
}

// Advanced moves past the feedback screen. ResultID and At are used only
// when this advance completes the session.
type Advanced struct {
	At       time.Time
	ResultID uuid.UUID
}

// ResultPersisted reports the outcome of the final write.
type ResultPersisted struct{ Err error }

// Abandoned ends the session without a result.
type Abandoned struct{}

func (BankLoaded) event()        {}
func (BankFailed) event()        {}
func (QuestionPicked) event()    {}
func (OptionSelected) event()    {}
func (AnswerSubmitted) event()   {}
func (TimerTicked) event()       {}
func (PredictionStarted) event() {}
func (TierPredicted) event()     {}
func (Advanced) event()          {}
func (ResultPersisted) event()   {}
func (Abandoned) event()         {}

// Effect is I/O requested by the state machine and performed by the Controller.
type Effect interface{ effect() }

// LoadBank loads the question bank of the session's quiz.
type LoadBank struct{}

// PickQuestion draws an unused question of Tier from the bank.
type PickQuestion struct {
	Tier    model.Tier
	Used    UsedSet
	Preload bool
}

// PredictTier asks the oracle for the tier following an answer.
type PredictTier struct {
	Tier       model.Tier
	WasCorrect bool
	TimeTaken  int
}

// ScheduleTick arms the countdown for one interval.
type ScheduleTick struct{ Gen int }

// CancelTimer disarms the countdown.
type CancelTimer struct{}

// PersistResult writes the final result.
type PersistResult struct{ Result model.SessionResult }

func (LoadBank) effect()      {}
func (PickQuestion) effect()  {}
func (PredictTier) effect()   {}
func (ScheduleTick) effect()  {}
func (CancelTimer) effect()   {}
func (PersistResult) effect() {}
