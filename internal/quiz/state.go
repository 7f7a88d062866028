package quiz

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// Phase enumerates session states.
type Phase string

const (
	PhaseLoading    Phase = "LOADING"
	PhasePresenting Phase = "PRESENTING"
	PhaseSubmitted  Phase = "SUBMITTED"
	PhasePredicting Phase = "PREDICTING"
	PhasePreloading Phase = "PRELOADING"
	PhaseFeedback   Phase = "FEEDBACK"
	PhaseCompleted  Phase = "COMPLETED"
	PhaseFailed     Phase = "FAILED"
	PhaseAbandoned  Phase = "ABANDONED"
)

// PersistStatus tracks the final write of a completed session.
type PersistStatus string

const (
	PersistNone    PersistStatus = ""
	PersistPending PersistStatus = "PENDING"
	PersistSaved   PersistStatus = "SAVED"
	PersistFailed  PersistStatus = "FAILED"
)

// Settings fixes the length and pace of a session.
type Settings struct {
	QuestionCount      int
	SecondsPerQuestion int
}

// DefaultSettings is fifteen questions of sixty seconds each.
var DefaultSettings = Settings{QuestionCount: 15, SecondsPerQuestion: 60}

// Prediction describes how the tier of the upcoming question was chosen.
type Prediction struct {
	From       model.Tier `json:"current"`
	Predicted  model.Tier `json:"prediction"`
	WasCorrect bool       `json:"was_correct"`
	TimeTaken  int        `json:"time_taken"`
	Fallback   bool       `json:"fallback"`
}

// State is the complete state of one quiz attempt.
type State struct {
	SessionID uuid.UUID
	QuizID    uuid.UUID
	QuizTitle string
	Who       model.Identity
	Settings  Settings
	Phase     Phase

	Current  *model.Question
	Next     *model.Question
	Tier     model.Tier
	NextTier model.Tier // empty until the oracle has answered

	Index           int
	Remaining       int
	Selected        *string
	Submitted       bool
	FeedbackVisible bool
	TimerGen        int

	Answers        []model.AnswerRecord
	Used           UsedSet
	LastPrediction *Prediction

	Result      *model.SessionResult
	Persistence PersistStatus
	PersistErr  error
	Failure     error
}

// NewState returns the initial Loading state of a session.
func NewState(sessionID, quizID uuid.UUID, who model.Identity, settings Settings) State {
	return State{
		SessionID: sessionID,
		QuizID:    quizID,
		Who:       who,
		Settings:  settings,
		Phase:     PhaseLoading,
		Tier:      StartingTier,
		Remaining: settings.SecondsPerQuestion,
		Answers:   []model.AnswerRecord{},
		Used:      UsedSet{},
	}
}

// Terminal reports whether the session accepts no further transitions.
func (s State) Terminal() bool {
	return s.Phase == PhaseCompleted || s.Phase == PhaseFailed || s.Phase == PhaseAbandoned
}

// Clone returns a copy that shares no mutable storage with s.
func (s State) Clone() State {
	s.Answers = slices.Clone(s.Answers)
	s.Used = s.Used.Clone()
	return s
}

// Reduce applies ev to s. It performs no I/O: the returned effects describe
// the work the caller must do, whose outcomes come back as further events.
// A non-nil error rejects the event and leaves s unchanged.
func Reduce(s State, ev Event) (State, []Effect, error) {
	switch e := ev.(type) {
	case BankLoaded:
		if s.Phase != PhaseLoading {
			return s, nil, nil
		}
		s.QuizTitle = e.Title
		return s, []Effect{PickQuestion{Tier: s.Tier, Used: s.Used}}, nil

	case BankFailed:
		if s.Phase != PhaseLoading && s.Phase != PhasePreloading {
			return s, nil, nil
		}
		s.Phase = PhaseFailed
		s.Failure = e.Err
		return s, []Effect{CancelTimer{}}, nil

	case QuestionPicked:
		return questionPicked(s, e)

	case OptionSelected:
		return selectOption(s, e.Option)

	case AnswerSubmitted:
		if s.Phase == PhaseFailed || s.Phase == PhaseAbandoned {
			return s, nil, ErrSessionClosed
		}
		return submit(s, false)

	case TimerTicked:
		return tick(s, e.Gen)

	case PredictionStarted:
		if s.Phase != PhaseSubmitted {
			return s, nil, nil
		}
		s.Phase = PhasePredicting
		return s, nil, nil

	case TierPredicted:
		if s.Phase != PhasePredicting {
			return s, nil, nil
		}
		last := s.Answers[len(s.Answers)-1]
		s.Phase = PhasePreloading
		s.NextTier = e.Tier
		s.LastPrediction = &Prediction{
			From:       last.Tier,
			Predicted:  e.Tier,
			WasCorrect: last.IsCorrect,
			TimeTaken:  last.TimeTaken,
			Fallback:   e.Fallback,
		}
		return s, []Effect{PickQuestion{Tier: e.Tier, Used: s.Used, Preload: true}}, nil

	case Advanced:
		return advance(s, e)

	case ResultPersisted:
		if s.Phase != PhaseCompleted || s.Persistence != PersistPending {
			return s, nil, nil
		}
		if e.Err != nil {
			s.Persistence = PersistFailed
			s.PersistErr = e.Err
		} else {
			s.Persistence = PersistSaved
		}
		return s, nil, nil

	case Abandoned:
		if s.Terminal() {
			return s, nil, nil
		}
		s.Phase = PhaseAbandoned
		return s, []Effect{CancelTimer{}}, nil
	}

	return s, nil, fmt.Errorf("unknown event %T", ev)
}

func questionPicked(s State, e QuestionPicked) (State, []Effect, error) {
	q := e.Question

	if e.Preload {
		if s.Phase != PhasePreloading {
			return s, nil, nil
		}
		s.Next = &q
		s.NextTier = q.Tier
		s.Used = s.Used.With(q.Tier, q.ID)
		s.Phase = PhaseFeedback
		s.FeedbackVisible = true
		return s, nil, nil
	}

	if s.Phase != PhaseLoading {
		return s, nil, nil
	}
	s.Current = &q
	s.Tier = q.Tier
	s.Used = s.Used.With(q.Tier, q.ID)
	return present(s)
}

// present enters Presenting for s.Current with a fresh countdown.
func present(s State) (State, []Effect, error) {
	s.Phase = PhasePresenting
	s.Remaining = s.Settings.SecondsPerQuestion
	s.Selected = nil
	s.Submitted = false
	s.FeedbackVisible = false
	s.TimerGen++
	return s, []Effect{ScheduleTick{Gen: s.TimerGen}}, nil
}

func selectOption(s State, option string) (State, []Effect, error) {
	switch s.Phase {
	case PhaseFailed, PhaseAbandoned:
		return s, nil, ErrSessionClosed
	case PhasePresenting:
	default:
		return s, nil, ErrNotPresenting
	}
	if !s.Current.HasChoice(option) {
		return s, nil, ErrInvalidOption
	}
	s.Selected = &option
	return s, nil, nil
}

// submit records the answer to the current question. Only the first
// submission per question counts; later ones are no-ops.
func submit(s State, timedOut bool) (State, []Effect, error) {
	if s.Phase != PhasePresenting || s.Submitted {
		return s, nil, nil
	}

	elapsed := min(max(s.Settings.SecondsPerQuestion-s.Remaining, 0), s.Settings.SecondsPerQuestion)

	var selected *string
	correct := false
	if !timedOut && s.Selected != nil {
		opt := *s.Selected
		selected = &opt
		correct = opt == s.Current.CorrectAnswer
	}

	rec := model.AnswerRecord{
		QuestionID:     s.Current.ID,
		SelectedOption: selected,
		IsCorrect:      correct,
		TimeTaken:      elapsed,
		TimedOut:       timedOut,
		Tier:           s.Tier,
	}
	s.Answers = append(slices.Clip(s.Answers), rec)
	s.Submitted = true
	s.Phase = PhaseSubmitted

	return s, []Effect{
		CancelTimer{},
		PredictTier{Tier: s.Tier, WasCorrect: correct, TimeTaken: elapsed},
	}, nil
}

func tick(s State, gen int) (State, []Effect, error) {
	if s.Phase != PhasePresenting || s.Submitted || gen != s.TimerGen {
		return s, nil, nil
	}
	s.Remaining--
	if s.Remaining <= 0 {
		s.Remaining = 0
		return submit(s, true)
	}
	return s, []Effect{ScheduleTick{Gen: s.TimerGen}}, nil
}

func advance(s State, e Advanced) (State, []Effect, error) {
	switch s.Phase {
	case PhaseCompleted:
		return s, nil, nil
	case PhaseFailed, PhaseAbandoned:
		return s, nil, ErrSessionClosed
	case PhaseFeedback:
	default:
		return s, nil, ErrNextNotReady
	}

	if s.Index+1 >= s.Settings.QuestionCount {
		return complete(s, e.ResultID, e.At)
	}
	if s.Next == nil {
		return s, nil, ErrNextNotReady
	}

	s.Current = s.Next
	s.Tier = s.NextTier
	s.Next = nil
	s.NextTier = ""
	s.LastPrediction = nil
	s.Index++
	return present(s)
}

func complete(s State, resultID uuid.UUID, at time.Time) (State, []Effect, error) {
	res := ComputeResult(ResultInput{
		SessionID:   s.SessionID,
		QuizID:      s.QuizID,
		QuizTitle:   s.QuizTitle,
		Who:         s.Who,
		Answers:     s.Answers,
		CompletedAt: at,
	})
	res.ID = resultID

	s.Phase = PhaseCompleted
	s.Index = s.Settings.QuestionCount
	s.Next = nil
	s.NextTier = ""
	s.FeedbackVisible = false
	s.Result = &res
	s.Persistence = PersistPending

	return s, []Effect{CancelTimer{}, PersistResult{Result: res}}, nil
}
