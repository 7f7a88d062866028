package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// BankLoader loads the question bank of a quiz.
type BankLoader interface {
	Load(ctx context.Context, quizID uuid.UUID) (*model.QuestionBank, error)
}

// Predictor is the difficulty oracle.
type Predictor interface {
	Predict(ctx context.Context, current model.Tier, wasCorrect bool, secondsTaken int) (model.Tier, error)
}

// ResultSaver persists a completed session.
type ResultSaver interface {
	Save(ctx context.Context, result model.SessionResult) error
}

// Scheduler runs f once after d. The returned stop function cancels the call
// and reports whether it was still pending.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Options tune a Controller. Zero values fall back to production defaults.
type Options struct {
	Settings      Settings
	TickInterval  time.Duration
	OracleTimeout time.Duration
	Scheduler     Scheduler
	Rand          *rand.Rand
	Now           func() time.Time
	Log           zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.Settings.QuestionCount <= 0 {
		o.Settings.QuestionCount = DefaultSettings.QuestionCount
	}
	if o.Settings.SecondsPerQuestion <= 0 {
		o.Settings.SecondsPerQuestion = DefaultSettings.SecondsPerQuestion
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.OracleTimeout <= 0 {
		o.OracleTimeout = 3 * time.Second
	}
	if o.Scheduler == nil {
		o.Scheduler = clockScheduler{}
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Controller drives one quiz session. Every transition, together with the
// bank lookups and oracle call it triggers, runs to completion under mu, so
// two transitions of the same session never interleave.
type Controller struct {
	id        uuid.UUID
	who       model.Identity
	ctx       context.Context
	bank      BankLoader
	predictor Predictor
	saver     ResultSaver
	opts      Options
	log       zerolog.Logger

	mu        sync.Mutex
	state     State
	questions *model.QuestionBank
	stopTimer func() bool

	snapMu   sync.RWMutex
	snapshot State
	subs     map[int]chan State
	nextSub  int
}

// NewController creates a controller for a new attempt at quizID. ctx bounds
// the I/O of the session, not any single request driving it. A nil predictor
// always uses the fallback rule.
func NewController(ctx context.Context, quizID uuid.UUID, who model.Identity, bank BankLoader, predictor Predictor, saver ResultSaver, opts Options) *Controller {
	opts = opts.withDefaults()
	id := uuid.New()
	st := NewState(id, quizID, who, opts.Settings)

	return &Controller{
		id:        id,
		who:       who,
		ctx:       ctx,
		bank:      bank,
		predictor: predictor,
		saver:     saver,
		opts:      opts,
		log:       opts.Log.With().Str("session_id", id.String()).Str("quiz_id", quizID.String()).Logger(),
		state:     st,
		snapshot:  st,
		subs:      make(map[int]chan State),
	}
}

// ID returns the session id.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// Owner returns the identity that started the session.
func (c *Controller) Owner() model.Identity {
	return c.who
}

// Start loads the bank and presents the first question. A session that fails
// to load is returned in the Failed phase together with its cause.
func (c *Controller) Start() (State, error) {
	c.mu.Lock()
	c.drain([]Effect{LoadBank{}})
	c.mu.Unlock()

	s := c.State()
	if s.Phase == PhaseFailed {
		return s, s.Failure
	}
	return s, nil
}

// State returns the latest snapshot.
func (c *Controller) State() State {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snapshot.Clone()
}

// Select records option as the current choice.
func (c *Controller) Select(option string) (State, error) {
	return c.dispatch(OptionSelected{Option: option})
}

// Submit answers the current question and blocks until the next question is
// preloaded. Submitting twice is a no-op.
func (c *Controller) Submit() (State, error) {
	return c.dispatch(AnswerSubmitted{})
}

// Next leaves the feedback screen, presenting the preloaded question or
// completing the session once the question budget is reached.
func (c *Controller) Next() (State, error) {
	return c.dispatch(Advanced{At: c.opts.Now().UTC(), ResultID: uuid.New()})
}

// Abandon ends the session without a result.
func (c *Controller) Abandon() State {
	s, _ := c.dispatch(Abandoned{})
	return s
}

// Subscribe returns a channel receiving every new snapshot and a function
// that unsubscribes. Slow subscribers only see the most recent snapshots.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan State, 8)
	ch <- c.snapshot.Clone()
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.snapMu.Lock()
			defer c.snapMu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

func (c *Controller) dispatch(ev Event) (State, error) {
	c.mu.Lock()
	effects, err := c.apply(ev)
	if err != nil {
		c.mu.Unlock()
		return c.State(), err
	}
	c.drain(effects)
	c.mu.Unlock()
	return c.State(), nil
}

// apply reduces one event and publishes the resulting state. Callers hold mu.
func (c *Controller) apply(ev Event) ([]Effect, error) {
	next, effects, err := Reduce(c.state, ev)
	if err != nil {
		return nil, err
	}
	if next.Phase != c.state.Phase {
		c.log.Debug().Str("from", string(c.state.Phase)).Str("to", string(next.Phase)).Int("index", next.Index).Msg("Session transition")
	}
	c.state = next
	c.publish(next)
	return effects, nil
}

// drain performs effects in order, feeding their outcomes back as events
// until no work is left. Callers hold mu.
func (c *Controller) drain(effects []Effect) {
	for len(effects) > 0 {
		eff := effects[0]
		effects = effects[1:]

		for _, ev := range c.run(eff) {
			more, err := c.apply(ev)
			if err != nil {
				c.log.Error().Err(err).Msgf("Rejected %T", ev)
				continue
			}
			effects = append(effects, more...)
		}
	}
}

func (c *Controller) run(eff Effect) []Event {
	switch e := eff.(type) {
	case LoadBank:
		bank, err := c.bank.Load(c.ctx, c.state.QuizID)
		if err != nil {
			c.log.Error().Err(err).Msg("Failed to load question bank")
			return []Event{BankFailed{Err: err}}
		}
		c.questions = bank
		return []Event{BankLoaded{Title: bank.QuizTitle}}

	case PickQuestion:
		q, err := PickUnused(c.questions, e.Used, e.Tier, c.opts.Rand)
		if err != nil {
			c.log.Error().Err(err).Str("tier", string(e.Tier)).Msg("No question available")
			return []Event{BankFailed{Err: err}}
		}
		return []Event{QuestionPicked{Question: q, Preload: e.Preload}}

	case PredictTier:
		if _, err := c.apply(PredictionStarted{}); err != nil {
			c.log.Error().Err(err).Msg("Failed to enter prediction")
		}
		return []Event{c.predict(e)}

	case ScheduleTick:
		c.cancelTimer()
		gen := e.Gen
		c.stopTimer = c.opts.Scheduler.AfterFunc(c.opts.TickInterval, func() {
			if _, err := c.dispatch(TimerTicked{Gen: gen}); err != nil {
				c.log.Error().Err(err).Msg("Timer tick rejected")
			}
		})
		return nil

	case CancelTimer:
		c.cancelTimer()
		return nil

	case PersistResult:
		err := c.saver.Save(c.ctx, e.Result)
		if err != nil {
			c.log.Error().Err(err).Str("result_id", e.Result.ID.String()).Msg("Result not persisted")
		}
		return []Event{ResultPersisted{Err: err}}
	}

	c.log.Error().Msgf("Unknown effect %T", eff)
	return nil
}

func (c *Controller) predict(e PredictTier) TierPredicted {
	if c.predictor == nil {
		return TierPredicted{Tier: FallbackTier(e.Tier, e.WasCorrect), Fallback: true}
	}

	ctx, cancel := context.WithTimeout(c.ctx, c.opts.OracleTimeout)
	defer cancel()

	tier, err := c.predictor.Predict(ctx, e.Tier, e.WasCorrect, e.TimeTaken)
	if err == nil && !tier.Valid() {
		err = fmt.Errorf("%w: unknown tier %q", ErrOracleUnavailable, tier)
	}
	if err != nil {
		fallback := FallbackTier(e.Tier, e.WasCorrect)
		c.log.Warn().Err(err).
			Str("tier", string(e.Tier)).
			Str("fallback", string(fallback)).
			Msg("Difficulty oracle failed, using fallback")
		return TierPredicted{Tier: fallback, Fallback: true}
	}
	return TierPredicted{Tier: tier}
}

func (c *Controller) cancelTimer() {
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
}

func (c *Controller) publish(s State) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()

	c.snapshot = s
	for _, ch := range c.subs {
		snap := s.Clone()
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
