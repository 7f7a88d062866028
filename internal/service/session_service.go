package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/cache"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNotSessionOwner = errors.New("session belongs to another user")
)

type liveSession struct {
	ctrl      *quiz.Controller
	startedAt time.Time

	mu         sync.Mutex
	lastActive time.Time
	endedAt    time.Time
}

func (l *liveSession) touch(now time.Time) {
	l.mu.Lock()
	l.lastActive = now
	l.mu.Unlock()
}

// SessionService keeps the live quiz sessions of this process.
type SessionService struct {
	ctx       context.Context
	bank      quiz.BankLoader
	predictor quiz.Predictor
	saver     quiz.ResultSaver
	marker    SessionMarker
	opts      quiz.Options
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*liveSession
}

// NewSessionService creates a SessionService. ctx bounds the background work
// of every session and should live as long as the server. marker may be nil.
func NewSessionService(
	ctx context.Context,
	bank quiz.BankLoader,
	predictor quiz.Predictor,
	saver quiz.ResultSaver,
	marker SessionMarker,
	opts quiz.Options,
	retention time.Duration,
) *SessionService {
	return &SessionService{
		ctx:       ctx,
		bank:      bank,
		predictor: predictor,
		saver:     saver,
		marker:    marker,
		opts:      opts,
		retention: retention,
		now:       time.Now,
		log:       opts.Log.With().Str("component", "session_service").Logger(),
		sessions:  make(map[uuid.UUID]*liveSession),
	}
}

// Start begins a new attempt at quizID. A user's previous live attempt is
// abandoned. Sessions that fail to load are not kept.
func (s *SessionService) Start(ctx context.Context, who model.Identity, quizID uuid.UUID) (quiz.State, error) {
	ctrl := quiz.NewController(s.ctx, quizID, who, s.bank, s.predictor, s.saver, s.opts)
	st, err := ctrl.Start()
	if err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quizID.String()).Msg("Session failed to start")
		return st, err
	}

	now := s.now()
	stale := s.register(&liveSession{ctrl: ctrl, startedAt: now, lastActive: now})
	for _, ls := range stale {
		ls.ctrl.Abandon()
		s.finish(ctx, ls)
		s.log.Info().Str("session_id", ls.ctrl.ID().String()).Msg("Previous session abandoned")
	}

	if !who.Anonymous() && s.marker != nil {
		_, err := s.marker.Set(ctx, who.UserID, cache.ActiveSession{
			SessionID: ctrl.ID(),
			QuizID:    quizID,
			QuizTitle: st.QuizTitle,
			StartedAt: now.UTC(),
		})
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", who.UserID).Msg("Failed to record active session")
		}
	}

	s.log.Info().
		Str("session_id", ctrl.ID().String()).
		Str("quiz_id", quizID.String()).
		Bool("anonymous", who.Anonymous()).
		Msg("Session started")

	return st, nil
}

// register adds ls and returns the owner's other live sessions. Both happen
// under one lock, so of two concurrent starts the later one always sees the
// earlier and only one attempt stays live.
func (s *SessionService) register(ls *liveSession) []*liveSession {
	owner := ls.ctrl.Owner()

	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []*liveSession
	if !owner.Anonymous() {
		for id, other := range s.sessions {
			if id != ls.ctrl.ID() && other.ctrl.Owner().UserID == owner.UserID && !other.ctrl.State().Terminal() {
				stale = append(stale, other)
			}
		}
	}
	s.sessions[ls.ctrl.ID()] = ls
	return stale
}

func (s *SessionService) lookup(who model.Identity, id uuid.UUID) (*liveSession, error) {
	s.mu.RLock()
	ls, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	owner := ls.ctrl.Owner()
	if !owner.Anonymous() && owner.UserID != who.UserID {
		return nil, ErrNotSessionOwner
	}
	return ls, nil
}

// Get returns the current state of a session.
func (s *SessionService) Get(who model.Identity, id uuid.UUID) (quiz.State, error) {
	ls, err := s.lookup(who, id)
	if err != nil {
		return quiz.State{}, err
	}
	return ls.ctrl.State(), nil
}

// Select records an answer choice.
func (s *SessionService) Select(ctx context.Context, who model.Identity, id uuid.UUID, option string) (quiz.State, error) {
	return s.do(ctx, who, id, func(c *quiz.Controller) (quiz.State, error) { return c.Select(option) })
}

// Submit answers the current question.
func (s *SessionService) Submit(ctx context.Context, who model.Identity, id uuid.UUID) (quiz.State, error) {
	return s.do(ctx, who, id, (*quiz.Controller).Submit)
}

// Next moves past the feedback screen.
func (s *SessionService) Next(ctx context.Context, who model.Identity, id uuid.UUID) (quiz.State, error) {
	return s.do(ctx, who, id, (*quiz.Controller).Next)
}

// Abandon ends a session without a result.
func (s *SessionService) Abandon(ctx context.Context, who model.Identity, id uuid.UUID) (quiz.State, error) {
	return s.do(ctx, who, id, func(c *quiz.Controller) (quiz.State, error) { return c.Abandon(), nil })
}

// Subscribe streams the snapshots of a session.
func (s *SessionService) Subscribe(who model.Identity, id uuid.UUID) (<-chan quiz.State, func(), error) {
	ls, err := s.lookup(who, id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := ls.ctrl.Subscribe()
	return ch, cancel, nil
}

func (s *SessionService) do(ctx context.Context, who model.Identity, id uuid.UUID, op func(*quiz.Controller) (quiz.State, error)) (quiz.State, error) {
	ls, err := s.lookup(who, id)
	if err != nil {
		return quiz.State{}, err
	}
	ls.touch(s.now())

	st, err := op(ls.ctrl)
	if st.Terminal() {
		s.finish(ctx, ls)
	}
	return st, err
}

// finish marks a session as ended and clears its active marker once.
func (s *SessionService) finish(ctx context.Context, ls *liveSession) {
	ls.mu.Lock()
	if !ls.endedAt.IsZero() {
		ls.mu.Unlock()
		return
	}
	ls.endedAt = s.now()
	ls.mu.Unlock()

	owner := ls.ctrl.Owner()
	if owner.Anonymous() || s.marker == nil {
		return
	}
	if _, err := s.marker.Clear(context.WithoutCancel(ctx), owner.UserID, ls.ctrl.ID()); err != nil {
		s.log.Warn().Err(err).Str("session_id", ls.ctrl.ID().String()).Msg("Failed to clear active session")
	}
}

// ActiveSession returns the live attempt of userID, or nil.
func (s *SessionService) ActiveSession(ctx context.Context, userID string) (*cache.ActiveSession, error) {
	if s.marker != nil {
		active, err := s.marker.Get(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to read active session")
		} else if active != nil {
			if st, err := s.Get(model.Identity{UserID: userID}, active.SessionID); err == nil && !st.Terminal() {
				return active, nil
			}
			// Marker left behind by a restart or a missed clear.
			if _, err := s.marker.Clear(ctx, userID, active.SessionID); err != nil {
				s.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to clear stale active session")
			}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ls := range s.sessions {
		if ls.ctrl.Owner().UserID != userID {
			continue
		}
		if st := ls.ctrl.State(); !st.Terminal() {
			return &cache.ActiveSession{SessionID: st.SessionID, QuizID: st.QuizID, QuizTitle: st.QuizTitle, StartedAt: ls.startedAt.UTC()}, nil
		}
	}
	return nil, nil
}

// Sweep abandons sessions idle longer than the retention window and forgets
// ended sessions once that window has passed. It returns how many sessions
// were dropped.
func (s *SessionService) Sweep(ctx context.Context) int {
	now := s.now()

	s.mu.RLock()
	all := make([]*liveSession, 0, len(s.sessions))
	for _, ls := range s.sessions {
		all = append(all, ls)
	}
	s.mu.RUnlock()

	var drop []uuid.UUID
	for _, ls := range all {
		st := ls.ctrl.State()

		ls.mu.Lock()
		idle := now.Sub(ls.lastActive)
		ended := ls.endedAt
		ls.mu.Unlock()

		switch {
		case !ended.IsZero():
			if now.Sub(ended) >= s.retention {
				drop = append(drop, ls.ctrl.ID())
			}
		case st.Terminal():
			// Ended without passing through a request, e.g. a preload
			// failure after a timed-out question.
			s.finish(ctx, ls)
		case idle >= s.retention:
			ls.ctrl.Abandon()
			s.finish(ctx, ls)
			s.log.Info().Str("session_id", ls.ctrl.ID().String()).Dur("idle", idle).Msg("Idle session abandoned")
		}
	}

	if len(drop) > 0 {
		s.mu.Lock()
		for _, id := range drop {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
	}
	return len(drop)
}

// RunJanitor sweeps every interval until ctx is cancelled.
func (s *SessionService) RunJanitor(ctx context.Context, interval time.Duration) {
	s.log.Info().Dur("interval", interval).Msg("Session janitor started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Session janitor stopped")
			return
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 {
				s.log.Debug().Int("dropped", n).Msg("Ended sessions released")
			}
		}
	}
}

// Close abandons every live session. Used on shutdown.
func (s *SessionService) Close(ctx context.Context) {
	s.mu.RLock()
	live := make([]*liveSession, 0, len(s.sessions))
	for _, ls := range s.sessions {
		live = append(live, ls)
	}
	s.mu.RUnlock()

	n := 0
	for _, ls := range live {
		if !ls.ctrl.State().Terminal() {
			ls.ctrl.Abandon()
			n++
		}
		s.finish(ctx, ls)
	}
	s.log.Info().Int("abandoned", n).Msg("Live sessions closed")
}

// Live reports how many sessions have not ended yet.
func (s *SessionService) Live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, ls := range s.sessions {
		ls.mu.Lock()
		if ls.endedAt.IsZero() {
			n++
		}
		ls.mu.Unlock()
	}
	return n
}
