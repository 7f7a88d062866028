package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// makeBank builds a bank whose questions all have "A" as the correct answer.
func makeBank(perTier int) *model.QuestionBank {
	bank := model.NewQuestionBank(uuid.New(), "Sistem Pencernaan")
	for _, t := range model.Tiers {
		for i := range perTier {
			bank.Tiers[t] = append(bank.Tiers[t], model.Question{
				ID:            uuid.New(),
				QuizID:        bank.QuizID,
				Tier:          t,
				Text:          fmt.Sprintf("%s question %d", t, i+1),
				Choices:       []string{"A", "B", "C", "D"},
				CorrectAnswer: "A",
				OrderNum:      i + 1,
			})
		}
	}
	return bank
}

type memQuizStore struct {
	mu      sync.Mutex
	quizzes map[uuid.UUID]model.Quiz
	created [][]model.Question
	gets    int
	err     error
}

func newMemQuizStore(quizzes ...model.Quiz) *memQuizStore {
	m := &memQuizStore{quizzes: map[uuid.UUID]model.Quiz{}}
	for _, q := range quizzes {
		m.quizzes[q.ID] = q
	}
	return m
}

func (m *memQuizStore) List(context.Context) ([]model.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Quiz, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		out = append(out, q)
	}
	return out, m.err
}

func (m *memQuizStore) GetByID(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	q, ok := m.quizzes[id]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	return &q, nil
}

func (m *memQuizStore) TierCounts(_ context.Context, id uuid.UUID) (map[model.Tier]int, error) {
	return map[model.Tier]int{model.TierEasy: 1, model.TierMedium: 2, model.TierHard: 3}, nil
}

func (m *memQuizStore) CreateWithQuestions(_ context.Context, q *model.Quiz, questions []model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	q.TotalQuestions = len(questions)
	m.quizzes[q.ID] = *q
	m.created = append(m.created, questions)
	return nil
}

func (m *memQuizStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return quiz.ErrNotFound
	}
	delete(m.quizzes, id)
	return nil
}

type memQuestionStore struct {
	mu    sync.Mutex
	bank  *model.QuestionBank
	err   map[model.Tier]error
	calls int
}

func (m *memQuestionStore) ListByTier(_ context.Context, _ uuid.UUID, tier model.Tier) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.err[tier]; err != nil {
		return nil, err
	}
	return slices.Clone(m.bank.Tiers[tier]), nil
}

func (m *memQuestionStore) ListByQuiz(_ context.Context, _ uuid.UUID) ([]model.Question, error) {
	var out []model.Question
	for _, t := range model.Tiers {
		out = append(out, m.bank.Tiers[t]...)
	}
	return out, nil
}

type memResultStore struct {
	mu      sync.Mutex
	errs    []error // consumed one per call; nil entries succeed
	calls   int
	results map[uuid.UUID]model.SessionResult
	history []model.HistoryEntry
	limit   int
	offset  int
}

func newMemResultStore(errs ...error) *memResultStore {
	return &memResultStore{errs: errs, results: map[uuid.UUID]model.SessionResult{}}
}

func (m *memResultStore) SaveWithHistory(_ context.Context, res *model.SessionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return err
		}
	}
	m.results[res.ID] = *res
	return nil
}

func (m *memResultStore) GetByID(_ context.Context, id uuid.UUID) (*model.SessionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	return &r, nil
}

func (m *memResultStore) ListHistory(_ context.Context, _ string, limit, offset int) ([]model.HistoryEntry, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit, m.offset = limit, offset
	return m.history, len(m.history), nil
}

func (m *memResultStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type memStats struct {
	mu      sync.Mutex
	applied []model.StatsUpdate
	stats   map[uuid.UUID]*model.QuizStatistics
}

func newMemStats() *memStats {
	return &memStats{stats: map[uuid.UUID]*model.QuizStatistics{}}
}

func (m *memStats) Get(_ context.Context, quizID uuid.UUID) (*model.QuizStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[quizID]
	if !ok {
		return nil, quiz.ErrNotFound
	}
	return st, nil
}

func (m *memStats) Apply(_ context.Context, quizID uuid.UUID, upds ...model.StatsUpdate) (*model.QuizStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.stats[quizID]
	for _, upd := range upds {
		next := quiz.FoldAttempt(prev, upd)
		prev = &next
	}
	m.stats[quizID] = prev
	m.applied = append(m.applied, upds...)
	return prev, nil
}

type memQueue struct {
	mu     sync.Mutex
	err    error
	queued []model.StatsUpdate
}

func (q *memQueue) Enqueue(_ context.Context, upd model.StatsUpdate) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.queued = append(q.queued, upd)
	return nil
}

type bankStub struct {
	bank *model.QuestionBank
	err  error
}

func (b *bankStub) Load(context.Context, uuid.UUID) (*model.QuestionBank, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.bank, nil
}

type saverStub struct {
	mu    sync.Mutex
	saved []model.SessionResult
}

func (s *saverStub) Save(_ context.Context, r model.SessionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, r)
	return nil
}

func (s *saverStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// idleScheduler never fires, keeping question timers out of the way.
type idleScheduler struct{}

func (idleScheduler) AfterFunc(time.Duration, func()) func() bool {
	return func() bool { return true }
}

var errConnReset = errors.New("connection reset by peer")
