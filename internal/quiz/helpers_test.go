package quiz

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// makeBank builds a bank whose questions all have "A" as the correct answer.
func makeBank(easy, medium, hard int) *model.QuestionBank {
	bank := model.NewQuestionBank(uuid.New(), "Fotosintesis")
	counts := map[model.Tier]int{model.TierEasy: easy, model.TierMedium: medium, model.TierHard: hard}
	for _, t := range model.Tiers {
		for i := range counts[t] {
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

type predictorStub struct {
	mu    sync.Mutex
	tier  model.Tier
	err   error
	block bool
	calls int
}

func (p *predictorStub) Predict(ctx context.Context, _ model.Tier, _ bool, _ int) (model.Tier, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return p.tier, p.err
}

type saverStub struct {
	mu    sync.Mutex
	err   error
	saved []model.SessionResult
}

func (s *saverStub) Save(_ context.Context, r model.SessionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, r)
	return s.err
}

// manualScheduler only fires timers when the test says so.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
	fired   bool
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) func() bool {
	t := &manualTimer{f: f}
	s.mu.Lock()
	s.pending = append(s.pending, t)
	s.mu.Unlock()

	return func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

// Fire runs every timer armed so far and returns how many ran.
func (s *manualScheduler) Fire() int {
	s.mu.Lock()
	due := s.pending
	s.pending = nil
	s.mu.Unlock()

	n := 0
	for _, t := range due {
		s.mu.Lock()
		skip := t.stopped
		t.fired = true
		s.mu.Unlock()
		if skip {
			continue
		}
		t.f()
		n++
	}
	return n
}

// Armed returns the number of pending, uncancelled timers.
func (s *manualScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.pending {
		if !t.stopped {
			n++
		}
	}
	return n
}
