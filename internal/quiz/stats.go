package quiz

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/model"
)

// ResultInput is everything needed to derive a SessionResult.
type ResultInput struct {
	SessionID   uuid.UUID
	QuizID      uuid.UUID
	QuizTitle   string
	Who         model.Identity
	Answers     []model.AnswerRecord
	CompletedAt time.Time
}

// ComputeResult derives the aggregate statistics of a finished session.
// The score uses real division; rounding is left to presentation.
func ComputeResult(in ResultInput) model.SessionResult {
	res := model.SessionResult{
		SessionID:               in.SessionID,
		UserID:                  in.Who.UserID,
		UserName:                in.Who.Name,
		UserEmail:               in.Who.Email,
		QuizID:                  in.QuizID,
		QuizTitle:               in.QuizTitle,
		TotalQuestions:          len(in.Answers),
		DifficultyDistribution:  make(map[model.Tier]int, len(model.Tiers)),
		PerformanceByDifficulty: make(map[model.Tier]model.TierPerformance, len(model.Tiers)),
		DifficultyTransitions:   []model.TierTransition{},
		Answers:                 slices.Clone(in.Answers),
		CompletedAt:             in.CompletedAt,
	}
	if res.Answers == nil {
		res.Answers = []model.AnswerRecord{}
	}
	for _, t := range model.Tiers {
		res.DifficultyDistribution[t] = 0
	}

	tierTime := make(map[model.Tier]int, len(model.Tiers))
	totalTime := 0

	for i, a := range in.Answers {
		if a.IsCorrect {
			res.CorrectAnswers++
		}
		totalTime += a.TimeTaken

		perf := res.PerformanceByDifficulty[a.Tier]
		perf.Total++
		if a.IsCorrect {
			perf.Correct++
		}
		res.PerformanceByDifficulty[a.Tier] = perf
		res.DifficultyDistribution[a.Tier]++
		tierTime[a.Tier] += a.TimeTaken

		switch {
		case a.TimedOut:
			res.TimeDistribution.Timeout++
		case a.TimeTaken < 10:
			res.TimeDistribution.Under10s++
		case a.TimeTaken < 30:
			res.TimeDistribution.Under30s++
		case a.TimeTaken < 60:
			res.TimeDistribution.Under60s++
		}

		if i > 0 {
			prev := in.Answers[i-1]
			res.DifficultyTransitions = append(res.DifficultyTransitions, model.TierTransition{
				From:         prev.Tier,
				To:           a.Tier,
				AfterCorrect: prev.IsCorrect,
			})
		}
	}

	for _, t := range model.Tiers {
		perf := res.PerformanceByDifficulty[t]
		perf.AvgTime = float64(tierTime[t]) / float64(max(perf.Total, 1))
		res.PerformanceByDifficulty[t] = perf
	}

	res.IncorrectAnswers = res.TotalQuestions - res.CorrectAnswers
	if res.TotalQuestions > 0 {
		res.Score = float64(res.CorrectAnswers) / float64(res.TotalQuestions) * 100
		res.AverageTimePerQuestion = float64(totalTime) / float64(res.TotalQuestions)
	}

	return res
}

// FoldAttempt adds one finished attempt to the running aggregate of a quiz.
// prev is nil for the first attempt.
func FoldAttempt(prev *model.QuizStatistics, upd model.StatsUpdate) model.QuizStatistics {
	if prev == nil {
		return model.QuizStatistics{
			QuizID:        upd.QuizID,
			QuizTitle:     upd.QuizTitle,
			TotalAttempts: 1,
			TotalScore:    upd.Score,
			AverageScore:  upd.Score,
			CreatedAt:     upd.At,
			LastAttemptAt: upd.At,
		}
	}

	next := *prev
	next.TotalAttempts++
	next.TotalScore += upd.Score
	next.AverageScore = next.TotalScore / float64(next.TotalAttempts)
	if upd.QuizTitle != "" {
		next.QuizTitle = upd.QuizTitle
	}
	if upd.At.After(next.LastAttemptAt) {
		next.LastAttemptAt = upd.At
	}
	return next
}
