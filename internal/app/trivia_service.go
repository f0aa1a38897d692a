package app

import (
	"context"
	"fmt"

	"trivia-challenge-service/internal/domain"
)

// TriviaService is the direct (non-challenge) game path: ask a question,
// submit an answer, collect points and any newly unlocked achievements.
type TriviaService struct {
	questions QuestionRepository
	progress  ProgressStore
}

func NewTriviaService(questions QuestionRepository, progress ProgressStore) *TriviaService {
	return &TriviaService{questions: questions, progress: progress}
}

// AskQuestion draws a question matching the filter. A nil question with a
// nil error means the source had nothing matching.
func (s *TriviaService) AskQuestion(ctx context.Context, filter QuestionFilter) (*domain.Question, error) {
	return s.questions.GetQuestion(ctx, filter)
}

// AnswerOutcome is the full result of a direct-play submission.
type AnswerOutcome struct {
	Correct             bool                  `json:"correct"`
	Breakdown           domain.ScoreBreakdown `json:"scoreBreakdown"`
	Profile             domain.UserProfile    `json:"profile"`
	UnlockedAchievement []string              `json:"unlockedAchievements,omitempty"`
	Explanation         string                `json:"explanation,omitempty"`
}

// SubmitAnswer validates the answer, scores it against the user's current
// streak and accuracy, persists the stats update, and reports achievements
// that the update newly unlocked.
func (s *TriviaService) SubmitAnswer(ctx context.Context, userID int64, q domain.Question, answer string, timeTaken float64) (AnswerOutcome, error) {
	correct, err := ValidateAnswer(q, answer)
	if err != nil {
		return AnswerOutcome{}, err
	}
	return s.RecordAnswer(ctx, userID, q, correct, timeTaken)
}

// RecordAnswer scores and persists an answer whose correctness was decided
// by an external validator.
func (s *TriviaService) RecordAnswer(ctx context.Context, userID int64, q domain.Question, correct bool, timeTaken float64) (AnswerOutcome, error) {
	before, err := s.progress.GetOrCreate(ctx, userID)
	if err != nil {
		return AnswerOutcome{}, fmt.Errorf("load profile: %w", err)
	}

	breakdown := TotalScore(ScoreInput{
		Difficulty:    q.Difficulty,
		Correct:       correct,
		TimeTaken:     timeTaken,
		CurrentStreak: before.CurrentStreak,
		UserAccuracy:  before.AccuracyPercentage(),
	})

	after, err := s.progress.UpdateStats(ctx, userID, StatsUpdate{
		Points:     breakdown.TotalPoints,
		Correct:    correct,
		Difficulty: q.Difficulty,
		Category:   q.Category,
	})
	if err != nil {
		return AnswerOutcome{}, fmt.Errorf("update stats: %w", err)
	}

	return AnswerOutcome{
		Correct:             correct,
		Breakdown:           breakdown,
		Profile:             after,
		UnlockedAchievement: NewlyUnlocked(before, after),
		Explanation:         q.Explanation,
	}, nil
}

// Profile returns the user's profile, creating it on first reference.
func (s *TriviaService) Profile(ctx context.Context, userID int64) (domain.UserProfile, error) {
	return s.progress.GetOrCreate(ctx, userID)
}

// AchievementReport lists progress toward every catalog entry for a user.
func (s *TriviaService) AchievementReport(ctx context.Context, userID int64) (map[string]float64, error) {
	profile, err := s.progress.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	report := make(map[string]float64, len(domain.Achievements))
	for _, a := range domain.Achievements {
		report[a.ID] = AchievementProgress(a.Requirement, profile)
	}
	return report, nil
}

// ResetProfile zeroes a user's counters and challenge completion dates.
func (s *TriviaService) ResetProfile(ctx context.Context, userID int64) error {
	return s.progress.Reset(ctx, userID)
}
