package app

import (
	"fmt"

	"trivia-challenge-service/internal/domain"
)

// DefaultMaxTime is the answer window, in seconds, used when a caller does
// not supply one.
const DefaultMaxTime = 30.0

// ChallengeMultiplier is applied per question when scoring inside a
// challenge. Weekly completion triples the accumulated total separately at
// finalization.
const ChallengeMultiplier = 2.0

// BasePoints returns the base point value for a correct answer at the given
// difficulty, or 0 for an incorrect one. Unrecognized difficulties fall back
// to the medium value.
func BasePoints(difficulty domain.Difficulty, correct bool) int {
	if !correct {
		return 0
	}
	return domain.BasePointValue(difficulty)
}

// TimeBonusMultiplier rewards fast answers. With the 30-second default the
// tiers are: within 5s → 1.5x, within 10s → 1.3x, within 20s → 1.1x, else
// 1.0x; the thresholds scale with maxTime. Negative timeTaken counts as the
// fastest tier, and a non-positive maxTime disables the bonus instead of
// dividing by zero.
func TimeBonusMultiplier(timeTaken, maxTime float64) float64 {
	if maxTime <= 0 {
		return 1.0
	}
	if timeTaken < 0 {
		return 1.5
	}
	if timeTaken >= maxTime {
		return 1.0
	}
	ratio := timeTaken / maxTime
	switch {
	case ratio <= 1.0/6.0:
		return 1.5
	case ratio <= 1.0/3.0:
		return 1.3
	case ratio <= 2.0/3.0:
		return 1.1
	default:
		return 1.0
	}
}

// StreakBonus is the additive bonus for consecutive correct answers, capped
// at 30.
func StreakBonus(currentStreak int) int {
	switch {
	case currentStreak < 3:
		return 0
	case currentStreak < 5:
		return 5
	case currentStreak < 10:
		return 10
	case currentStreak < 20:
		return 20
	default:
		return 30
	}
}

// DifficultyProgressionMultiplier rewards sustained accuracy on harder
// questions. Below 60% accuracy there is never a bonus, and easy questions
// never receive one.
func DifficultyProgressionMultiplier(difficulty domain.Difficulty, userAccuracy float64) float64 {
	if userAccuracy < 60 {
		return 1.0
	}
	switch {
	case difficulty == domain.DifficultyHard && userAccuracy >= 70:
		return 1.2
	case difficulty == domain.DifficultyMedium && userAccuracy >= 80:
		return 1.1
	default:
		return 1.0
	}
}

// ScoreInput carries everything TotalScore needs. Out-of-range optional
// inputs (negative streak, accuracy outside [0,100]) are clamped rather than
// rejected.
type ScoreInput struct {
	Difficulty    domain.Difficulty
	Correct       bool
	TimeTaken     float64
	CurrentStreak int
	UserAccuracy  float64
	MaxTime       float64 // 0 means DefaultMaxTime
	IsChallenge   bool
}

// TotalScore composes base points, time bonus, streak bonus, difficulty
// progression, and the challenge multiplier into a ScoreBreakdown. The
// multiplicative part is truncated toward zero before the additive streak
// bonus is applied. An incorrect answer short-circuits to an all-zero
// breakdown.
func TotalScore(in ScoreInput) domain.ScoreBreakdown {
	result := domain.ScoreBreakdown{
		TimeBonusMultiplier: 1.0,
		DifficultyBonus:     1.0,
		ChallengeMultiplier: 1.0,
	}

	if !in.Correct {
		result.Breakdown = append(result.Breakdown, "Incorrect answer: 0 points")
		return result
	}

	maxTime := in.MaxTime
	if maxTime == 0 {
		maxTime = DefaultMaxTime
	}
	streak := in.CurrentStreak
	if streak < 0 {
		streak = 0
	}
	accuracy := in.UserAccuracy
	if accuracy < 0 {
		accuracy = 0
	} else if accuracy > 100 {
		accuracy = 100
	}

	base := BasePoints(in.Difficulty, true)
	result.BasePoints = base
	result.Breakdown = append(result.Breakdown, fmt.Sprintf("Base points (%s): %d", in.Difficulty, base))

	timeMult := TimeBonusMultiplier(in.TimeTaken, maxTime)
	result.TimeBonusMultiplier = timeMult
	if timeMult > 1.0 {
		result.Breakdown = append(result.Breakdown, fmt.Sprintf("Speed bonus: %.1fx", timeMult))
	}

	streakBonus := StreakBonus(streak)
	result.StreakBonus = streakBonus
	if streakBonus > 0 {
		result.Breakdown = append(result.Breakdown, fmt.Sprintf("Streak bonus (%d streak): +%d", streak, streakBonus))
	}

	diffMult := DifficultyProgressionMultiplier(in.Difficulty, accuracy)
	result.DifficultyBonus = diffMult
	if diffMult > 1.0 {
		result.Breakdown = append(result.Breakdown, fmt.Sprintf("Difficulty mastery bonus: %.1fx", diffMult))
	}

	if in.IsChallenge {
		result.ChallengeMultiplier = ChallengeMultiplier
		result.Breakdown = append(result.Breakdown, fmt.Sprintf("Challenge bonus: %.1fx", ChallengeMultiplier))
	}

	total := int(float64(base)*timeMult*diffMult*result.ChallengeMultiplier) + streakBonus
	result.TotalPoints = total
	result.Breakdown = append(result.Breakdown, fmt.Sprintf("Total: %d points", total))

	return result
}
