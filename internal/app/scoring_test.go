package app_test

import (
	"testing"

	"trivia-challenge-service/internal/app"
	"trivia-challenge-service/internal/domain"
)

func TestBasePoints(t *testing.T) {
	cases := []struct {
		difficulty domain.Difficulty
		correct    bool
		want       int
	}{
		{domain.DifficultyEasy, true, 10},
		{domain.DifficultyMedium, true, 20},
		{domain.DifficultyHard, true, 30},
		{domain.Difficulty("nightmare"), true, 20}, // unknown falls back to medium
		{domain.DifficultyHard, false, 0},
	}
	for _, c := range cases {
		if got := app.BasePoints(c.difficulty, c.correct); got != c.want {
			t.Errorf("BasePoints(%q, %v) = %d, want %d", c.difficulty, c.correct, got, c.want)
		}
	}
}

func TestTimeBonusMultiplier(t *testing.T) {
	cases := []struct {
		name      string
		timeTaken float64
		maxTime   float64
		want      float64
	}{
		{"fastest tier", 4, 30, 1.5},
		{"fastest boundary", 5, 30, 1.5},
		{"fast tier", 9, 30, 1.3},
		{"fast boundary", 10, 30, 1.3},
		{"moderate tier", 15, 30, 1.1},
		{"moderate boundary", 20, 30, 1.1},
		{"slow", 25, 30, 1.0},
		{"at max", 30, 30, 1.0},
		{"over max", 45, 30, 1.0},
		{"negative time counts as fastest", -1, 30, 1.5},
		{"zero max disables bonus", 2, 0, 1.0},
		{"negative max disables bonus", 2, -5, 1.0},
		{"tiers scale with max", 10, 60, 1.5},
	}
	for _, c := range cases {
		if got := app.TimeBonusMultiplier(c.timeTaken, c.maxTime); got != c.want {
			t.Errorf("%s: TimeBonusMultiplier(%v, %v) = %v, want %v", c.name, c.timeTaken, c.maxTime, got, c.want)
		}
	}
}

func TestStreakBonus(t *testing.T) {
	cases := []struct {
		streak int
		want   int
	}{
		{0, 0}, {2, 0}, {3, 5}, {4, 5}, {5, 10}, {9, 10},
		{10, 20}, {19, 20}, {20, 30}, {100, 30}, {1 << 20, 30},
	}
	for _, c := range cases {
		if got := app.StreakBonus(c.streak); got != c.want {
			t.Errorf("StreakBonus(%d) = %d, want %d", c.streak, got, c.want)
		}
	}

	// Monotonic: a longer streak never earns less.
	prev := 0
	for streak := 0; streak <= 50; streak++ {
		bonus := app.StreakBonus(streak)
		if bonus < prev {
			t.Fatalf("StreakBonus(%d) = %d dropped below StreakBonus(%d) = %d", streak, bonus, streak-1, prev)
		}
		prev = bonus
	}
}

func TestDifficultyProgressionMultiplier(t *testing.T) {
	cases := []struct {
		difficulty domain.Difficulty
		accuracy   float64
		want       float64
	}{
		{domain.DifficultyHard, 75, 1.2},
		{domain.DifficultyHard, 70, 1.2},
		{domain.DifficultyHard, 65, 1.0},
		{domain.DifficultyMedium, 85, 1.1},
		{domain.DifficultyMedium, 80, 1.1},
		{domain.DifficultyMedium, 75, 1.0},
		{domain.DifficultyEasy, 100, 1.0},
		{domain.DifficultyHard, 59.9, 1.0}, // below the 60% floor
		{domain.DifficultyMedium, 0, 1.0},
	}
	for _, c := range cases {
		if got := app.DifficultyProgressionMultiplier(c.difficulty, c.accuracy); got != c.want {
			t.Errorf("DifficultyProgressionMultiplier(%q, %v) = %v, want %v", c.difficulty, c.accuracy, got, c.want)
		}
	}
}

func TestTotalScoreComposition(t *testing.T) {
	// Hard question answered in 4s on a 5-streak by a 75%-accuracy user
	// inside a challenge: trunc(30 * 1.5 * 1.2 * 2.0) + 10 = 118.
	got := app.TotalScore(app.ScoreInput{
		Difficulty:    domain.DifficultyHard,
		Correct:       true,
		TimeTaken:     4,
		CurrentStreak: 5,
		UserAccuracy:  75,
		IsChallenge:   true,
	})
	if got.TotalPoints != 118 {
		t.Fatalf("expected 118 points, got %d (breakdown %+v)", got.TotalPoints, got.Breakdown)
	}
	if got.BasePoints != 30 || got.TimeBonusMultiplier != 1.5 || got.StreakBonus != 10 ||
		got.DifficultyBonus != 1.2 || got.ChallengeMultiplier != 2.0 {
		t.Fatalf("unexpected breakdown components: %+v", got)
	}
}

func TestTotalScoreIncorrectIsZero(t *testing.T) {
	got := app.TotalScore(app.ScoreInput{
		Difficulty:    domain.DifficultyHard,
		Correct:       false,
		TimeTaken:     1,
		CurrentStreak: 25,
		UserAccuracy:  100,
		IsChallenge:   true,
	})
	if got.TotalPoints != 0 || got.BasePoints != 0 || got.StreakBonus != 0 {
		t.Fatalf("expected all-zero breakdown for incorrect answer, got %+v", got)
	}
	if len(got.Breakdown) != 1 || got.Breakdown[0] != "Incorrect answer: 0 points" {
		t.Fatalf("unexpected breakdown lines: %v", got.Breakdown)
	}
}

func TestTotalScoreClampsInputs(t *testing.T) {
	// Negative streak behaves like zero, accuracy above 100 like 100.
	got := app.TotalScore(app.ScoreInput{
		Difficulty:    domain.DifficultyMedium,
		Correct:       true,
		TimeTaken:     25,
		CurrentStreak: -3,
		UserAccuracy:  150,
	})
	// trunc(20 * 1.0 * 1.1 * 1.0) + 0 = 22
	if got.TotalPoints != 22 {
		t.Fatalf("expected 22 points, got %d", got.TotalPoints)
	}
	if got.StreakBonus != 0 {
		t.Fatalf("negative streak should earn no bonus, got %d", got.StreakBonus)
	}
}

func TestTotalScoreDefaultsMaxTime(t *testing.T) {
	// MaxTime 0 means the 30s default, so 4s lands in the fastest tier.
	got := app.TotalScore(app.ScoreInput{
		Difficulty: domain.DifficultyEasy,
		Correct:    true,
		TimeTaken:  4,
	})
	// trunc(10 * 1.5) = 15
	if got.TotalPoints != 15 {
		t.Fatalf("expected 15 points, got %d", got.TotalPoints)
	}

	// An explicit window moves the tier boundaries.
	got = app.TotalScore(app.ScoreInput{
		Difficulty: domain.DifficultyEasy,
		Correct:    true,
		TimeTaken:  4,
		MaxTime:    6,
	})
	// 4/6 = 2/3 lands in the 1.1x tier: trunc(10 * 1.1) = 11
	if got.TotalPoints != 11 {
		t.Fatalf("expected 11 points with 6s window, got %d", got.TotalPoints)
	}
}

func TestTotalScoreStreakBonusSkipsMultipliers(t *testing.T) {
	// The streak bonus is additive: it must not be doubled by the challenge
	// multiplier.
	got := app.TotalScore(app.ScoreInput{
		Difficulty:    domain.DifficultyEasy,
		Correct:       true,
		TimeTaken:     29,
		CurrentStreak: 20,
		IsChallenge:   true,
	})
	// trunc(10 * 1.0 * 1.0 * 2.0) + 30 = 50
	if got.TotalPoints != 50 {
		t.Fatalf("expected 50 points, got %d", got.TotalPoints)
	}
}
