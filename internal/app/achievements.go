package app

import (
	"sort"

	"trivia-challenge-service/internal/domain"
)

// StreakAchievements returns the IDs of every streak achievement whose
// threshold is at or below currentStreak. Monotonic: a larger streak never
// yields a smaller set.
func StreakAchievements(currentStreak int) []string {
	var ids []string
	for _, a := range domain.Achievements {
		if a.Requirement.Kind != domain.RequireStreak {
			continue
		}
		if float64(currentStreak) >= a.Requirement.Threshold {
			ids = append(ids, a.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// AchievementProgress reports progress toward one requirement as a
// percentage in [0,100]. Accuracy requirements split the range: reaching the
// minimum sample size is worth the first 50%, accuracy relative to the
// threshold drives the rest. Daily-streak requirements always report 0
// because consecutive-day play history is not tracked. Unknown kinds and
// non-positive thresholds report 0.
func AchievementProgress(req domain.Requirement, profile domain.UserProfile) float64 {
	if req.Threshold <= 0 {
		return 0
	}

	switch req.Kind {
	case domain.RequireStreak:
		return capPct(float64(profile.CurrentStreak) / req.Threshold * 100)

	case domain.RequireTotalCorrect:
		return capPct(float64(profile.QuestionsCorrect) / req.Threshold * 100)

	case domain.RequireAccuracy:
		minQ := req.MinQuestions
		if minQ <= 0 {
			minQ = 1
		}
		if profile.QuestionsAnswered < minQ {
			return float64(profile.QuestionsAnswered) / float64(minQ) * 50
		}
		accuracy := profile.AccuracyPercentage()
		if accuracy >= req.Threshold {
			return 100
		}
		return 50 + accuracy/req.Threshold*50

	case domain.RequireDailyStreak:
		// Requires consecutive-day play history, which the progress store
		// does not record.
		return 0

	default:
		return 0
	}
}

// Unlocked returns the IDs of all achievements the profile currently
// satisfies.
func Unlocked(profile domain.UserProfile) []string {
	var ids []string
	for _, a := range domain.Achievements {
		if AchievementProgress(a.Requirement, profile) >= 100 {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// NewlyUnlocked diffs achievement sets between two profile states, returning
// the IDs satisfied by after but not by before.
func NewlyUnlocked(before, after domain.UserProfile) []string {
	had := make(map[string]bool)
	for _, id := range Unlocked(before) {
		had[id] = true
	}
	var ids []string
	for _, id := range Unlocked(after) {
		if !had[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func capPct(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
