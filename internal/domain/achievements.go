package domain

// RequirementKind enumerates the achievement requirement variants.
type RequirementKind string

const (
	RequireStreak       RequirementKind = "streak"
	RequireTotalCorrect RequirementKind = "total_correct"
	RequireAccuracy     RequirementKind = "accuracy"
	RequireDailyStreak  RequirementKind = "daily_streak"
)

// Requirement is a tagged variant: Kind selects which fields apply.
// MinQuestions is meaningful for RequireAccuracy only.
type Requirement struct {
	Kind         RequirementKind `json:"kind"`
	Threshold    float64         `json:"threshold"`
	MinQuestions int             `json:"minQuestions,omitempty"`
}

// Achievement is a static catalog entry, read-only at runtime.
type Achievement struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Requirement  Requirement `json:"requirement"`
	RewardPoints int         `json:"rewardPoints"`
	Glyph        string      `json:"glyph"`
}

// Achievements is the fixed catalog.
var Achievements = []Achievement{
	{
		ID:           "hot_streak",
		Name:         "Hot Streak",
		Description:  "Answer 5 questions correctly in a row",
		Requirement:  Requirement{Kind: RequireStreak, Threshold: 5},
		RewardPoints: 50,
		Glyph:        "🔥",
	},
	{
		ID:           "galaxy_expert",
		Name:         "Galaxy Expert",
		Description:  "Answer 10 questions correctly in a row",
		Requirement:  Requirement{Kind: RequireStreak, Threshold: 10},
		RewardPoints: 100,
		Glyph:        "⭐",
	},
	{
		ID:           "unstoppable",
		Name:         "Unstoppable",
		Description:  "Answer 20 questions correctly in a row",
		Requirement:  Requirement{Kind: RequireStreak, Threshold: 20},
		RewardPoints: 250,
		Glyph:        "🚀",
	},
	{
		ID:          "dedicated_fan",
		Name:        "Dedicated Fan",
		Description: "Play trivia for 7 consecutive days",
		// Consecutive-day play history is not tracked; progress for this
		// entry always reports 0 until a play-history design lands.
		Requirement:  Requirement{Kind: RequireDailyStreak, Threshold: 7},
		RewardPoints: 200,
		Glyph:        "💙",
	},
	{
		ID:           "trivia_master",
		Name:         "Trivia Master",
		Description:  "Answer 100 questions correctly",
		Requirement:  Requirement{Kind: RequireTotalCorrect, Threshold: 100},
		RewardPoints: 500,
		Glyph:        "👑",
	},
	{
		ID:           "perfectionist",
		Name:         "Perfectionist",
		Description:  "Maintain 90% accuracy over 50 questions",
		Requirement:  Requirement{Kind: RequireAccuracy, Threshold: 90, MinQuestions: 50},
		RewardPoints: 300,
		Glyph:        "💯",
	},
}

// AchievementByID looks up a catalog entry.
func AchievementByID(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Badge is a weekly-challenge completion badge tier.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Glyph       string `json:"glyph"`
	Points      int    `json:"points"`
}

const (
	BadgeWeeklyPerfect   = "weekly_perfect"
	BadgeWeeklyExcellent = "weekly_excellent"
	BadgeWeeklyGood      = "weekly_good"
)

// ChallengeBadges maps badge ID to its definition.
var ChallengeBadges = map[string]Badge{
	BadgeWeeklyPerfect: {
		ID:          BadgeWeeklyPerfect,
		Name:        "Weekly Perfect",
		Description: "Answer all 5 weekly challenge questions correctly",
		Glyph:       "🏆",
		Points:      100,
	},
	BadgeWeeklyExcellent: {
		ID:          BadgeWeeklyExcellent,
		Name:        "Weekly Excellent",
		Description: "Answer 4 out of 5 weekly challenge questions correctly",
		Glyph:       "🥇",
		Points:      75,
	},
	BadgeWeeklyGood: {
		ID:          BadgeWeeklyGood,
		Name:        "Weekly Good",
		Description: "Answer 3 out of 5 weekly challenge questions correctly",
		Glyph:       "🥉",
		Points:      50,
	},
}

// BadgeForScore returns the badge tier for a weekly run's correct-answer
// count, or "" when no badge is earned.
func BadgeForScore(correct int) string {
	switch {
	case correct >= 5:
		return BadgeWeeklyPerfect
	case correct >= 4:
		return BadgeWeeklyExcellent
	case correct >= 3:
		return BadgeWeeklyGood
	default:
		return ""
	}
}
