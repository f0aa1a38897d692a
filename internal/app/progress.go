package app

import (
	"context"

	"trivia-challenge-service/internal/domain"
)

// ChallengeKind selects a challenge track.
type ChallengeKind string

const (
	ChallengeDaily  ChallengeKind = "daily"
	ChallengeWeekly ChallengeKind = "weekly"
)

// StatsUpdate is the single atomic mutation applied to a profile after an
// answer: questions_answered increments; on a correct answer the points are
// added and the streak extends (best streak follows); on an incorrect one
// the streak resets and the preferred difficulty steps down a tier.
type StatsUpdate struct {
	Points     int
	Correct    bool
	Difficulty domain.Difficulty
	Category   string
}

// ProgressStore abstracts how user profiles are stored (in-memory, Redis).
// Implementations must serialize UpdateStats per user so concurrent updates
// for the same user never lose increments, while updates for different
// users proceed independently.
type ProgressStore interface {
	// GetOrCreate materializes a zeroed profile on first reference and is
	// idempotent afterwards (same identity, same creation timestamp).
	GetOrCreate(ctx context.Context, userID int64) (domain.UserProfile, error)
	// UpdateStats applies one StatsUpdate atomically and returns the updated
	// profile.
	UpdateStats(ctx context.Context, userID int64, update StatsUpdate) (domain.UserProfile, error)
	// CanAttemptChallenge reports daily eligibility (not completed today) or
	// weekly eligibility (not completed in the current Monday-anchored week).
	CanAttemptChallenge(ctx context.Context, userID int64, kind ChallengeKind) (bool, error)
	// UpdateChallengeCompletion stamps today's date into the track's
	// completion field.
	UpdateChallengeCompletion(ctx context.Context, userID int64, kind ChallengeKind) error
	// Reset zeroes all counters and clears both completion dates, keeping
	// identity and creation timestamp.
	Reset(ctx context.Context, userID int64) error
}

// QuestionFilter narrows question selection. Zero values mean "any".
type QuestionFilter struct {
	Difficulty domain.Difficulty
	Category   string
	Type       domain.QuestionType
}

// QuestionRepository is the external question source. Challenge draws must
// be stable: GetDailyQuestion returns the same question for repeated calls
// within one calendar day, GetWeeklyQuestions the same five (ordered
// [easy,easy,medium,medium,hard]) within one calendar week.
type QuestionRepository interface {
	GetQuestion(ctx context.Context, filter QuestionFilter) (*domain.Question, error)
	GetDailyQuestion(ctx context.Context) (*domain.Question, error)
	GetWeeklyQuestions(ctx context.Context) ([]domain.Question, error)
}

// NotificationSink consumes weekly-reset announcement payloads. Delivery is
// external; the core only produces them.
type NotificationSink interface {
	Announce(domain.Announcement)
}
