package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-challenge-service/internal/app"
	"trivia-challenge-service/internal/domain"
)

// ProgressStore keeps each profile in a Redis hash (trivia:user:{id}).
// Read-modify-write cycles are serialized per user through striped local
// mutexes; the service runs as a single process, so local striping gives
// per-user linearizability without Redis-side scripting, and users on
// different stripes never block each other.
type ProgressStore struct {
	client *redis.Client
	now    func() time.Time

	stripes [64]sync.Mutex
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return NewProgressStoreWithClock(client, time.Now)
}

// NewProgressStoreWithClock allows deterministic timestamps in tests.
func NewProgressStoreWithClock(client *redis.Client, now func() time.Time) *ProgressStore {
	return &ProgressStore{client: client, now: now}
}

func (s *ProgressStore) lockFor(userID int64) *sync.Mutex {
	return &s.stripes[uint64(userID)%uint64(len(s.stripes))]
}

func (s *ProgressStore) key(userID int64) string {
	return fmt.Sprintf("trivia:user:%d", userID)
}

func (s *ProgressStore) GetOrCreate(ctx context.Context, userID int64) (domain.UserProfile, error) {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()
	return s.getOrCreateLocked(ctx, userID)
}

func (s *ProgressStore) getOrCreateLocked(ctx context.Context, userID int64) (domain.UserProfile, error) {
	fields, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("load profile %d: %w", userID, err)
	}
	if len(fields) > 0 {
		return profileFromFields(userID, fields), nil
	}

	profile := domain.UserProfile{UserID: userID, CreatedAt: s.now()}
	if err := s.client.HSet(ctx, s.key(userID), fieldsFromProfile(profile)).Err(); err != nil {
		return domain.UserProfile{}, fmt.Errorf("create profile %d: %w", userID, err)
	}
	return profile, nil
}

func (s *ProgressStore) UpdateStats(ctx context.Context, userID int64, update app.StatsUpdate) (domain.UserProfile, error) {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	profile, err := s.getOrCreateLocked(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}

	profile.QuestionsAnswered++
	if update.Correct {
		profile.QuestionsCorrect++
		profile.TotalPoints += update.Points
		profile.CurrentStreak++
		if profile.CurrentStreak > profile.BestStreak {
			profile.BestStreak = profile.CurrentStreak
		}
		profile.PreferredDifficulty = update.Difficulty
	} else {
		profile.CurrentStreak = 0
		profile.PreferredDifficulty = stepDown(update.Difficulty)
	}
	profile.LastPlayed = s.now()

	if err := s.client.HSet(ctx, s.key(userID), fieldsFromProfile(profile)).Err(); err != nil {
		return domain.UserProfile{}, fmt.Errorf("store profile %d: %w", userID, err)
	}
	return profile, nil
}

func stepDown(d domain.Difficulty) domain.Difficulty {
	switch d {
	case domain.DifficultyHard:
		return domain.DifficultyMedium
	case domain.DifficultyMedium:
		return domain.DifficultyEasy
	default:
		return domain.DifficultyEasy
	}
}

func (s *ProgressStore) CanAttemptChallenge(ctx context.Context, userID int64, kind app.ChallengeKind) (bool, error) {
	profile, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return false, err
	}

	today := domain.DateOf(s.now())
	switch kind {
	case app.ChallengeDaily:
		return profile.DailyCompleted == nil || *profile.DailyCompleted != today, nil
	case app.ChallengeWeekly:
		if profile.WeeklyCompleted == nil {
			return true, nil
		}
		return profile.WeeklyCompleted.WeekStart().Before(today.WeekStart()), nil
	default:
		return false, domain.ErrUnknownChallengeKind
	}
}

func (s *ProgressStore) UpdateChallengeCompletion(ctx context.Context, userID int64, kind app.ChallengeKind) error {
	var field string
	switch kind {
	case app.ChallengeDaily:
		field = "daily_challenge_completed"
	case app.ChallengeWeekly:
		field = "weekly_challenge_completed"
	default:
		return domain.ErrUnknownChallengeKind
	}

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.getOrCreateLocked(ctx, userID); err != nil {
		return err
	}
	today := domain.DateOf(s.now())
	if err := s.client.HSet(ctx, s.key(userID), field, today.String()).Err(); err != nil {
		return fmt.Errorf("stamp %s completion %d: %w", kind, userID, err)
	}
	return nil
}

func (s *ProgressStore) Reset(ctx context.Context, userID int64) error {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	profile, err := s.getOrCreateLocked(ctx, userID)
	if err != nil {
		return err
	}

	fresh := domain.UserProfile{UserID: userID, CreatedAt: profile.CreatedAt}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(userID))
	pipe.HSet(ctx, s.key(userID), fieldsFromProfile(fresh))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("reset profile %d: %w", userID, err)
	}
	return nil
}

func fieldsFromProfile(p domain.UserProfile) map[string]interface{} {
	fields := map[string]interface{}{
		"total_points":       p.TotalPoints,
		"questions_answered": p.QuestionsAnswered,
		"questions_correct":  p.QuestionsCorrect,
		"current_streak":     p.CurrentStreak,
		"best_streak":        p.BestStreak,
		"created_at":         p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !p.LastPlayed.IsZero() {
		fields["last_played"] = p.LastPlayed.UTC().Format(time.RFC3339Nano)
	}
	if p.DailyCompleted != nil {
		fields["daily_challenge_completed"] = p.DailyCompleted.String()
	}
	if p.WeeklyCompleted != nil {
		fields["weekly_challenge_completed"] = p.WeeklyCompleted.String()
	}
	if p.PreferredDifficulty != "" {
		fields["preferred_difficulty"] = string(p.PreferredDifficulty)
	}
	return fields
}

func profileFromFields(userID int64, fields map[string]string) domain.UserProfile {
	p := domain.UserProfile{UserID: userID}
	p.TotalPoints = atoi(fields["total_points"])
	p.QuestionsAnswered = atoi(fields["questions_answered"])
	p.QuestionsCorrect = atoi(fields["questions_correct"])
	p.CurrentStreak = atoi(fields["current_streak"])
	p.BestStreak = atoi(fields["best_streak"])
	p.PreferredDifficulty = domain.Difficulty(fields["preferred_difficulty"])
	if v := fields["created_at"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			p.CreatedAt = t
		}
	}
	if v := fields["last_played"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			p.LastPlayed = t
		}
	}
	if v := fields["daily_challenge_completed"]; v != "" {
		if d, err := domain.ParseDate(v); err == nil {
			p.DailyCompleted = &d
		}
	}
	if v := fields["weekly_challenge_completed"]; v != "" {
		if d, err := domain.ParseDate(v); err == nil {
			p.WeeklyCompleted = &d
		}
	}
	return p
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
