package memory

import (
	"context"
	"sync"
	"time"

	"trivia-challenge-service/internal/app"
	"trivia-challenge-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore. Each
// user gets an entry with its own mutex, so concurrent updates for one user
// serialize while different users never contend.
type ProgressStore struct {
	now func() time.Time

	mu      sync.RWMutex // guards the map only, never held across an update
	entries map[int64]*entry
}

type entry struct {
	mu      sync.Mutex
	profile domain.UserProfile
}

func NewProgressStore() *ProgressStore {
	return NewProgressStoreWithClock(time.Now)
}

// NewProgressStoreWithClock allows deterministic timestamps in tests.
func NewProgressStoreWithClock(now func() time.Time) *ProgressStore {
	return &ProgressStore{
		now:     now,
		entries: make(map[int64]*entry),
	}
}

func (s *ProgressStore) entryFor(userID int64) *entry {
	s.mu.RLock()
	e, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[userID]; ok {
		return e
	}
	e = &entry{profile: domain.UserProfile{UserID: userID, CreatedAt: s.now()}}
	s.entries[userID] = e
	return e
}

func (s *ProgressStore) GetOrCreate(_ context.Context, userID int64) (domain.UserProfile, error) {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile, nil
}

func (s *ProgressStore) UpdateStats(_ context.Context, userID int64, update app.StatsUpdate) (domain.UserProfile, error) {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	p := &e.profile
	p.QuestionsAnswered++
	if update.Correct {
		p.QuestionsCorrect++
		p.TotalPoints += update.Points
		p.CurrentStreak++
		if p.CurrentStreak > p.BestStreak {
			p.BestStreak = p.CurrentStreak
		}
		p.PreferredDifficulty = update.Difficulty
	} else {
		p.CurrentStreak = 0
		p.PreferredDifficulty = stepDown(update.Difficulty)
	}
	p.LastPlayed = s.now()
	return *p, nil
}

// stepDown suggests one tier easier after a miss (hard→medium→easy→easy).
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

func (s *ProgressStore) CanAttemptChallenge(_ context.Context, userID int64, kind app.ChallengeKind) (bool, error) {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	today := domain.DateOf(s.now())
	switch kind {
	case app.ChallengeDaily:
		return e.profile.DailyCompleted == nil || *e.profile.DailyCompleted != today, nil
	case app.ChallengeWeekly:
		if e.profile.WeeklyCompleted == nil {
			return true, nil
		}
		return e.profile.WeeklyCompleted.WeekStart().Before(today.WeekStart()), nil
	default:
		return false, domain.ErrUnknownChallengeKind
	}
}

func (s *ProgressStore) UpdateChallengeCompletion(_ context.Context, userID int64, kind app.ChallengeKind) error {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	today := domain.DateOf(s.now())
	switch kind {
	case app.ChallengeDaily:
		e.profile.DailyCompleted = &today
	case app.ChallengeWeekly:
		e.profile.WeeklyCompleted = &today
	default:
		return domain.ErrUnknownChallengeKind
	}
	return nil
}

func (s *ProgressStore) Reset(_ context.Context, userID int64) error {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	created := e.profile.CreatedAt
	id := e.profile.UserID
	e.profile = domain.UserProfile{UserID: id, CreatedAt: created}
	return nil
}
