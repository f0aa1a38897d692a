package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"trivia-challenge-service/internal/app"
	"trivia-challenge-service/internal/domain"
)

// testClock is an adjustable clock shared by a service and its stores.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(at time.Time) *testClock {
	return &testClock{now: at}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// stubRepo serves fixed daily and weekly questions.
type stubRepo struct {
	daily  *domain.Question
	weekly []domain.Question
}

func (r *stubRepo) GetQuestion(_ context.Context, filter app.QuestionFilter) (*domain.Question, error) {
	if r.daily != nil && (filter.Difficulty == "" || filter.Difficulty == r.daily.Difficulty) {
		q := *r.daily
		return &q, nil
	}
	for _, q := range r.weekly {
		if filter.Difficulty == "" || filter.Difficulty == q.Difficulty {
			q := q
			return &q, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) GetDailyQuestion(_ context.Context) (*domain.Question, error) {
	if r.daily == nil {
		return nil, nil
	}
	q := *r.daily
	return &q, nil
}

func (r *stubRepo) GetWeeklyQuestions(_ context.Context) ([]domain.Question, error) {
	return append([]domain.Question(nil), r.weekly...), nil
}

func dailyFixture() *domain.Question {
	return &domain.Question{
		ID:            100,
		Text:          "Approximately how many minutes does sunlight take to reach Earth?",
		Type:          domain.MultipleChoice,
		Difficulty:    domain.DifficultyHard,
		Category:      "space",
		Options:       []string{"2", "8", "20"},
		CorrectAnswer: "8",
		Explanation:   "About 8 minutes 20 seconds.",
	}
}

func weeklyFixture() []domain.Question {
	return []domain.Question{
		{ID: 201, Text: "w1", Type: domain.TrueFalse, Difficulty: domain.DifficultyEasy, CorrectAnswer: "true"},
		{ID: 202, Text: "w2", Type: domain.TrueFalse, Difficulty: domain.DifficultyEasy, CorrectAnswer: "true"},
		{ID: 203, Text: "w3", Type: domain.TrueFalse, Difficulty: domain.DifficultyMedium, CorrectAnswer: "true"},
		{ID: 204, Text: "w4", Type: domain.TrueFalse, Difficulty: domain.DifficultyMedium, CorrectAnswer: "true"},
		{ID: 205, Text: "w5", Type: domain.TrueFalse, Difficulty: domain.DifficultyHard, CorrectAnswer: "true"},
	}
}

// flakyStore wraps a ProgressStore and fails selected operations on demand.
type flakyStore struct {
	app.ProgressStore
	failUpdateStats int // number of UpdateStats calls left to fail
	failCompletion  int
}

var errInjected = errors.New("injected storage failure")

func (s *flakyStore) UpdateStats(ctx context.Context, userID int64, update app.StatsUpdate) (domain.UserProfile, error) {
	if s.failUpdateStats > 0 {
		s.failUpdateStats--
		return domain.UserProfile{}, errInjected
	}
	return s.ProgressStore.UpdateStats(ctx, userID, update)
}

func (s *flakyStore) UpdateChallengeCompletion(ctx context.Context, userID int64, kind app.ChallengeKind) error {
	if s.failCompletion > 0 {
		s.failCompletion--
		return errInjected
	}
	return s.ProgressStore.UpdateChallengeCompletion(ctx, userID, kind)
}

// blockingStore wraps a ProgressStore and, once armed, parks the next
// UpdateStats call inside the store until released. Lets a test hold one
// caller mid-write while a second races it.
type blockingStore struct {
	app.ProgressStore
	mu      sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func newBlockingStore(inner app.ProgressStore) *blockingStore {
	return &blockingStore{
		ProgressStore: inner,
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (s *blockingStore) arm() {
	s.mu.Lock()
	s.armed = true
	s.mu.Unlock()
}

func (s *blockingStore) UpdateStats(ctx context.Context, userID int64, update app.StatsUpdate) (domain.UserProfile, error) {
	s.mu.Lock()
	trip := s.armed
	s.armed = false // one-shot
	s.mu.Unlock()
	if trip {
		close(s.entered)
		<-s.release
	}
	return s.ProgressStore.UpdateStats(ctx, userID, update)
}
