package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-challenge-service/internal/app"
	"trivia-challenge-service/internal/domain"
)

// QuestionLoader fetches the question bank from a backing store (static
// seed, Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionBank implements app.QuestionRepository over a loader, reloading
// with TTL to pick up new questions without repeated backing-store hits.
// Daily and weekly challenge selections are pinned per calendar day/week so
// repeated calls within the window return the same questions.
type QuestionBank struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu          sync.Mutex
	rnd         *rand.Rand
	byDiff      map[domain.Difficulty][]domain.Question
	expiresAt   time.Time
	dailyPins   map[string]domain.Question   // date -> question
	weeklyPins  map[string][]domain.Question // week start -> 5 questions
}

func NewQuestionBank(loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return NewQuestionBankWithClock(loader, ttl, time.Now)
}

// NewQuestionBankWithClock allows deterministic dates in tests.
func NewQuestionBankWithClock(loader QuestionLoader, ttl time.Duration, clock func() time.Time) *QuestionBank {
	return &QuestionBank{
		loader:     loader,
		ttl:        ttl,
		clock:      clock,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		byDiff:     make(map[domain.Difficulty][]domain.Question),
		dailyPins:  make(map[string]domain.Question),
		weeklyPins: make(map[string][]domain.Question),
	}
}

var difficulties = []domain.Difficulty{
	domain.DifficultyEasy,
	domain.DifficultyMedium,
	domain.DifficultyHard,
}

// GetQuestion returns a random question matching the filter, nil when none
// match. Unrecognized difficulties fall back to medium; an empty difficulty
// picks one at random.
func (b *QuestionBank) GetQuestion(ctx context.Context, filter app.QuestionFilter) (*domain.Question, error) {
	if err := b.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	difficulty := filter.Difficulty
	if difficulty == "" {
		difficulty = difficulties[b.rnd.Intn(len(difficulties))]
	} else if _, ok := domain.PointValues[difficulty]; !ok {
		difficulty = domain.DifficultyMedium
	}

	candidates := b.byDiff[difficulty]
	matches := make([]domain.Question, 0, len(candidates))
	for _, q := range candidates {
		if filter.Type != "" && q.Type != filter.Type {
			continue
		}
		if filter.Category != "" && q.Category != filter.Category {
			continue
		}
		matches = append(matches, q)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	q := matches[b.rnd.Intn(len(matches))]
	return &q, nil
}

// GetDailyQuestion returns today's pinned hard question, drawing and pinning
// it on first call of the day.
func (b *QuestionBank) GetDailyQuestion(ctx context.Context) (*domain.Question, error) {
	today := domain.DateOf(b.clock()).String()

	b.mu.Lock()
	if q, ok := b.dailyPins[today]; ok {
		b.mu.Unlock()
		return &q, nil
	}
	b.mu.Unlock()

	q, err := b.GetQuestion(ctx, app.QuestionFilter{Difficulty: domain.DifficultyHard})
	if err != nil || q == nil {
		return q, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if pinned, ok := b.dailyPins[today]; ok {
		return &pinned, nil
	}
	// New day, old pins are dead weight.
	b.dailyPins = map[string]domain.Question{today: *q}
	return q, nil
}

// weeklyDifficulties is the fixed draw order defining questions 1..5.
var weeklyDifficulties = []domain.Difficulty{
	domain.DifficultyEasy,
	domain.DifficultyEasy,
	domain.DifficultyMedium,
	domain.DifficultyMedium,
	domain.DifficultyHard,
}

// GetWeeklyQuestions returns this week's pinned five questions in the fixed
// difficulty order, or nil when five cannot be drawn.
func (b *QuestionBank) GetWeeklyQuestions(ctx context.Context) ([]domain.Question, error) {
	week := domain.DateOf(b.clock()).WeekStart().String()

	b.mu.Lock()
	if qs, ok := b.weeklyPins[week]; ok {
		b.mu.Unlock()
		return append([]domain.Question(nil), qs...), nil
	}
	b.mu.Unlock()

	questions := make([]domain.Question, 0, len(weeklyDifficulties))
	for _, difficulty := range weeklyDifficulties {
		q, err := b.GetQuestion(ctx, app.QuestionFilter{Difficulty: difficulty})
		if err != nil {
			return nil, err
		}
		if q == nil {
			return nil, nil
		}
		questions = append(questions, *q)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if pinned, ok := b.weeklyPins[week]; ok {
		return append([]domain.Question(nil), pinned...), nil
	}
	b.weeklyPins = map[string][]domain.Question{week: questions}
	return append([]domain.Question(nil), questions...), nil
}

func (b *QuestionBank) ensureLoaded(ctx context.Context) error {
	now := b.clock()

	b.mu.Lock()
	fresh := len(b.byDiff) > 0 && (b.ttl <= 0 || b.expiresAt.After(now))
	b.mu.Unlock()
	if fresh {
		return nil
	}

	_, err, _ := b.sf.Do("load", func() (interface{}, error) {
		now := b.clock()
		b.mu.Lock()
		if len(b.byDiff) > 0 && (b.ttl <= 0 || b.expiresAt.After(now)) {
			b.mu.Unlock()
			return nil, nil
		}
		b.mu.Unlock()

		questions, err := b.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		byDiff := make(map[domain.Difficulty][]domain.Question)
		for _, q := range questions {
			d := q.Difficulty
			if _, ok := domain.PointValues[d]; !ok {
				d = domain.DifficultyMedium
			}
			byDiff[d] = append(byDiff[d], q)
		}

		expiresAt := now.Add(b.ttlWithJitter())
		b.mu.Lock()
		b.byDiff = byDiff
		b.expiresAt = expiresAt
		b.mu.Unlock()
		return nil, nil
	})
	return err
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread reloads
	jitterMax := int64(b.ttl) / 10
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader serves a fixed slice (tests, demos, fallback when no
// database is configured).
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return append([]domain.Question(nil), l.questions...), nil
}
