package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-challenge-service/internal/app"
	"trivia-challenge-service/internal/domain"
)

// QuestionRepository wraps an inner question source and pins its daily and
// weekly challenge draws in Redis:
//
//	SET trivia:challenge:daily:{date}    {question JSON}
//	SET trivia:challenge:weekly:{week}   {questions JSON}
//
// so same-day/same-week determinism survives process restarts. Random
// question draws pass straight through to the inner source.
type QuestionRepository struct {
	client *redis.Client
	inner  app.QuestionRepository
	clock  func() time.Time
}

func NewQuestionRepository(client *redis.Client, inner app.QuestionRepository) *QuestionRepository {
	return NewQuestionRepositoryWithClock(client, inner, time.Now)
}

// NewQuestionRepositoryWithClock allows deterministic dates in tests.
func NewQuestionRepositoryWithClock(client *redis.Client, inner app.QuestionRepository, clock func() time.Time) *QuestionRepository {
	return &QuestionRepository{client: client, inner: inner, clock: clock}
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, filter app.QuestionFilter) (*domain.Question, error) {
	return r.inner.GetQuestion(ctx, filter)
}

func (r *QuestionRepository) GetDailyQuestion(ctx context.Context) (*domain.Question, error) {
	key := r.dailyKey(domain.DateOf(r.clock()))

	raw, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var q domain.Question
		if jsonErr := json.Unmarshal(raw, &q); jsonErr == nil {
			return &q, nil
		}
		// Corrupt pin: fall through and re-draw.
	} else if err != redis.Nil {
		return nil, fmt.Errorf("load daily pin: %w", err)
	}

	q, err := r.inner.GetDailyQuestion(ctx)
	if err != nil || q == nil {
		return q, err
	}

	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode daily pin: %w", err)
	}
	// SetNX so concurrent first draws agree on a single winner.
	set, err := r.client.SetNX(ctx, key, payload, 48*time.Hour).Result()
	if err != nil {
		return nil, fmt.Errorf("store daily pin: %w", err)
	}
	if !set {
		return r.GetDailyQuestion(ctx)
	}
	return q, nil
}

func (r *QuestionRepository) GetWeeklyQuestions(ctx context.Context) ([]domain.Question, error) {
	key := r.weeklyKey(domain.DateOf(r.clock()).WeekStart())

	raw, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var qs []domain.Question
		if jsonErr := json.Unmarshal(raw, &qs); jsonErr == nil && len(qs) > 0 {
			return qs, nil
		}
	} else if err != redis.Nil {
		return nil, fmt.Errorf("load weekly pin: %w", err)
	}

	qs, err := r.inner.GetWeeklyQuestions(ctx)
	if err != nil || len(qs) == 0 {
		return qs, err
	}

	payload, err := json.Marshal(qs)
	if err != nil {
		return nil, fmt.Errorf("encode weekly pin: %w", err)
	}
	set, err := r.client.SetNX(ctx, key, payload, 8*24*time.Hour).Result()
	if err != nil {
		return nil, fmt.Errorf("store weekly pin: %w", err)
	}
	if !set {
		return r.GetWeeklyQuestions(ctx)
	}
	return qs, nil
}

func (r *QuestionRepository) dailyKey(d domain.CivilDate) string {
	return "trivia:challenge:daily:" + d.String()
}

func (r *QuestionRepository) weeklyKey(week domain.CivilDate) string {
	return "trivia:challenge:weekly:" + week.String()
}
