package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-challenge-service/internal/domain"
)

// QuestionLoader loads the question bank from Postgres. Option lists and
// answer variations are stored as JSONB arrays.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, text, type, difficulty, category, correct_answer,
		       COALESCE(options, '[]'::jsonb),
		       COALESCE(answer_variations, '[]'::jsonb),
		       COALESCE(explanation, '')
		FROM questions`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q             domain.Question
			rawOptions    []byte
			rawVariations []byte
		)
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &q.Difficulty, &q.Category,
			&q.CorrectAnswer, &rawOptions, &rawVariations, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(rawOptions, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options for question %d: %w", q.ID, err)
		}
		if err := json.Unmarshal(rawVariations, &q.AnswerVariations); err != nil {
			return nil, fmt.Errorf("decode variations for question %d: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return questions, nil
}
