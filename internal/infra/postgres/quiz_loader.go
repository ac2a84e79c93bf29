package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quizhost-service/internal/domain"
)

// QuizLoader loads quiz snapshot JSONB from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) GetQuizSnapshot(ctx context.Context, quizID string) (domain.QuizSnapshot, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if err != nil {
		return domain.QuizSnapshot{}, fmt.Errorf("load quiz: %w", err)
	}
	var snapshot domain.QuizSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return domain.QuizSnapshot{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	snapshot.QuizID = quizID
	return snapshot, nil
}

func (l *QuizLoader) QuestionCount(ctx context.Context, quizID string) (int, error) {
	var count int
	err := l.pool.QueryRow(ctx, `SELECT jsonb_array_length(data->'questions') FROM quizzes WHERE id=$1`, quizID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}
