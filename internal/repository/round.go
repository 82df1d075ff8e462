package repository

import (
	"context"

	"treasure-hunt/internal/domain"
)

// RoundRepository reads and provisions the round sequence of each path.
type RoundRepository interface {
	Init(ctx context.Context) error
	// Put inserts or replaces the round identified by (round.Path, round.Number).
	Put(ctx context.Context, round *domain.Round) error
	Get(ctx context.Context, path string, number int) (*domain.Round, error)
	Count(ctx context.Context, path string) (int, error)
}
