package repository

import (
	"context"

	"treasure-hunt/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// SetCurrentRound overwrites the round pointer unconditionally.
	SetCurrentRound(ctx context.Context, id string, round int) error
	// CompareAndSwapRound moves the pointer from -> to only if it still equals from.
	// It returns ErrConflict when the stored value differs.
	CompareAndSwapRound(ctx context.Context, id string, from, to int) error
}
