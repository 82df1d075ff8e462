// Package memory holds process-local repositories. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"treasure-hunt/internal/domain"
	"treasure-hunt/internal/repository"
)

type UserRepository struct {
	mu         sync.Mutex
	byID       map[string]*domain.User
	byUsername map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Init(context.Context) error { return nil }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUsername[user.Username]; exists {
		return "", fmt.Errorf("insert user %s: %w", user.Username, repository.ErrAlreadyExists)
	}
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CurrentRound < domain.FirstRound {
		user.CurrentRound = domain.FirstRound
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	r.byID[stored.ID] = &stored
	r.byUsername[stored.Username] = stored.ID
	return stored.ID, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := *r.byID[id]
	return &user, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := *stored
	return &user, nil
}

func (r *UserRepository) SetCurrentRound(_ context.Context, id string, round int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.CurrentRound = round
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) CompareAndSwapRound(_ context.Context, id string, from, to int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok || stored.CurrentRound != from {
		return repository.ErrConflict
	}
	stored.CurrentRound = to
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

type roundKey struct {
	path   string
	number int
}

type RoundRepository struct {
	mu     sync.RWMutex
	rounds map[roundKey]domain.Round
}

func NewRoundRepository() *RoundRepository {
	return &RoundRepository{rounds: make(map[roundKey]domain.Round)}
}

var _ repository.RoundRepository = (*RoundRepository)(nil)

func (r *RoundRepository) Init(context.Context) error { return nil }

func (r *RoundRepository) Put(_ context.Context, round *domain.Round) error {
	if err := domain.ValidatePath(round.Path); err != nil {
		return fmt.Errorf("put round %q: %w", round.Path, err)
	}
	r.mu.Lock()
	r.rounds[roundKey{round.Path, round.Number}] = *round
	r.mu.Unlock()
	return nil
}

func (r *RoundRepository) Get(_ context.Context, path string, number int) (*domain.Round, error) {
	r.mu.RLock()
	round, ok := r.rounds[roundKey{path, number}]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &round, nil
}

func (r *RoundRepository) Count(_ context.Context, path string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for key := range r.rounds {
		if key.path == path {
			n++
		}
	}
	return n, nil
}

type pinger struct{}

// NewPinger always reports the store as reachable.
func NewPinger() repository.Pinger { return pinger{} }

func (pinger) Ping(context.Context) error { return nil }
