package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"treasure-hunt/internal/domain"
	"treasure-hunt/internal/repository"
)

// RoundView is what a user currently sees. Round is nil when Completed is set.
type RoundView struct {
	User      *domain.User
	Round     *domain.Round
	Completed bool
}

// AnswerResult reports the outcome of one answer submission.
type AnswerResult struct {
	User    *domain.User
	Round   *domain.Round
	Correct bool
	// Completed is set when the answered round was the last one of the path.
	Completed bool
	Next      *domain.Round
}

// ProgressView summarizes how far a user is through their path.
type ProgressView struct {
	User        *domain.User
	TotalRounds int
	Solved      int
	Completed   bool
}

// HuntService reads rounds and evaluates answers against them.
type HuntService interface {
	FetchRound(ctx context.Context, path string, number int) (*domain.Round, error)
	CheckAnswer(round *domain.Round, answer string) bool
	CurrentRound(ctx context.Context, session domain.Session) (*RoundView, error)
	SubmitAnswer(ctx context.Context, session domain.Session, answer string) (*AnswerResult, error)
	Progress(ctx context.Context, session domain.Session) (*ProgressView, error)
}

type huntService struct {
	users  repository.UserRepository
	rounds repository.RoundRepository
	log    logrus.FieldLogger
}

func NewHuntService(users repository.UserRepository, rounds repository.RoundRepository, log logrus.FieldLogger) HuntService {
	return &huntService{
		users:  users,
		rounds: rounds,
		log:    log,
	}
}

func (s *huntService) FetchRound(ctx context.Context, path string, number int) (*domain.Round, error) {
	if number < domain.FirstRound {
		return nil, ErrRoundNotFound
	}
	round, err := s.rounds.Get(ctx, path, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, domain.ErrInvalidPath) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("fetch round %d of %s: %w", number, path, err)
	}
	return round, nil
}

func (s *huntService) CheckAnswer(round *domain.Round, answer string) bool {
	if round == nil {
		return false
	}
	return round.Accepts(answer)
}

func (s *huntService) CurrentRound(ctx context.Context, session domain.Session) (*RoundView, error) {
	user, err := loadSessionUser(ctx, s.users, session)
	if err != nil {
		return nil, err
	}

	round, err := s.FetchRound(ctx, user.Path, user.CurrentRound)
	if err != nil {
		// the pointer only passes a round that exists, so a gap after round 1 means the path is done
		if errors.Is(err, ErrRoundNotFound) && user.CurrentRound > domain.FirstRound {
			return &RoundView{User: sanitizeUser(user), Completed: true}, nil
		}
		return nil, err
	}
	return &RoundView{User: sanitizeUser(user), Round: round}, nil
}

func (s *huntService) SubmitAnswer(ctx context.Context, session domain.Session, answer string) (*AnswerResult, error) {
	user, err := loadSessionUser(ctx, s.users, session)
	if err != nil {
		return nil, err
	}

	current := user.CurrentRound
	round, err := s.FetchRound(ctx, user.Path, current)
	if err != nil {
		return nil, err
	}

	logger := s.log.WithFields(logrus.Fields{"user": user.Username, "path": user.Path, "round": current})
	if !s.CheckAnswer(round, answer) {
		logger.Debug("incorrect answer")
		return &AnswerResult{User: sanitizeUser(user), Round: round}, nil
	}

	// resolve the outcome before moving the pointer so a failed read leaves progress untouched
	next, err := s.FetchRound(ctx, user.Path, current+1)
	completed := false
	if err != nil {
		if !errors.Is(err, ErrRoundNotFound) {
			return nil, err
		}
		next = nil
		completed = true
	}

	if err := advanceFrom(ctx, s.users, user, current); err != nil {
		return nil, err
	}
	logger.WithField("completed", completed).Info("correct answer")

	return &AnswerResult{
		User:      sanitizeUser(user),
		Round:     round,
		Correct:   true,
		Completed: completed,
		Next:      next,
	}, nil
}

func (s *huntService) Progress(ctx context.Context, session domain.Session) (*ProgressView, error) {
	user, err := loadSessionUser(ctx, s.users, session)
	if err != nil {
		return nil, err
	}
	total, err := s.rounds.Count(ctx, user.Path)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPath) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("count rounds of %s: %w", user.Path, err)
	}

	solved := user.CurrentRound - domain.FirstRound
	return &ProgressView{
		User:        sanitizeUser(user),
		TotalRounds: total,
		Solved:      solved,
		Completed:   total > 0 && solved >= total,
	}, nil
}
