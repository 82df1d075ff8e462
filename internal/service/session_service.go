package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"treasure-hunt/internal/auth"
	"treasure-hunt/internal/domain"
	"treasure-hunt/internal/repository"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	User    *domain.User
	Token   string
	Session domain.Session
}

// SessionService tracks who is playing and which round they are on.
type SessionService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Resolve(token string) (domain.Session, error)
	CurrentUser(ctx context.Context, session domain.Session) (*domain.User, error)
	Advance(ctx context.Context, session domain.Session) (*domain.User, error)
}

type sessionService struct {
	users  repository.UserRepository
	issuer *auth.Issuer
	log    logrus.FieldLogger
}

func NewSessionService(users repository.UserRepository, issuer *auth.Issuer, log logrus.FieldLogger) SessionService {
	return &sessionService{
		users:  users,
		issuer: issuer,
		log:    log,
	}
}

func (s *sessionService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.SetCurrentRound(ctx, user.ID, domain.FirstRound); err != nil {
		return nil, fmt.Errorf("reset progress: %w", err)
	}
	user.CurrentRound = domain.FirstRound

	token, session, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user": user.Username, "path": user.Path}).Info("user logged in")
	return &LoginResult{
		User:    sanitizeUser(user),
		Token:   token,
		Session: session,
	}, nil
}

func (s *sessionService) Resolve(token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, ErrNotLoggedIn
	}
	session, err := s.issuer.Parse(token)
	if err != nil {
		return domain.Session{}, ErrNotLoggedIn
	}
	return session, nil
}

func (s *sessionService) CurrentUser(ctx context.Context, session domain.Session) (*domain.User, error) {
	user, err := loadSessionUser(ctx, s.users, session)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *sessionService) Advance(ctx context.Context, session domain.Session) (*domain.User, error) {
	user, err := loadSessionUser(ctx, s.users, session)
	if err != nil {
		return nil, err
	}
	if err := advanceFrom(ctx, s.users, user, user.CurrentRound); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user": user.Username, "round": user.CurrentRound}).Info("user advanced")
	return sanitizeUser(user), nil
}

func loadSessionUser(ctx context.Context, users repository.UserRepository, session domain.Session) (*domain.User, error) {
	if !session.Active() {
		return nil, ErrNotLoggedIn
	}
	user, err := users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}
	return user, nil
}

// advanceFrom moves user from round `from` to the next one, failing if the stored
// pointer is no longer `from`.
func advanceFrom(ctx context.Context, users repository.UserRepository, user *domain.User, from int) error {
	if err := users.CompareAndSwapRound(ctx, user.ID, from, from+1); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrProgressConflict
		}
		return fmt.Errorf("advance round: %w", err)
	}
	user.CurrentRound = from + 1
	return nil
}

// HashPassword returns the bcrypt hash stored for a user credential.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:           user.ID,
		Username:     user.Username,
		Path:         user.Path,
		CurrentRound: user.CurrentRound,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}
