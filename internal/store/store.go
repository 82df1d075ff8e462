// Package store opens the repositories selected by configuration.
package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"treasure-hunt/internal/config"
	"treasure-hunt/internal/repository"
	"treasure-hunt/internal/repository/memory"
	"treasure-hunt/internal/repository/mongo"
	"treasure-hunt/internal/repository/sqlite"
)

// Store bundles the repositories of one backend.
type Store struct {
	Users  repository.UserRepository
	Rounds repository.RoundRepository
	Health repository.Pinger

	close func(ctx context.Context) error
}

// Open connects to the configured backend and initializes its schema.
// An unreachable backend is reported as an error; callers treat it as fatal.
func Open(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*Store, error) {
	var s *Store

	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		s = &Store{
			Users:  sqlite.NewUserRepository(db),
			Rounds: sqlite.NewRoundRepository(db),
			Health: sqlite.NewPinger(db),
			close:  func(context.Context) error { return db.Close() },
		}
		log.Infof("using sqlite database %s", cfg.Database.Path)

	case config.DriverMongo:
		client, err := mongo.Connect(ctx, cfg.Database.URI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Database.Name)
		s = &Store{
			Users:  mongo.NewUserRepository(db),
			Rounds: mongo.NewRoundRepository(db),
			Health: mongo.NewPinger(client),
			close:  client.Disconnect,
		}
		log.Infof("using mongo database %s", cfg.Database.Name)

	case config.DriverMemory:
		s = &Store{
			Users:  memory.NewUserRepository(),
			Rounds: memory.NewRoundRepository(),
			Health: memory.NewPinger(),
			close:  func(context.Context) error { return nil },
		}
		log.Warn("using in-memory store, data is lost on restart")

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	if err := s.Users.Init(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, fmt.Errorf("init user repository: %w", err)
	}
	if err := s.Rounds.Init(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, fmt.Errorf("init round repository: %w", err)
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
