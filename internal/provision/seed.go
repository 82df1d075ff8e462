// Package provision loads users and round sequences from a seed document.
// Users are created out of band; the hunt itself never creates or deletes them.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"treasure-hunt/internal/domain"
	"treasure-hunt/internal/repository"
	"treasure-hunt/internal/service"
)

// Seed is the document format:
//
//	paths:
//	  - name: pathA
//	    rounds:
//	      - {round: 1, question: "...", venue: "...", solution: "gold"}
//	users:
//	  - {username: alice, password: secret, path: pathA}
type Seed struct {
	Paths []SeedPath `mapstructure:"paths"`
	Users []SeedUser `mapstructure:"users"`
}

type SeedPath struct {
	Name   string      `mapstructure:"name"`
	Rounds []SeedRound `mapstructure:"rounds"`
}

type SeedRound struct {
	Round    int    `mapstructure:"round"`
	Question string `mapstructure:"question"`
	Venue    string `mapstructure:"venue"`
	Solution string `mapstructure:"solution"`
}

type SeedUser struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Path     string `mapstructure:"path"`
}

// Parse decodes a seed document in the given format (yaml, json or toml).
func Parse(r io.Reader, format string) (*Seed, error) {
	v := viper.New()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}

	var seed Seed
	if err := v.Unmarshal(&seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate checks that every path is numbered 1..N without gaps and that every user
// refers to a declared path.
func (s *Seed) Validate() error {
	var errs []error
	paths := make(map[string]struct{}, len(s.Paths))

	for _, p := range s.Paths {
		if err := domain.ValidatePath(p.Name); err != nil {
			errs = append(errs, fmt.Errorf("path %q: %w", p.Name, err))
			continue
		}
		if _, dup := paths[p.Name]; dup {
			errs = append(errs, fmt.Errorf("path %q declared twice", p.Name))
			continue
		}
		paths[p.Name] = struct{}{}

		numbers := make([]int, 0, len(p.Rounds))
		for _, r := range p.Rounds {
			if strings.TrimSpace(r.Solution) == "" {
				errs = append(errs, fmt.Errorf("path %q round %d: solution is required", p.Name, r.Round))
			}
			numbers = append(numbers, r.Round)
		}
		sort.Ints(numbers)
		for i, n := range numbers {
			if n != domain.FirstRound+i {
				errs = append(errs, fmt.Errorf("path %q: rounds must be numbered %d..%d without gaps", p.Name, domain.FirstRound, len(numbers)))
				break
			}
		}
	}

	usernames := make(map[string]struct{}, len(s.Users))
	for _, u := range s.Users {
		name := strings.TrimSpace(u.Username)
		switch {
		case name == "":
			errs = append(errs, errors.New("user without username"))
			continue
		case u.Password == "":
			errs = append(errs, fmt.Errorf("user %q: password is required", name))
		}
		if _, dup := usernames[name]; dup {
			errs = append(errs, fmt.Errorf("user %q declared twice", name))
		}
		usernames[name] = struct{}{}
		if _, ok := paths[u.Path]; !ok {
			errs = append(errs, fmt.Errorf("user %q: unknown path %q", name, u.Path))
		}
	}

	return errors.Join(errs...)
}

// Result counts what Apply wrote.
type Result struct {
	Rounds       int
	UsersCreated int
	UsersSkipped int
}

// Apply writes the seed into the store. Rounds are upserted; existing users are left untouched.
func Apply(ctx context.Context, seed *Seed, users repository.UserRepository, rounds repository.RoundRepository, log logrus.FieldLogger) (*Result, error) {
	var res Result

	for _, p := range seed.Paths {
		for _, r := range p.Rounds {
			err := rounds.Put(ctx, &domain.Round{
				Path:     p.Name,
				Number:   r.Round,
				Question: r.Question,
				Venue:    r.Venue,
				Solution: r.Solution,
			})
			if err != nil {
				return &res, fmt.Errorf("path %s round %d: %w", p.Name, r.Round, err)
			}
			res.Rounds++
		}
		log.WithFields(logrus.Fields{"path": p.Name, "rounds": len(p.Rounds)}).Info("path provisioned")
	}

	for _, u := range seed.Users {
		hash, err := service.HashPassword(u.Password)
		if err != nil {
			return &res, fmt.Errorf("user %s: %w", u.Username, err)
		}
		_, err = users.Create(ctx, &domain.User{
			Username:     strings.TrimSpace(u.Username),
			PasswordHash: hash,
			Path:         u.Path,
			CurrentRound: domain.FirstRound,
		})
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				log.WithField("user", u.Username).Warn("user already exists, skipping")
				res.UsersSkipped++
				continue
			}
			return &res, fmt.Errorf("user %s: %w", u.Username, err)
		}
		res.UsersCreated++
	}

	return &res, nil
}
