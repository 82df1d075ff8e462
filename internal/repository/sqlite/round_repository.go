package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"treasure-hunt/internal/domain"
	"treasure-hunt/internal/repository"
)

const createRoundsTable = `
CREATE TABLE IF NOT EXISTS rounds (
	path TEXT NOT NULL,
	round INTEGER NOT NULL,
	question TEXT NOT NULL,
	venue TEXT NOT NULL DEFAULT '',
	solution TEXT NOT NULL,
	PRIMARY KEY (path, round)
);
`

type RoundRepository struct {
	db *sql.DB
}

func NewRoundRepository(db *sql.DB) repository.RoundRepository {
	return &RoundRepository{db: db}
}

func (r *RoundRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createRoundsTable); err != nil {
		return fmt.Errorf("create rounds table: %w", err)
	}
	return nil
}

func (r *RoundRepository) Put(ctx context.Context, round *domain.Round) error {
	if err := domain.ValidatePath(round.Path); err != nil {
		return fmt.Errorf("put round %q: %w", round.Path, err)
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO rounds (path, round, question, venue, solution)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (path, round) DO UPDATE SET
	question = excluded.question,
	venue = excluded.venue,
	solution = excluded.solution`,
		round.Path,
		round.Number,
		round.Question,
		round.Venue,
		round.Solution,
	)
	if err != nil {
		return fmt.Errorf("upsert round: %w", err)
	}
	return nil
}

func (r *RoundRepository) Get(ctx context.Context, path string, number int) (*domain.Round, error) {
	var round domain.Round
	err := r.db.QueryRowContext(ctx, `
SELECT path, round, question, venue, solution
FROM rounds
WHERE path = ? AND round = ?`,
		path,
		number,
	).Scan(&round.Path, &round.Number, &round.Question, &round.Venue, &round.Solution)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan round: %w", err)
	}
	return &round, nil
}

func (r *RoundRepository) Count(ctx context.Context, path string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rounds WHERE path = ?`, path).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rounds: %w", err)
	}
	return n, nil
}
