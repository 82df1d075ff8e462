package domain

import "time"

// User represents a hunt participant assigned to a single path.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Path         string
	CurrentRound int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
