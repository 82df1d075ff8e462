package domain

import (
	"errors"
	"strings"
)

// FirstRound is the round every login starts from.
const FirstRound = 1

// UsersCollection is reserved for user records and cannot name a path.
const UsersCollection = "users"

// ErrInvalidPath is returned for path names that cannot address a round sequence.
var ErrInvalidPath = errors.New("invalid path name")

// Round is one question of a path. Rounds are ordered by Number.
type Round struct {
	Path     string
	Number   int
	Question string
	Venue    string
	Solution string
}

// Accepts reports whether answer matches the solution ignoring case and surrounding whitespace.
func (r Round) Accepts(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(r.Solution))
}

// ValidatePath checks that name can be used as a path identifier in every store.
func ValidatePath(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return ErrInvalidPath
	case name != strings.TrimSpace(name):
		return ErrInvalidPath
	case name == UsersCollection:
		return ErrInvalidPath
	case strings.HasPrefix(name, "system."):
		return ErrInvalidPath
	case strings.ContainsAny(name, "$\x00"):
		return ErrInvalidPath
	}
	return nil
}
