package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotLoggedIn indicates the request carries no usable session.
	ErrNotLoggedIn = errors.New("please login first")
	// ErrRoundNotFound indicates the user's pointer references a round that does not exist.
	ErrRoundNotFound = errors.New("no data found for the round")
	// ErrProgressConflict is returned when another request moved the pointer first.
	ErrProgressConflict = errors.New("progress changed by another request")
)
