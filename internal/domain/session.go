package domain

import "time"

// Session identifies the user behind a request. It is resolved from a signed token on
// every request instead of being held in process state.
type Session struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// Active reports whether the session refers to a user.
func (s Session) Active() bool {
	return s.UserID != ""
}
