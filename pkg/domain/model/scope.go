package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// Scope identifies the principal whose cases are synchronized. A non-empty
// CompanyID makes the account team-scoped: cases are selected by company
// instead of by owner.
type Scope struct {
	UserID    string
	CompanyID string
}

// Validate checks that the scope names a principal
func (s Scope) Validate() error {
	if s.UserID == "" {
		return goerr.Wrap(ErrInvalidScope, "user id is required")
	}
	return nil
}

// IsTeam reports whether the scope selects by company
func (s Scope) IsTeam() bool {
	return s.CompanyID != ""
}

// Key returns a stable identifier of the scope for cache keys
func (s Scope) Key() string {
	if s.IsTeam() {
		return "company:" + s.CompanyID
	}
	return "user:" + s.UserID
}

// Matches reports whether c is visible in this scope
func (s Scope) Matches(c *Case) bool {
	if c == nil {
		return false
	}
	if s.IsTeam() {
		return c.CompanyID != nil && *c.CompanyID == s.CompanyID
	}
	return c.UserID == s.UserID
}
