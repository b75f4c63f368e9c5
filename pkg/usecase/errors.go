package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	ErrAlreadyStarted = goerr.New("already started")
)

// Context keys for error values
const (
	CaseIDKey = "case_id"
	ScopeKey  = "scope"
)
