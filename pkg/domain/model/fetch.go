package model

import (
	"time"

	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

// FetchResult is what a fetch request produced for the UI
type FetchResult struct {
	Cases       []*Case
	PublicCases []*PublicCase
	Source      types.DataSource
	// Stale is set when Cases came from the local cache instead of the backend
	Stale   bool
	Skipped types.SkipReason
	Notice  types.Notice
	// CapturedAt is when the returned case list was read from the backend
	CapturedAt time.Time
}

// Degraded reports whether the result is served without a fresh remote read
func (r *FetchResult) Degraded() bool {
	return r.Source != types.DataSourceRemote && r.Skipped == types.SkipNone
}

// CaseState is the observable state of the synchronized case list
type CaseState struct {
	State       types.SyncState
	Cases       []*Case
	PublicCases []*PublicCase
	Stale       bool
	Online      bool
	UpdatedAt   time.Time
}
