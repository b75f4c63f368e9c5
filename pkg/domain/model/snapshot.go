package model

import "time"

// CaseSnapshot is the last successfully fetched case list kept by the local
// cache store. It has no freshness bound.
type CaseSnapshot struct {
	Cases      []*Case   `json:"cases"`
	CapturedAt time.Time `json:"captured_at"`
}

// NewCaseSnapshot copies cases into a snapshot captured at at
func NewCaseSnapshot(cases []*Case, at time.Time) *CaseSnapshot {
	copied := CloneCases(cases)
	if copied == nil {
		copied = []*Case{}
	}
	return &CaseSnapshot{
		Cases:      copied,
		CapturedAt: at,
	}
}

// Age returns how long ago the snapshot was captured
func (s *CaseSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.CapturedAt)
}
