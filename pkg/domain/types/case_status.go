package types

import "strings"

// CaseStatus is the work-order status of a case. The backend stores it as
// free text: values outside the known set are accepted and preserved.
type CaseStatus string

const (
	CaseStatusScheduled  CaseStatus = "Scheduled"
	CaseStatusInProgress CaseStatus = "In Progress"
	CaseStatusCompleted  CaseStatus = "Completed"
	CaseStatusCancelled  CaseStatus = "Cancelled"
)

// AllCaseStatuses returns the statuses offered by the UI
func AllCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusScheduled,
		CaseStatusInProgress,
		CaseStatusCompleted,
		CaseStatusCancelled,
	}
}

// IsKnown reports whether s is one of the statuses offered by the UI
func (s CaseStatus) IsKnown() bool {
	switch s {
	case CaseStatusScheduled,
		CaseStatusInProgress,
		CaseStatusCompleted,
		CaseStatusCancelled:
		return true
	default:
		return false
	}
}

// IsCancel reports whether moving to s is the cancel transition, which
// requires a reason from the user. Matching is case-insensitive because
// older rows were written as "cancelled" and "Canceled".
func (s CaseStatus) IsCancel() bool {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "cancelled", "canceled":
		return true
	default:
		return false
	}
}

// String returns the string representation of the case status
func (s CaseStatus) String() string {
	return string(s)
}

// Normalize returns the status, treating empty as CaseStatusScheduled
func (s CaseStatus) Normalize() CaseStatus {
	if strings.TrimSpace(string(s)) == "" {
		return CaseStatusScheduled
	}
	return s
}

// Transitions returns the statuses the UI offers from the given status.
// This is presentation guidance, not enforcement: any status may be written.
func Transitions(from CaseStatus) []CaseStatus {
	switch from.Normalize() {
	case CaseStatusScheduled:
		return []CaseStatus{CaseStatusInProgress, CaseStatusCancelled}
	case CaseStatusInProgress:
		return []CaseStatus{CaseStatusCompleted, CaseStatusScheduled, CaseStatusCancelled}
	case CaseStatusCompleted:
		return nil
	default:
		if from.IsCancel() {
			return []CaseStatus{CaseStatusScheduled}
		}
		return AllCaseStatuses()
	}
}

// SubStatus is the secondary status used by the parts-return workflow
type SubStatus string

const (
	SubStatusNone            SubStatus = ""
	SubStatusPartsOrdered    SubStatus = "Parts Ordered"
	SubStatusPartsReceived   SubStatus = "Parts Received"
	SubStatusReturnRequested SubStatus = "Return Requested"
	SubStatusReturned        SubStatus = "Returned"
)

// AllSubStatuses returns the parts-return sub statuses offered by the UI
func AllSubStatuses() []SubStatus {
	return []SubStatus{
		SubStatusPartsOrdered,
		SubStatusPartsReceived,
		SubStatusReturnRequested,
		SubStatusReturned,
	}
}

// String returns the string representation of the sub status
func (s SubStatus) String() string {
	return string(s)
}
