package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

// StatusUpdate is the single-field status write plus its side fields
type StatusUpdate struct {
	Status             types.CaseStatus
	SubStatus          types.SubStatus
	CancellationReason string
}

// Validate checks the client side preconditions of a status write
func (u StatusUpdate) Validate() error {
	if strings.TrimSpace(string(u.Status)) == "" {
		return goerr.Wrap(ErrInvalidStatus, "status is required")
	}
	if u.Status.IsCancel() && strings.TrimSpace(u.CancellationReason) == "" {
		return goerr.Wrap(ErrCancelReasonRequired, "cancellation reason is empty", goerr.V(StatusKey, u.Status))
	}
	return nil
}

// Fields returns the backend columns written by the update
func (u StatusUpdate) Fields() map[string]any {
	fields := map[string]any{
		"status": string(u.Status),
	}
	if u.SubStatus != "" {
		fields["sub_status"] = string(u.SubStatus)
	}
	if reason := strings.TrimSpace(u.CancellationReason); reason != "" {
		fields["cancellation_reason"] = reason
	}
	return fields
}

// StatusOutcome reports what a successful status change did
type StatusOutcome struct {
	CaseID string
	Status types.CaseStatus
	// Claimed is true when the case was a public lead that migrated into the
	// owner's collection. It shows up in the owned list on the next fetch.
	Claimed bool
}
