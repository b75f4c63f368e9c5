package interfaces

import (
	"context"

	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

// CaseSource is the hosted backend's query/mutation API for the "cases" and
// "public_cases" collections. Errors are wrapped with the model sentinels
// (ErrUnauthenticated, ErrTransient, ErrNotFound, ErrConflict).
type CaseSource interface {
	// ListOwnedCases returns every case visible in scope, newest first by creation time
	ListOwnedCases(ctx context.Context, scope model.Scope) ([]*model.Case, error)

	// ListPublicCases returns the unclaimed leads, newest first by creation time
	ListPublicCases(ctx context.Context) ([]*model.PublicCase, error)

	// UpdateCaseStatus partially updates a single owned case
	UpdateCaseStatus(ctx context.Context, id string, update model.StatusUpdate) error

	// UpdatePublicCase writes a status change to a public case. The backend
	// migrates the lead into owner's cases and removes it from the public pool.
	UpdatePublicCase(ctx context.Context, id string, owner model.Scope, update model.StatusUpdate) error

	// CreateCase stores a case from the intake form. An empty ID is assigned.
	CreateCase(ctx context.Context, c *model.Case) (*model.Case, error)

	// CreatePublicCase publishes a lead. An empty ID is assigned.
	CreatePublicCase(ctx context.Context, c *model.PublicCase) (*model.PublicCase, error)
}
