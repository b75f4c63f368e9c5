package interfaces

import (
	"context"

	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

// CacheStore persists the last known case list for one installation
type CacheStore interface {
	// Get returns the stored snapshot, or nil without error when none exists
	Get(ctx context.Context) (*model.CaseSnapshot, error)

	// Put replaces the stored snapshot. Readers never see a partial write.
	Put(ctx context.Context, snapshot *model.CaseSnapshot) error

	// Clear removes the stored snapshot
	Clear(ctx context.Context) error

	// HasData reports whether a snapshot exists without decoding it
	HasData(ctx context.Context) (bool, error)

	Close() error
}
