package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
	"github.com/secmon-lab/repairdesk/pkg/service/metrics"
	"github.com/secmon-lab/repairdesk/pkg/utils/errutil"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
)

// CaseStatus changes the status of cases held by a CaseSync
type CaseStatus struct {
	source  interfaces.CaseSource
	sync    *CaseSync
	network interfaces.Connectivity
	scope   model.Scope
	now     func() time.Time
}

func NewCaseStatus(source interfaces.CaseSource, coordinator *CaseSync, network interfaces.Connectivity, scope model.Scope) *CaseStatus {
	return &CaseStatus{
		source:  source,
		sync:    coordinator,
		network: network,
		scope:   scope,
		now:     coordinator.now,
	}
}

type StatusOption func(*model.StatusUpdate)

// WithReason sets the cancellation reason
func WithReason(reason string) StatusOption {
	return func(u *model.StatusUpdate) {
		u.CancellationReason = reason
	}
}

// WithSubStatus sets the parts-return sub status written with the change
func WithSubStatus(sub types.SubStatus) StatusOption {
	return func(u *model.StatusUpdate) {
		u.SubStatus = sub
	}
}

// SetStatus writes a new status for caseID.
//
// Offline calls fail with model.ErrOffline and cancelling without a reason
// fails with model.ErrCancelReasonRequired; neither reaches the network. An
// owned case is patched in memory and in the local cache once the backend
// accepted the write. A public lead is claimed: it leaves the public list and
// appears among owned cases with the next fetch.
func (u *CaseStatus) SetStatus(ctx context.Context, caseID string, status types.CaseStatus, opts ...StatusOption) (*model.StatusOutcome, error) {
	if !u.network.Online() {
		metrics.StatusUpdates.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, goerr.Wrap(model.ErrOffline, "status change refused", goerr.V(CaseIDKey, caseID))
	}

	update := model.StatusUpdate{Status: status}
	for _, opt := range opts {
		opt(&update)
	}
	if err := update.Validate(); err != nil {
		metrics.StatusUpdates.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, goerr.Wrap(err, "status change refused", goerr.V(CaseIDKey, caseID))
	}

	owned, public := u.sync.lookup(caseID)
	switch {
	case owned:
		return u.updateOwned(ctx, caseID, update)
	case public:
		return u.claimPublic(ctx, caseID, update)
	default:
		metrics.StatusUpdates.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, goerr.Wrap(model.ErrCaseNotFound, "case is not loaded", goerr.V(CaseIDKey, caseID))
	}
}

func (u *CaseStatus) updateOwned(ctx context.Context, caseID string, update model.StatusUpdate) (*model.StatusOutcome, error) {
	if err := u.source.UpdateCaseStatus(ctx, caseID, update); err != nil {
		metrics.StatusUpdates.WithLabelValues(metrics.ResultFailed).Inc()
		err = goerr.Wrap(err, "failed to update case status",
			goerr.V(CaseIDKey, caseID),
			goerr.V(model.StatusKey, update.Status))
		return nil, errutil.Handle(ctx, err, "status change failed")
	}

	if u.sync.applyStatus(caseID, update, u.now()) {
		u.sync.persist(ctx)
	}

	metrics.StatusUpdates.WithLabelValues(metrics.ResultUpdated).Inc()
	logging.From(ctx).Info("case status updated",
		"case_id", caseID,
		"status", update.Status.String())
	return &model.StatusOutcome{CaseID: caseID, Status: update.Status}, nil
}

func (u *CaseStatus) claimPublic(ctx context.Context, caseID string, update model.StatusUpdate) (*model.StatusOutcome, error) {
	if err := u.source.UpdatePublicCase(ctx, caseID, u.scope, update); err != nil {
		metrics.StatusUpdates.WithLabelValues(metrics.ResultFailed).Inc()
		err = goerr.Wrap(err, "failed to claim public case",
			goerr.V(CaseIDKey, caseID),
			goerr.V(model.StatusKey, update.Status))
		return nil, errutil.Handle(ctx, err, "public case claim failed")
	}

	u.sync.removePublic(caseID)

	metrics.StatusUpdates.WithLabelValues(metrics.ResultClaimed).Inc()
	logging.From(ctx).Info("public case claimed",
		"case_id", caseID,
		"status", update.Status.String(),
		"scope", u.scope.Key())
	return &model.StatusOutcome{CaseID: caseID, Status: update.Status, Claimed: true}, nil
}
