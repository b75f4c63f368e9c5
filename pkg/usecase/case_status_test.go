package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
	"github.com/secmon-lab/repairdesk/pkg/repository/memory"
	"github.com/secmon-lab/repairdesk/pkg/service/connectivity"
	"github.com/secmon-lab/repairdesk/pkg/usecase"
)

func TestCaseStatus_OwnedCaseIsPatchedImmediately(t *testing.T) {
	// P4 and Scenario C: memory list and cache reflect the change without a fetch.
	e := newEnv(t, true)
	e.seedCase(t, "x", time.Hour)
	e.seedCase(t, "y", 2*time.Hour)

	_, err := e.sync.Fetch(context.Background())
	gt.NoError(t, err).Required()
	fetches := e.repo.Calls(memory.OpListOwnedCases)

	outcome, err := e.status.SetStatus(context.Background(), "x", types.CaseStatusCompleted)
	gt.NoError(t, err).Required()
	gt.Value(t, outcome.CaseID).Equal("x")
	gt.B(t, outcome.Claimed).False()

	gt.Value(t, findCase(e.sync.Cases(), "x").Status).Equal(types.CaseStatusCompleted)
	gt.Value(t, findCase(e.sync.Cases(), "y").Status).Equal(types.CaseStatusScheduled)
	gt.Value(t, e.cachedCase(t, "x").Status).Equal(types.CaseStatusCompleted)
	gt.Value(t, e.cachedCase(t, "y").Status).Equal(types.CaseStatusScheduled)
	gt.Number(t, e.repo.Calls(memory.OpListOwnedCases)).Equal(fetches)
	gt.Number(t, e.repo.Calls(memory.OpUpdateCaseStatus)).Equal(1)
}

func TestCaseStatus_SideFieldsAreWritten(t *testing.T) {
	e := newEnv(t, true)
	e.seedCase(t, "x", time.Hour)
	_, err := e.sync.Fetch(context.Background())
	gt.NoError(t, err).Required()

	_, err = e.status.SetStatus(context.Background(), "x", types.CaseStatusInProgress,
		usecase.WithSubStatus(types.SubStatusPartsOrdered))
	gt.NoError(t, err).Required()

	remote, err := e.repo.Case().ListOwnedCases(context.Background(), testScope)
	gt.NoError(t, err).Required()
	gt.Value(t, remote[0].SubStatus).Equal(types.SubStatusPartsOrdered)
	gt.Value(t, findCase(e.sync.Cases(), "x").SubStatus).Equal(types.SubStatusPartsOrdered)
}

func TestCaseStatus_PublicCaseIsClaimed(t *testing.T) {
	// P5: the lead leaves the public list and is not synthesized locally.
	e := newEnv(t, true)
	e.seedCase(t, "owned-1", time.Hour)
	e.seedPublic(t, "lead-1")
	e.seedPublic(t, "lead-2")

	_, err := e.sync.Fetch(context.Background())
	gt.NoError(t, err).Required()
	gt.A(t, e.sync.PublicCases()).Length(2)

	outcome, err := e.status.SetStatus(context.Background(), "lead-1", types.CaseStatusInProgress)
	gt.NoError(t, err).Required()
	gt.B(t, outcome.Claimed).True()

	public := e.sync.PublicCases()
	gt.A(t, public).Length(1)
	gt.Value(t, public[0].ID).Equal("lead-2")
	gt.Value(t, ids(e.sync.Cases())).Equal([]string{"owned-1"})

	// The claimed case arrives with the next fetch.
	e.clock.Advance(time.Second)
	_, err = e.sync.Fetch(context.Background())
	gt.NoError(t, err).Required()
	claimed := findCase(e.sync.Cases(), "lead-1")
	gt.Value(t, claimed).NotNil().Required()
	gt.Value(t, claimed.UserID).Equal(testScope.UserID)
	gt.Value(t, claimed.Status).Equal(types.CaseStatusInProgress)
	gt.A(t, e.sync.PublicCases()).Length(1)
}

func TestCaseStatus_OfflineIsRefused(t *testing.T) {
	// P6: no network call and no state change while offline.
	e := newEnv(t, true)
	e.seedCase(t, "x", time.Hour)
	_, err := e.sync.Fetch(context.Background())
	gt.NoError(t, err).Required()

	e.network.Set(false)
	_, err = e.status.SetStatus(context.Background(), "x", types.CaseStatusCompleted)
	gt.Error(t, err).Is(model.ErrOffline)

	gt.Number(t, e.repo.Calls(memory.OpUpdateCaseStatus)).Equal(0)
	gt.Number(t, e.repo.Calls(memory.OpUpdatePublicCase)).Equal(0)
	gt.Value(t, findCase(e.sync.Cases(), "x").Status).Equal(types.CaseStatusScheduled)
	gt.Value(t, e.cachedCase(t, "x").Status).Equal(types.CaseStatusScheduled)
}

func TestCaseStatus_CancelRequiresReason(t *testing.T) {
	// P7: blank reasons are rejected before the backend is called.
	e := newEnv(t, true)
	e.seedCase(t, "x", time.Hour)
	_, err := e.sync.Fetch(context.Background())
	gt.NoError(t, err).Required()

	for _, reason := range []string{"", "   ", "\t\n"} {
		_, err := e.status.SetStatus(context.Background(), "x", types.CaseStatusCancelled, usecase.WithReason(reason))
		gt.Error(t, err).Is(model.ErrCancelReasonRequired)
	}
	_, err = e.status.SetStatus(context.Background(), "x", "canceled")
	gt.Error(t, err).Is(model.ErrCancelReasonRequired)
	gt.Number(t, e.repo.Calls(memory.OpUpdateCaseStatus)).Equal(0)

	_, err = e.status.SetStatus(context.Background(), "x", types.CaseStatusCancelled, usecase.WithReason("customer bought a new unit"))
	gt.NoError(t, err).Required()
	c := findCase(e.sync.Cases(), "x")
	gt.Value(t, c.Status).Equal(types.CaseStatusCancelled)
	gt.Value(t, c.CancellationReason).Equal("customer bought a new unit")
}

func TestCaseStatus_RemoteFailureLeavesStateUntouched(t *testing.T) {
	e := newEnv(t, true)
	e.seedCase(t, "x", time.Hour)
	_, err := e.sync.Fetch(context.Background())
	gt.NoError(t, err).Required()

	e.repo.SetError(memory.OpUpdateCaseStatus, goerr.Wrap(model.ErrNotFound, "row deleted"))
	_, err = e.status.SetStatus(context.Background(), "x", types.CaseStatusCompleted)
	gt.Error(t, err).Is(model.ErrNotFound)

	gt.Value(t, findCase(e.sync.Cases(), "x").Status).Equal(types.CaseStatusScheduled)
	gt.Value(t, e.cachedCase(t, "x").Status).Equal(types.CaseStatusScheduled)
}

func TestCaseStatus_ClaimFailureKeepsLead(t *testing.T) {
	e := newEnv(t, true)
	e.seedPublic(t, "lead-1")
	_, err := e.sync.Fetch(context.Background())
	gt.NoError(t, err).Required()

	e.repo.SetError(memory.OpUpdatePublicCase, goerr.Wrap(model.ErrConflict, "already claimed"))
	_, err = e.status.SetStatus(context.Background(), "lead-1", types.CaseStatusScheduled)
	gt.Error(t, err).Is(model.ErrConflict)
	gt.A(t, e.sync.PublicCases()).Length(1)
}

func TestCaseStatus_UnknownCase(t *testing.T) {
	e := newEnv(t, true)
	_, err := e.status.SetStatus(context.Background(), "missing", types.CaseStatusCompleted)
	gt.Error(t, err).Is(model.ErrCaseNotFound)
	gt.Number(t, e.repo.Calls(memory.OpUpdateCaseStatus)).Equal(0)
}

func TestCaseStatus_SlowFetchWriteDoesNotRevertCache(t *testing.T) {
	repo := memory.New()
	store := newBlockingCache()
	coordinator := usecase.NewCaseSync(repo.Case(), store, connectivity.NewStatic(true), testScope, usecase.WithDebounceWindow(0))
	t.Cleanup(coordinator.Close)
	status := usecase.NewCaseStatus(repo.Case(), coordinator, connectivity.NewStatic(true), testScope)

	_, err := repo.Case().CreateCase(context.Background(), &model.Case{
		ID:        "x",
		UserID:    testScope.UserID,
		Status:    types.CaseStatusScheduled,
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	gt.NoError(t, err).Required()

	fetchDone := make(chan error, 1)
	go func() {
		_, err := coordinator.Fetch(context.Background())
		fetchDone <- err
	}()

	select {
	case <-store.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("fetch did not write the cache")
	}

	statusDone := make(chan error, 1)
	go func() {
		_, err := status.SetStatus(context.Background(), "x", types.CaseStatusCompleted)
		statusDone <- err
	}()
	eventually(t, 3*time.Second, func() bool {
		c := findCase(coordinator.Cases(), "x")
		return c != nil && c.Status == types.CaseStatusCompleted
	})

	close(store.release)
	gt.NoError(t, <-fetchDone)
	gt.NoError(t, <-statusDone)

	snapshot, err := store.Get(context.Background())
	gt.NoError(t, err).Required()
	gt.Value(t, snapshot).NotNil().Required()
	gt.A(t, snapshot.Cases).Length(1).Required()
	gt.Value(t, snapshot.Cases[0].Status).Equal(types.CaseStatusCompleted)
}
