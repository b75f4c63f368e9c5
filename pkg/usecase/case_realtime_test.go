package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
	"github.com/secmon-lab/repairdesk/pkg/repository/cache"
	"github.com/secmon-lab/repairdesk/pkg/repository/memory"
	"github.com/secmon-lab/repairdesk/pkg/service/connectivity"
	"github.com/secmon-lab/repairdesk/pkg/usecase"
)

type realtimeEnv struct {
	repo     *memory.Memory
	network  *connectivity.Static
	sync     *usecase.CaseSync
	realtime *usecase.CaseRealtime
}

func newRealtimeEnv(t *testing.T, settle, reconnect time.Duration) *realtimeEnv {
	t.Helper()

	e := &realtimeEnv{
		repo:    memory.New(),
		network: connectivity.NewStatic(true),
	}
	_, err := e.repo.Case().CreateCase(context.Background(), &model.Case{ID: "case-a", UserID: testScope.UserID})
	gt.NoError(t, err).Required()

	e.sync = usecase.NewCaseSync(e.repo.Case(), cache.NewMemory(), e.network, testScope,
		usecase.WithDebounceWindow(10*time.Millisecond))
	e.realtime = usecase.NewCaseRealtime(e.repo.Realtime(), e.sync, e.network, testScope,
		usecase.WithSettleDelay(settle),
		usecase.WithReconnectDelay(reconnect))

	gt.NoError(t, e.realtime.Start(context.Background())).Required()
	t.Cleanup(func() {
		e.realtime.Stop()
		e.sync.Close()
	})
	eventually(t, 3*time.Second, func() bool { return e.repo.Subscribers() == 1 })
	return e
}

func (e *realtimeEnv) touch(t *testing.T, status types.CaseStatus) {
	t.Helper()
	gt.NoError(t, e.repo.Case().UpdateCaseStatus(context.Background(), "case-a", model.StatusUpdate{Status: status})).Required()
}

func (e *realtimeEnv) fetches() int {
	return e.repo.Calls(memory.OpListOwnedCases)
}

func TestCaseRealtime_BurstCoalescesIntoOneFetch(t *testing.T) {
	// Scenario D: a notification shortly after a manual fetch waits for its own
	// settle delay, and a second notification inside it yields one fetch.
	e := newRealtimeEnv(t, 300*time.Millisecond, time.Second)

	_, err := e.sync.Fetch(context.Background())
	gt.NoError(t, err).Required()
	before := e.fetches()

	time.Sleep(50 * time.Millisecond)
	e.touch(t, types.CaseStatusInProgress)
	eventually(t, time.Second, e.realtime.Pending)

	time.Sleep(100 * time.Millisecond)
	gt.Number(t, e.fetches()).Equal(before)
	e.touch(t, types.CaseStatusCompleted)

	time.Sleep(150 * time.Millisecond)
	gt.Number(t, e.fetches()).Equal(before)

	eventually(t, 2*time.Second, func() bool { return e.fetches() == before+1 })
	time.Sleep(500 * time.Millisecond)
	gt.Number(t, e.fetches()).Equal(before + 1)
	gt.B(t, e.realtime.Pending()).False()
	gt.Value(t, findCase(e.sync.Cases(), "case-a").Status).Equal(types.CaseStatusCompleted)
}

func TestCaseRealtime_ReconnectsAndReconciles(t *testing.T) {
	e := newRealtimeEnv(t, 20*time.Millisecond, 50*time.Millisecond)
	before := e.fetches()

	e.repo.Disconnect(goerr.Wrap(model.ErrTransient, "connection reset"))
	gt.Number(t, e.repo.Subscribers()).Equal(0)

	eventually(t, 3*time.Second, func() bool { return e.repo.Subscribers() == 1 })
	eventually(t, 3*time.Second, func() bool { return e.fetches() == before+1 })
}

func TestCaseRealtime_RetriesFailedSubscribe(t *testing.T) {
	e := newRealtimeEnv(t, 20*time.Millisecond, 50*time.Millisecond)
	before := e.fetches()

	e.repo.SetError(memory.OpSubscribe, goerr.Wrap(model.ErrTransient, "dial tcp: i/o timeout"))
	e.repo.Disconnect(goerr.Wrap(model.ErrTransient, "connection reset"))

	eventually(t, 3*time.Second, func() bool { return e.repo.Calls(memory.OpSubscribe) >= 3 })
	gt.Number(t, e.repo.Subscribers()).Equal(0)

	e.repo.SetError(memory.OpSubscribe, nil)
	eventually(t, 3*time.Second, func() bool { return e.repo.Subscribers() == 1 })
	eventually(t, 3*time.Second, func() bool { return e.fetches() >= before+1 })
}

func TestCaseRealtime_FollowsConnectivity(t *testing.T) {
	e := newRealtimeEnv(t, 20*time.Millisecond, 50*time.Millisecond)
	before := e.fetches()

	e.network.Set(false)
	gt.Number(t, e.repo.Subscribers()).Equal(0)

	// Writes while offline are not observed.
	e.touch(t, types.CaseStatusCompleted)
	time.Sleep(100 * time.Millisecond)
	gt.Number(t, e.fetches()).Equal(before)

	e.network.Set(true)
	eventually(t, 3*time.Second, func() bool { return e.repo.Subscribers() == 1 })
	eventually(t, 3*time.Second, func() bool { return e.fetches() == before+1 })
	gt.Value(t, findCase(e.sync.Cases(), "case-a").Status).Equal(types.CaseStatusCompleted)
}

func TestCaseRealtime_StopReleasesSubscription(t *testing.T) {
	e := newRealtimeEnv(t, time.Hour, time.Second)

	e.touch(t, types.CaseStatusInProgress)
	eventually(t, time.Second, e.realtime.Pending)

	e.realtime.Stop()
	gt.Number(t, e.repo.Subscribers()).Equal(0)
	gt.B(t, e.realtime.Pending()).False()
	e.realtime.Stop()
}

func TestCaseRealtime_StartTwice(t *testing.T) {
	e := newRealtimeEnv(t, time.Second, time.Second)
	gt.Error(t, e.realtime.Start(context.Background())).Is(usecase.ErrAlreadyStarted)
}

func TestCaseRealtime_InvalidScope(t *testing.T) {
	repo := memory.New()
	network := connectivity.NewStatic(true)
	coordinator := usecase.NewCaseSync(repo.Case(), nil, network, model.Scope{})
	realtime := usecase.NewCaseRealtime(repo.Realtime(), coordinator, network, model.Scope{})
	gt.Error(t, realtime.Start(context.Background())).Is(model.ErrInvalidScope)
}
