package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
	"github.com/secmon-lab/repairdesk/pkg/repository/cache"
	"github.com/secmon-lab/repairdesk/pkg/repository/memory"
	"github.com/secmon-lab/repairdesk/pkg/service/connectivity"
	"github.com/secmon-lab/repairdesk/pkg/usecase"
)

var testScope = model.Scope{UserID: "tech-1"}

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	repo    *memory.Memory
	cache   *cache.Memory
	network *connectivity.Static
	clock   *fakeClock
	sync    *usecase.CaseSync
	status  *usecase.CaseStatus
}

func newEnv(t *testing.T, online bool, opts ...usecase.CaseSyncOption) *env {
	t.Helper()

	e := &env{
		repo:    memory.New(),
		cache:   cache.NewMemory(),
		network: connectivity.NewStatic(online),
		clock:   newFakeClock(),
	}
	opts = append([]usecase.CaseSyncOption{usecase.WithClock(e.clock.Now)}, opts...)
	e.sync = usecase.NewCaseSync(e.repo.Case(), e.cache, e.network, testScope, opts...)
	e.status = usecase.NewCaseStatus(e.repo.Case(), e.sync, e.network, testScope)
	t.Cleanup(e.sync.Close)
	return e
}

// seedCase stores an owned case created at the given offset from a fixed base
func (e *env) seedCase(t *testing.T, id string, age time.Duration) *model.Case {
	t.Helper()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c, err := e.repo.Case().CreateCase(context.Background(), &model.Case{
		ID:            id,
		UserID:        testScope.UserID,
		CustomerName:  "Customer " + id,
		ApplianceType: "Refrigerator",
		Status:        types.CaseStatusScheduled,
		CreatedAt:     base.Add(-age),
		UpdatedAt:     base.Add(-age),
	})
	gt.NoError(t, err).Required()
	return c
}

func (e *env) seedPublic(t *testing.T, id string) *model.PublicCase {
	t.Helper()
	p, err := e.repo.Case().CreatePublicCase(context.Background(), &model.PublicCase{
		ID:            id,
		CustomerName:  "Lead " + id,
		ApplianceType: "Range",
		Status:        types.CaseStatusScheduled,
		CreatedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	gt.NoError(t, err).Required()
	return p
}

func (e *env) putCache(t *testing.T, ids ...string) {
	t.Helper()
	cases := make([]*model.Case, 0, len(ids))
	for _, id := range ids {
		cases = append(cases, &model.Case{ID: id, UserID: testScope.UserID, Status: types.CaseStatusInProgress})
	}
	gt.NoError(t, e.cache.Put(context.Background(), model.NewCaseSnapshot(cases, e.clock.Now()))).Required()
}

func (e *env) cachedCase(t *testing.T, id string) *model.Case {
	t.Helper()
	snapshot, err := e.cache.Get(context.Background())
	gt.NoError(t, err).Required()
	gt.Value(t, snapshot).NotNil().Required()
	for _, c := range snapshot.Cases {
		if c.ID == id {
			return c
		}
	}
	t.Fatalf("case %s not in cache", id)
	return nil
}

func ids(cases []*model.Case) []string {
	out := make([]string, len(cases))
	for i, c := range cases {
		out[i] = c.ID
	}
	return out
}

func findCase(cases []*model.Case, id string) *model.Case {
	for _, c := range cases {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// blockingSource holds ListOwnedCases until released or until its context ends
type blockingSource struct {
	interfaces.CaseSource
	entered chan struct{}
	release chan struct{}
}

func newBlockingSource(inner interfaces.CaseSource) *blockingSource {
	return &blockingSource{
		CaseSource: inner,
		entered:    make(chan struct{}, 16),
		release:    make(chan struct{}),
	}
}

func (s *blockingSource) ListOwnedCases(ctx context.Context, scope model.Scope) ([]*model.Case, error) {
	s.entered <- struct{}{}
	select {
	case <-s.release:
		return s.CaseSource.ListOwnedCases(ctx, scope)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *blockingSource) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-s.entered:
	case <-time.After(3 * time.Second):
		t.Fatal("fetch did not reach the source")
	}
}

// scriptedSource returns a fixed owned list, for backends lagging behind writes
type scriptedSource struct {
	interfaces.CaseSource
	mu    sync.Mutex
	owned []*model.Case
}

func (s *scriptedSource) set(cases ...*model.Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned = cases
}

func (s *scriptedSource) ListOwnedCases(ctx context.Context, scope model.Scope) ([]*model.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneCases(s.owned), nil
}

func (s *scriptedSource) UpdateCaseStatus(ctx context.Context, id string, update model.StatusUpdate) error {
	return nil
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

// blockingCache holds the first Put until released
type blockingCache struct {
	*cache.Memory
	mu      sync.Mutex
	held    bool
	entered chan struct{}
	release chan struct{}
}

func newBlockingCache() *blockingCache {
	return &blockingCache{
		Memory:  cache.NewMemory(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (c *blockingCache) Put(ctx context.Context, snapshot *model.CaseSnapshot) error {
	c.mu.Lock()
	first := !c.held
	c.held = true
	c.mu.Unlock()

	if first {
		c.entered <- struct{}{}
		<-c.release
	}
	return c.Memory.Put(ctx, snapshot)
}
