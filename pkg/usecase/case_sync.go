package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
	"github.com/secmon-lab/repairdesk/pkg/service/metrics"
	"github.com/secmon-lab/repairdesk/pkg/utils/errutil"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDebounceWindow = 500 * time.Millisecond
	DefaultFetchTimeout   = 8 * time.Second
)

// overlay is a status change confirmed by the backend that a fetch may not
// reflect yet because it read an older row.
type overlay struct {
	update model.StatusUpdate
	at     time.Time
}

// CaseSync is the fetch coordinator of the case list. It keeps the list in
// memory, refreshes it from the remote source and falls back to the local
// cache when the source fails or the process is offline.
type CaseSync struct {
	source  interfaces.CaseSource
	cache   *cacheGuard
	network interfaces.Connectivity
	scope   model.Scope

	debounce     time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	// saveMu orders cache writes so the stored snapshot is always the
	// latest in-memory list.
	saveMu sync.Mutex

	mu           sync.Mutex
	state        types.SyncState
	dataSource   types.DataSource
	cases        []*model.Case
	publicCases  []*model.PublicCase
	stale        bool
	capturedAt   time.Time
	updatedAt    time.Time
	inFlight     bool
	lastAccepted time.Time
	closed       bool
	overlays     map[string]overlay
	claimed      map[string]struct{}

	observers    map[int]func(model.CaseState)
	nextObserver int
}

type CaseSyncOption func(*CaseSync)

// WithDebounceWindow sets the minimum interval between accepted fetches
func WithDebounceWindow(d time.Duration) CaseSyncOption {
	return func(s *CaseSync) {
		s.debounce = d
	}
}

// WithFetchTimeout bounds a single remote fetch. Zero disables the bound.
func WithFetchTimeout(d time.Duration) CaseSyncOption {
	return func(s *CaseSync) {
		s.fetchTimeout = d
	}
}

// WithClock replaces the clock used for debouncing and timestamps
func WithClock(now func() time.Time) CaseSyncOption {
	return func(s *CaseSync) {
		s.now = now
	}
}

func NewCaseSync(source interfaces.CaseSource, cache interfaces.CacheStore, network interfaces.Connectivity, scope model.Scope, opts ...CaseSyncOption) *CaseSync {
	s := &CaseSync{
		source:       source,
		cache:        &cacheGuard{store: cache},
		network:      network,
		scope:        scope,
		debounce:     DefaultDebounceWindow,
		fetchTimeout: DefaultFetchTimeout,
		now:          func() time.Time { return time.Now().UTC() },
		state:        types.SyncStateIdle,
		dataSource:   types.DataSourceNone,
		overlays:     make(map[string]overlay),
		claimed:      make(map[string]struct{}),
		observers:    make(map[int]func(model.CaseState)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch refreshes the case list. Requests inside the debounce window or
// while another fetch is running are dropped and report the current data.
// Read failures degrade to the local cache; only an authentication failure
// is returned as an error.
func (s *CaseSync) Fetch(ctx context.Context) (*model.FetchResult, error) {
	online := s.network.Online()

	s.mu.Lock()
	if skip := s.admitLocked(); skip != types.SkipNone {
		result := s.resultLocked(skip)
		s.mu.Unlock()
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		logging.From(ctx).Debug("fetch request dropped", "reason", string(skip))
		return result, nil
	}
	s.state = types.SyncStateFetching
	s.mu.Unlock()
	s.notify()

	defer s.endFlight()

	if !online {
		return s.fetchOffline(ctx), nil
	}
	return s.fetchRemote(ctx)
}

// admitLocked applies the liveness, re-entrancy and debounce guards and
// marks the request in flight when it passes.
func (s *CaseSync) admitLocked() types.SkipReason {
	if s.closed {
		return types.SkipClosed
	}
	if s.inFlight {
		return types.SkipInFlight
	}
	now := s.now()
	if !s.lastAccepted.IsZero() && now.Sub(s.lastAccepted) < s.debounce {
		return types.SkipDebounced
	}
	s.lastAccepted = now
	s.inFlight = true
	return types.SkipNone
}

func (s *CaseSync) endFlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

func (s *CaseSync) fetchOffline(ctx context.Context) *model.FetchResult {
	snapshot := s.cache.load(ctx)

	s.mu.Lock()
	if skip := s.completionLocked(); skip != types.SkipNone {
		result := s.resultLocked(skip)
		s.mu.Unlock()
		return result
	}

	var result *model.FetchResult
	if snapshot != nil {
		s.replaceLocked(snapshot.Cases, snapshot.CapturedAt, types.DataSourceCache, true)
		result = s.resultLocked(types.SkipNone)
		result.Notice = types.NoticeCachedData
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeCache).Inc()
	} else {
		s.replaceLocked(nil, time.Time{}, types.DataSourceNone, false)
		result = s.resultLocked(types.SkipNone)
		result.Notice = types.NoticeNoData
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
	}
	s.state = types.SyncStateIdle
	s.mu.Unlock()

	s.notify()
	logging.From(ctx).Info("offline, served case list from local cache",
		"count", len(result.Cases), "source", string(result.Source))
	return result
}

func (s *CaseSync) fetchRemote(ctx context.Context) (*model.FetchResult, error) {
	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	started := time.Now()
	var (
		owned     []*model.Case
		public    []*model.PublicCase
		publicErr error
	)
	eg, egCtx := errgroup.WithContext(fetchCtx)
	eg.Go(func() error {
		cases, err := s.source.ListOwnedCases(egCtx, s.scope)
		if err != nil {
			return err
		}
		owned = cases
		return nil
	})
	eg.Go(func() error {
		// A failing public list must not fail the owned list.
		cases, err := s.source.ListPublicCases(egCtx)
		if err != nil {
			publicErr = err
			return nil
		}
		public = cases
		return nil
	})
	err := eg.Wait()
	metrics.FetchDuration.Observe(time.Since(started).Seconds())

	if err != nil {
		if fetchCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			err = goerr.Wrap(model.ErrTransient, "case fetch timed out",
				goerr.V("timeout", s.fetchTimeout.String()),
				goerr.V("cause", err.Error()))
		}
		return s.fallback(ctx, err)
	}

	if publicErr != nil {
		_ = errutil.Handle(ctx, publicErr, "failed to fetch public cases, keeping previous list")
	}

	s.mu.Lock()
	if skip := s.completionLocked(); skip != types.SkipNone {
		result := s.resultLocked(skip)
		s.mu.Unlock()
		return result, nil
	}

	capturedAt := s.now()
	s.replaceLocked(s.reconcileLocked(owned), capturedAt, types.DataSourceRemote, false)
	if publicErr == nil {
		s.publicCases = s.filterClaimedLocked(public)
	}
	s.state = types.SyncStateIdle
	result := s.resultLocked(types.SkipNone)
	s.mu.Unlock()

	metrics.FetchTotal.WithLabelValues(metrics.OutcomeRemote).Inc()
	s.persist(ctx)
	s.notify()

	logging.From(ctx).Debug("fetched case list",
		"count", len(result.Cases),
		"public", len(result.PublicCases))
	return result, nil
}

// fallback handles a failed remote read: authentication errors surface, the
// rest degrade to the local cache.
func (s *CaseSync) fallback(ctx context.Context, fetchErr error) (*model.FetchResult, error) {
	s.mu.Lock()
	if skip := s.completionLocked(); skip != types.SkipNone {
		result := s.resultLocked(skip)
		s.mu.Unlock()
		return result, nil
	}
	s.state = types.SyncStateError
	s.mu.Unlock()
	s.notify()

	if model.ClassifyError(fetchErr) == model.ErrorKindUnauthenticated {
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeAuthError).Inc()
		_ = errutil.Handle(ctx, fetchErr, "case fetch rejected, sign in required")
		return nil, goerr.Wrap(fetchErr, "failed to fetch cases", goerr.V(ScopeKey, s.scope.Key()))
	}

	_ = errutil.Handle(ctx, fetchErr, "case fetch failed, falling back to local cache")
	snapshot := s.cache.load(ctx)

	s.mu.Lock()
	if skip := s.completionLocked(); skip != types.SkipNone {
		result := s.resultLocked(skip)
		s.mu.Unlock()
		return result, nil
	}

	var result *model.FetchResult
	if snapshot != nil {
		s.replaceLocked(snapshot.Cases, snapshot.CapturedAt, types.DataSourceCache, true)
		s.state = types.SyncStateIdle
		result = s.resultLocked(types.SkipNone)
		result.Notice = types.NoticeConnectionIssues
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeCache).Inc()
	} else {
		s.replaceLocked(nil, time.Time{}, types.DataSourceNone, false)
		result = s.resultLocked(types.SkipNone)
		result.Notice = types.NoticeNoData
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
	}
	s.mu.Unlock()

	s.notify()
	return result, nil
}

// completionLocked decides whether a finished fetch may still be applied
func (s *CaseSync) completionLocked() types.SkipReason {
	if s.closed {
		return types.SkipClosed
	}
	return types.SkipNone
}

func (s *CaseSync) replaceLocked(cases []*model.Case, capturedAt time.Time, source types.DataSource, stale bool) {
	if cases == nil {
		cases = []*model.Case{}
	}
	s.cases = model.CloneCases(cases)
	s.capturedAt = capturedAt
	s.dataSource = source
	s.stale = stale
	s.updatedAt = s.now()
	metrics.CachedCases.Set(float64(len(s.cases)))
}

// reconcileLocked re-applies confirmed local status changes to fetched rows
// that predate them. An overlay is dropped as soon as the backend returns a
// row at least as new, a row already carrying the status, or no row at all.
func (s *CaseSync) reconcileLocked(fetched []*model.Case) []*model.Case {
	if len(s.overlays) == 0 {
		return fetched
	}

	seen := make(map[string]struct{}, len(fetched))
	for _, c := range fetched {
		seen[c.ID] = struct{}{}
		ov, ok := s.overlays[c.ID]
		if !ok {
			continue
		}
		if c.Status == ov.update.Status || !c.UpdatedAt.Before(ov.at) {
			delete(s.overlays, c.ID)
			continue
		}
		c.ApplyStatus(ov.update, ov.at)
	}
	for id := range s.overlays {
		if _, ok := seen[id]; !ok {
			delete(s.overlays, id)
		}
	}
	return fetched
}

// filterClaimedLocked hides leads this process claimed until the backend
// stops returning them.
func (s *CaseSync) filterClaimedLocked(public []*model.PublicCase) []*model.PublicCase {
	if public == nil {
		public = []*model.PublicCase{}
	}
	if len(s.claimed) == 0 {
		return public
	}

	present := make(map[string]struct{}, len(public))
	filtered := make([]*model.PublicCase, 0, len(public))
	for _, p := range public {
		present[p.ID] = struct{}{}
		if _, ok := s.claimed[p.ID]; ok {
			continue
		}
		filtered = append(filtered, p)
	}
	for id := range s.claimed {
		if _, ok := present[id]; !ok {
			delete(s.claimed, id)
		}
	}
	return filtered
}

func (s *CaseSync) resultLocked(skip types.SkipReason) *model.FetchResult {
	return &model.FetchResult{
		Cases:       model.CloneCases(s.cases),
		PublicCases: model.ClonePublicCases(s.publicCases),
		Source:      s.dataSource,
		Stale:       s.stale,
		Skipped:     skip,
		CapturedAt:  s.capturedAt,
	}
}

// lookup reports whether id is an owned case or a public lead in memory
func (s *CaseSync) lookup(id string) (owned, public bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.cases {
		if c.ID == id {
			return true, false
		}
	}
	for _, p := range s.publicCases {
		if p.ID == id {
			return false, true
		}
	}
	return false, false
}

// applyStatus patches an owned case after the backend accepted the change.
// It reports false after Close.
func (s *CaseSync) applyStatus(id string, update model.StatusUpdate, at time.Time) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}

	for _, c := range s.cases {
		if c.ID == id {
			c.ApplyStatus(update, at)
			break
		}
	}
	s.overlays[id] = overlay{update: update, at: at}
	s.updatedAt = s.now()
	if s.capturedAt.IsZero() {
		s.capturedAt = at
	}
	s.mu.Unlock()

	s.notify()
	return true
}

// removePublic drops a claimed lead from the public list
func (s *CaseSync) removePublic(id string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	filtered := make([]*model.PublicCase, 0, len(s.publicCases))
	for _, p := range s.publicCases {
		if p.ID != id {
			filtered = append(filtered, p)
		}
	}
	s.publicCases = filtered
	s.claimed[id] = struct{}{}
	s.updatedAt = s.now()
	s.mu.Unlock()

	s.notify()
}

// persist writes the current in-memory list to the local cache. The list is
// read after saveMu is held, so a slow write never overwrites a newer one.
func (s *CaseSync) persist(ctx context.Context) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	cases := model.CloneCases(s.cases)
	capturedAt := s.capturedAt
	s.mu.Unlock()

	s.cache.save(ctx, cases, capturedAt)
}

// Subscribe registers fn to be called with the new state after every change.
// fn runs outside internal locks and may call back into CaseSync.
func (s *CaseSync) Subscribe(fn func(model.CaseState)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextObserver++
	id := s.nextObserver
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *CaseSync) notify() {
	s.mu.Lock()
	if s.closed || len(s.observers) == 0 {
		s.mu.Unlock()
		return
	}
	state := s.stateLocked()
	observers := make([]func(model.CaseState), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	state.Online = s.network.Online()
	for _, fn := range observers {
		fn(state)
	}
}

func (s *CaseSync) stateLocked() model.CaseState {
	return model.CaseState{
		State:       s.state,
		Cases:       model.CloneCases(s.cases),
		PublicCases: model.ClonePublicCases(s.publicCases),
		Stale:       s.stale,
		UpdatedAt:   s.updatedAt,
	}
}

// Snapshot returns the current observable state
func (s *CaseSync) Snapshot() model.CaseState {
	s.mu.Lock()
	state := s.stateLocked()
	s.mu.Unlock()

	state.Online = s.network.Online()
	return state
}

func (s *CaseSync) Cases() []*model.Case {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneCases(s.cases)
}

func (s *CaseSync) PublicCases() []*model.PublicCase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.ClonePublicCases(s.publicCases)
}

func (s *CaseSync) State() types.SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *CaseSync) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// HasCache reports whether the local cache holds a snapshot
func (s *CaseSync) HasCache(ctx context.Context) bool {
	return s.cache.hasData(ctx)
}

// Close marks the coordinator as torn down. Fetches completing afterwards are
// not applied and observers are no longer called.
func (s *CaseSync) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.observers = make(map[int]func(model.CaseState))
}
