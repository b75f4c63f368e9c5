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
)

const (
	DefaultSettleDelay    = 2 * time.Second
	DefaultReconnectDelay = 5 * time.Second
)

type fetcher interface {
	Fetch(ctx context.Context) (*model.FetchResult, error)
}

// CaseRealtime turns backend change notifications into coordinator fetches.
// Notifications arriving within the settle delay of each other collapse into
// one fetch. The subscription follows connectivity: it is released while
// offline and re-established, with a reconciliation fetch, when back online
// or after the stream broke.
type CaseRealtime struct {
	source  interfaces.RealtimeSource
	sync    fetcher
	network interfaces.Connectivity
	scope   model.Scope

	settle    time.Duration
	reconnect time.Duration

	mu         sync.Mutex
	running    bool
	baseCtx    context.Context
	baseCancel context.CancelFunc
	loopCancel context.CancelFunc
	loopDone   chan struct{}
	timer      *time.Timer
	pendingID  uint64
	unwatch    func()
	wg         sync.WaitGroup
}

type CaseRealtimeOption func(*CaseRealtime)

// WithSettleDelay sets how long to wait after the last notification before fetching
func WithSettleDelay(d time.Duration) CaseRealtimeOption {
	return func(r *CaseRealtime) {
		r.settle = d
	}
}

// WithReconnectDelay sets the wait before re-subscribing after a failure
func WithReconnectDelay(d time.Duration) CaseRealtimeOption {
	return func(r *CaseRealtime) {
		r.reconnect = d
	}
}

func NewCaseRealtime(source interfaces.RealtimeSource, coordinator *CaseSync, network interfaces.Connectivity, scope model.Scope, opts ...CaseRealtimeOption) *CaseRealtime {
	r := &CaseRealtime{
		source:    source,
		sync:      coordinator,
		network:   network,
		scope:     scope,
		settle:    DefaultSettleDelay,
		reconnect: DefaultReconnectDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start opens the subscription in the background. It fails only when the
// scope is invalid or the listener is already running.
func (r *CaseRealtime) Start(ctx context.Context) error {
	if err := r.scope.Validate(); err != nil {
		return goerr.Wrap(err, "cannot start realtime listener")
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return goerr.Wrap(ErrAlreadyStarted, "realtime listener is running", goerr.V(ScopeKey, r.scope.Key()))
	}
	r.running = true
	r.baseCtx, r.baseCancel = context.WithCancel(ctx)
	r.mu.Unlock()

	unwatch := r.network.Watch(r.onConnectivity)
	r.mu.Lock()
	r.unwatch = unwatch
	r.mu.Unlock()

	if r.network.Online() {
		r.startLoop(false)
	}

	logging.From(ctx).Info("Realtime listener started",
		"scope", r.scope.Key(),
		"settle", r.settle.String())
	return nil
}

// Stop releases the subscription and any pending fetch timer and waits for
// background work to finish. It is safe to call more than once.
func (r *CaseRealtime) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	unwatch := r.unwatch
	r.unwatch = nil
	r.baseCancel()
	r.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
	r.stopLoop()
	r.wg.Wait()
	logging.Default().Info("Realtime listener stopped", "scope", r.scope.Key())
}

func (r *CaseRealtime) onConnectivity(online bool) {
	if online {
		r.startLoop(true)
		return
	}
	r.stopLoop()
}

func (r *CaseRealtime) startLoop(reconcile bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running || r.loopCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(r.baseCtx)
	done := make(chan struct{})
	r.loopCancel = cancel
	r.loopDone = done

	r.wg.Add(1)
	go r.loop(ctx, reconcile, done)
}

func (r *CaseRealtime) stopLoop() {
	r.mu.Lock()
	cancel := r.loopCancel
	done := r.loopDone
	r.loopCancel = nil
	r.loopDone = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (r *CaseRealtime) loop(ctx context.Context, reconcile bool, done chan struct{}) {
	defer r.wg.Done()
	defer close(done)

	logger := logging.From(ctx)
	attempt := 0
	for {
		stream, err := r.source.Subscribe(ctx, r.scope)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			_ = errutil.Handle(ctx, err, "failed to subscribe to case changes")
			reconcile = true
			if !sleep(ctx, r.reconnect) {
				return
			}
			attempt++
			continue
		}

		if attempt > 0 {
			metrics.RealtimeReconnects.Inc()
			logger.Info("Realtime subscription re-established", "scope", r.scope.Key())
		}
		if reconcile {
			// Changes made while the subscription was down are not replayed.
			r.schedule()
			reconcile = false
		}

		err = r.consume(stream)
		stream.Stop()
		if ctx.Err() != nil {
			return
		}

		logger.Warn("Realtime subscription dropped", "error", err, "scope", r.scope.Key())
		reconcile = true
		if !sleep(ctx, r.reconnect) {
			return
		}
		attempt++
	}
}

func (r *CaseRealtime) consume(stream interfaces.ChangeStream) error {
	for {
		ev, err := stream.Next()
		if err != nil {
			return err
		}
		if !ev.Type.IsValid() {
			continue
		}
		metrics.RealtimeEvents.WithLabelValues(string(ev.Type)).Inc()
		logging.Default().Debug("case change received",
			"type", string(ev.Type),
			"case_id", ev.DocumentID)
		r.schedule()
	}
}

// schedule (re)arms the settle timer. Only the most recent timer fetches.
func (r *CaseRealtime) schedule() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	r.pendingID++
	id := r.pendingID
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.settle, func() { r.fire(id) })
}

func (r *CaseRealtime) fire(id uint64) {
	r.mu.Lock()
	if !r.running || id != r.pendingID {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	ctx := r.baseCtx
	r.wg.Add(1)
	r.mu.Unlock()
	defer r.wg.Done()

	result, err := r.sync.Fetch(ctx)
	if err != nil {
		_ = errutil.Handle(ctx, err, "realtime triggered fetch failed")
		return
	}

	// A dropped fetch may have read the rows before this change.
	switch result.Skipped {
	case types.SkipInFlight, types.SkipDebounced:
		r.schedule()
	}
}

// Pending reports whether a settle timer is armed
func (r *CaseRealtime) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer != nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
