package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
)

// ErrStreamStopped is returned by Next after Stop was called
var ErrStreamStopped = goerr.New("change stream stopped")

const streamBuffer = 64

// broker fans case writes out to the subscribers whose scope sees the case
type broker struct {
	mu     sync.Mutex
	subs   map[int]*stream
	nextID int
	faults *faults
	now    func() time.Time
}

func newBroker(f *faults) *broker {
	return &broker{
		subs:   make(map[int]*stream),
		faults: f,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (b *broker) Subscribe(ctx context.Context, scope model.Scope) (interfaces.ChangeStream, error) {
	if err := b.faults.record(OpSubscribe); err != nil {
		return nil, err
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s := &stream{
		id:     b.nextID,
		ctx:    ctx,
		scope:  scope,
		events: make(chan *model.ChangeEvent, streamBuffer),
		errCh:  make(chan error, 1),
		done:   make(chan struct{}),
		broker: b,
	}
	b.subs[s.id] = s
	return s, nil
}

func (b *broker) publish(c *model.Case, changeType types.ChangeType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.subs {
		if !s.scope.Matches(c) {
			continue
		}
		ev := &model.ChangeEvent{
			Type:       changeType,
			Collection: model.CollectionCases,
			DocumentID: c.ID,
			ReceivedAt: b.now(),
		}
		select {
		case s.events <- ev:
		default:
			// The next fetch reconciles whatever a slow subscriber missed.
			logging.Default().Warn("realtime subscriber buffer full, dropping event",
				"subscriber", s.id, "case_id", c.ID)
		}
	}
}

func (b *broker) disconnect(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, s := range b.subs {
		select {
		case s.errCh <- err:
		default:
		}
		delete(b.subs, id)
	}
}

func (b *broker) closeAll() {
	b.disconnect(ErrStreamStopped)
}

func (b *broker) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

func (b *broker) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

type stream struct {
	id       int
	ctx      context.Context
	scope    model.Scope
	events   chan *model.ChangeEvent
	errCh    chan error
	done     chan struct{}
	stopOnce sync.Once
	broker   *broker
}

func (s *stream) Next() (*model.ChangeEvent, error) {
	select {
	case ev := <-s.events:
		return ev, nil
	case err := <-s.errCh:
		return nil, err
	case <-s.done:
		return nil, ErrStreamStopped
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

func (s *stream) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.broker.remove(s.id)
	})
}
