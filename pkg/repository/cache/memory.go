package cache

import (
	"context"
	"sync"

	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

// Memory keeps the snapshot in process. Payloads are stored encoded so that
// callers never share case pointers with the cache.
type Memory struct {
	mu   sync.RWMutex
	raw  []byte
	opts options
}

var _ interfaces.CacheStore = &Memory{}

func NewMemory(opts ...Option) *Memory {
	return &Memory{opts: newOptions(opts)}
}

func (m *Memory) Get(ctx context.Context) (*model.CaseSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.raw == nil {
		return nil, nil
	}
	return decode("memory", m.raw)
}

func (m *Memory) Put(ctx context.Context, snapshot *model.CaseSnapshot) error {
	raw, err := m.opts.encode("memory", snapshot)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = raw
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw = nil
	return nil
}

func (m *Memory) HasData(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.raw != nil, nil
}

func (m *Memory) Close() error {
	return nil
}
