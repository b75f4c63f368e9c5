// Package connectivity provides the online/offline signal of the process
package connectivity

import (
	"sync"

	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/service/metrics"
)

// Static is a connectivity signal that changes only when Set is called. It
// backs the --offline flag and tests.
type Static struct {
	mu       sync.Mutex
	online   bool
	watchers map[int]func(bool)
	nextID   int
}

var _ interfaces.Connectivity = &Static{}

func NewStatic(online bool) *Static {
	metrics.SetOnline(online)
	return &Static{
		online:   online,
		watchers: make(map[int]func(bool)),
	}
}

func (s *Static) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// Set changes the state. Watchers are called only on a transition and never
// while the lock is held.
func (s *Static) Set(online bool) {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return
	}
	s.online = online
	watchers := make([]func(bool), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	metrics.SetOnline(online)
	for _, fn := range watchers {
		fn(online)
	}
}

func (s *Static) Watch(fn func(online bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.watchers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}
