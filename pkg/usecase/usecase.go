package usecase

import (
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

type UseCases struct {
	repo    interfaces.Repository
	cache   interfaces.CacheStore
	network interfaces.Connectivity
	scope   model.Scope

	syncOpts     []CaseSyncOption
	realtimeOpts []CaseRealtimeOption

	Sync     *CaseSync
	Realtime *CaseRealtime
	Status   *CaseStatus
	Ledger   *LedgerUseCase
}

type Option func(*UseCases)

func WithCaseSyncOptions(opts ...CaseSyncOption) Option {
	return func(uc *UseCases) {
		uc.syncOpts = append(uc.syncOpts, opts...)
	}
}

func WithCaseRealtimeOptions(opts ...CaseRealtimeOption) Option {
	return func(uc *UseCases) {
		uc.realtimeOpts = append(uc.realtimeOpts, opts...)
	}
}

func New(repo interfaces.Repository, cache interfaces.CacheStore, network interfaces.Connectivity, scope model.Scope, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:    repo,
		cache:   cache,
		network: network,
		scope:   scope,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Sync = NewCaseSync(repo.Case(), cache, network, scope, uc.syncOpts...)
	uc.Realtime = NewCaseRealtime(repo.Realtime(), uc.Sync, network, scope, uc.realtimeOpts...)
	uc.Status = NewCaseStatus(repo.Case(), uc.Sync, network, scope)
	uc.Ledger = NewLedgerUseCase(repo.Ledger(), scope)

	return uc
}

// Scope returns the principal the use cases operate for
func (uc *UseCases) Scope() model.Scope {
	return uc.scope
}

// Cache returns the local cache store
func (uc *UseCases) Cache() interfaces.CacheStore {
	return uc.cache
}

// Online reports the connectivity signal
func (uc *UseCases) Online() bool {
	return uc.network.Online()
}

// Close stops the realtime listener and tears down the coordinator
func (uc *UseCases) Close() {
	uc.Realtime.Stop()
	uc.Sync.Close()
}
