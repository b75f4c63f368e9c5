package interfaces

// Repository groups the backend collaborators behind one client
type Repository interface {
	Case() CaseSource
	Realtime() RealtimeSource
	Ledger() LedgerRepository

	Close() error
}
