package types

// SyncState is the state of the case list resource held by the fetch coordinator
type SyncState string

const (
	SyncStateIdle     SyncState = "idle"
	SyncStateFetching SyncState = "fetching"
	SyncStateError    SyncState = "error"
)

// String returns the string representation of the sync state
func (s SyncState) String() string {
	return string(s)
}

// DataSource tells where the case list in a fetch result came from
type DataSource string

const (
	DataSourceRemote DataSource = "remote"
	DataSourceCache  DataSource = "cache"
	DataSourceNone   DataSource = "none"
)

// SkipReason explains why a fetch request was dropped without running
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipDebounced SkipReason = "debounced"
	SkipInFlight  SkipReason = "in_flight"
	SkipClosed    SkipReason = "closed"
)

// Notice is the non-blocking message shown to the user after a fetch
type Notice string

const (
	NoticeNone             Notice = ""
	NoticeCachedData       Notice = "Showing cached data"
	NoticeConnectionIssues Notice = "Connection issues detected, showing cached data"
	NoticeNoData           Notice = "No data available"
	NoticeSignInRequired   Notice = "Session expired, please sign in again"
)
