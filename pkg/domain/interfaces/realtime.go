package interfaces

import (
	"context"

	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

// RealtimeSource subscribes to change notifications of the cases collection
type RealtimeSource interface {
	// Subscribe opens a change stream filtered to scope. The stream is bound
	// to ctx: cancelling ctx ends it.
	Subscribe(ctx context.Context, scope model.Scope) (ChangeStream, error)
}

// ChangeStream is an open realtime subscription. It is owned by the caller
// and must be released with Stop.
type ChangeStream interface {
	// Next blocks until the next change arrives. It returns an error when the
	// subscription broke or its context was cancelled.
	Next() (*model.ChangeEvent, error)

	// Stop releases the subscription. It is safe to call more than once.
	Stop()
}
