package model

import (
	"time"

	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

// Collection names on the hosted backend
const (
	CollectionCases       = "cases"
	CollectionPublicCases = "public_cases"
	CollectionInvoices    = "invoices"
	CollectionExpenses    = "expenses"
)

// ChangeEvent is a realtime notification that a document changed
type ChangeEvent struct {
	Type       types.ChangeType
	Collection string
	DocumentID string
	ReceivedAt time.Time
}
