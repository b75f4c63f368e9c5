package interfaces

import (
	"context"

	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

// LedgerRepository reads the accounting collections
type LedgerRepository interface {
	ListInvoices(ctx context.Context, scope model.Scope) ([]*model.Invoice, error)
	ListExpenses(ctx context.Context, scope model.Scope) ([]*model.Expense, error)
}
