package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

type ledgerRepository struct {
	mu       sync.RWMutex
	invoices map[string]*model.Invoice
	expenses map[string]*model.Expense
	faults   *faults
}

func newLedgerRepository(f *faults) *ledgerRepository {
	return &ledgerRepository{
		invoices: make(map[string]*model.Invoice),
		expenses: make(map[string]*model.Expense),
		faults:   f,
	}
}

func inScope(scope model.Scope, userID string, companyID *string) bool {
	if scope.IsTeam() {
		return companyID != nil && *companyID == scope.CompanyID
	}
	return userID == scope.UserID
}

func (r *ledgerRepository) ListInvoices(ctx context.Context, scope model.Scope) ([]*model.Invoice, error) {
	if err := r.faults.record(OpListInvoices); err != nil {
		return nil, err
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var invoices []*model.Invoice
	for _, inv := range r.invoices {
		if inScope(scope, inv.UserID, inv.CompanyID) {
			copied := *inv
			invoices = append(invoices, &copied)
		}
	}
	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].CreatedAt.After(invoices[j].CreatedAt)
	})
	return invoices, nil
}

func (r *ledgerRepository) ListExpenses(ctx context.Context, scope model.Scope) ([]*model.Expense, error) {
	if err := r.faults.record(OpListExpenses); err != nil {
		return nil, err
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var expenses []*model.Expense
	for _, exp := range r.expenses {
		if inScope(scope, exp.UserID, exp.CompanyID) {
			copied := *exp
			expenses = append(expenses, &copied)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
	})
	return expenses, nil
}

func (r *ledgerRepository) putInvoice(inv *model.Invoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *inv
	r.invoices[inv.ID] = &copied
}

func (r *ledgerRepository) putExpense(exp *model.Expense) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *exp
	r.expenses[exp.ID] = &copied
}
