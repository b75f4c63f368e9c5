package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/interfaces"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
)

// LedgerUseCase lists the accounting rows of the current scope
type LedgerUseCase struct {
	repo  interfaces.LedgerRepository
	scope model.Scope
}

func NewLedgerUseCase(repo interfaces.LedgerRepository, scope model.Scope) *LedgerUseCase {
	return &LedgerUseCase{repo: repo, scope: scope}
}

func (uc *LedgerUseCase) ListInvoices(ctx context.Context) ([]*model.Invoice, error) {
	invoices, err := uc.repo.ListInvoices(ctx, uc.scope)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list invoices", goerr.V(ScopeKey, uc.scope.Key()))
	}
	if invoices == nil {
		invoices = []*model.Invoice{}
	}
	return invoices, nil
}

func (uc *LedgerUseCase) ListExpenses(ctx context.Context) ([]*model.Expense, error) {
	expenses, err := uc.repo.ListExpenses(ctx, uc.scope)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list expenses", goerr.V(ScopeKey, uc.scope.Key()))
	}
	if expenses == nil {
		expenses = []*model.Expense{}
	}
	return expenses, nil
}
