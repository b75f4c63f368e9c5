package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/utils/logging"
	"google.golang.org/api/iterator"
)

type ledgerRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newLedgerRepository(client *firestore.Client) *ledgerRepository {
	return &ledgerRepository{client: client}
}

func (r *ledgerRepository) scoped(name string, scope model.Scope) firestore.Query {
	col := r.client.Collection(collectionName(r.collectionPrefix, name))
	if scope.IsTeam() {
		return col.Where("company_id", "==", scope.CompanyID).OrderBy("created_at", firestore.Desc)
	}
	return col.Where("user_id", "==", scope.UserID).OrderBy("created_at", firestore.Desc)
}

func (r *ledgerRepository) ListInvoices(ctx context.Context, scope model.Scope) ([]*model.Invoice, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	iter := r.scoped(model.CollectionInvoices, scope).Documents(ctx)
	defer iter.Stop()

	var invoices []*model.Invoice
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr(err, "failed to iterate invoices", goerr.V(model.ScopeKey, scope.Key()))
		}

		var doc invoiceDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode invoice", goerr.V("invoice_id", docSnap.Ref.ID))
		}
		inv := doc.toModel(docSnap.Ref.ID)
		if err := inv.Validate(); err != nil {
			logging.From(ctx).Warn("skip invalid invoice document", "invoice_id", docSnap.Ref.ID, "error", err)
			continue
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (r *ledgerRepository) ListExpenses(ctx context.Context, scope model.Scope) ([]*model.Expense, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	iter := r.scoped(model.CollectionExpenses, scope).Documents(ctx)
	defer iter.Stop()

	var expenses []*model.Expense
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr(err, "failed to iterate expenses", goerr.V(model.ScopeKey, scope.Key()))
		}

		var doc expenseDoc
		if err := docSnap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode expense", goerr.V("expense_id", docSnap.Ref.ID))
		}
		exp := doc.toModel(docSnap.Ref.ID)
		if err := exp.Validate(); err != nil {
			logging.From(ctx).Warn("skip invalid expense document", "expense_id", docSnap.Ref.ID, "error", err)
			continue
		}
		expenses = append(expenses, exp)
	}
	return expenses, nil
}
