package http

import (
	"net/http"

	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/utils/errutil"
)

func (s *Server) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.uc.Ledger.ListInvoices(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, errutil.StatusCode(err))
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		Invoices []*model.Invoice `json:"invoices"`
	}{Invoices: invoices})
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.uc.Ledger.ListExpenses(r.Context())
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, errutil.StatusCode(err))
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		Expenses []*model.Expense `json:"expenses"`
	}{Expenses: expenses})
}
