package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Expense is a cost booked by the shop, optionally against a case
type Expense struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CompanyID   *string   `json:"company_id,omitempty"`
	CaseID      *string   `json:"case_id,omitempty"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	IncurredAt  time.Time `json:"incurred_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the boundary invariants of an expense row
func (e *Expense) Validate() error {
	if e.ID == "" {
		return goerr.New("expense id is required")
	}
	if e.UserID == "" {
		return goerr.New("expense owner is required", goerr.V("expense_id", e.ID))
	}
	if e.Amount < 0 {
		return goerr.New("expense amount must not be negative", goerr.V("expense_id", e.ID), goerr.V("amount", e.Amount))
	}
	return nil
}
