package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Invoice is a bill issued for a case
type Invoice struct {
	ID            string     `json:"id"`
	CaseID        string     `json:"case_id"`
	UserID        string     `json:"user_id"`
	CompanyID     *string    `json:"company_id,omitempty"`
	InvoiceNumber string     `json:"invoice_number"`
	Status        string     `json:"status"`
	Subtotal      float64    `json:"subtotal"`
	Tax           float64    `json:"tax"`
	Total         float64    `json:"total"`
	IssuedAt      time.Time  `json:"issued_at"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Validate checks the boundary invariants of an invoice row
func (i *Invoice) Validate() error {
	if i.ID == "" {
		return goerr.New("invoice id is required")
	}
	if i.UserID == "" {
		return goerr.New("invoice owner is required", goerr.V("invoice_id", i.ID))
	}
	if i.Total < 0 {
		return goerr.New("invoice total must not be negative", goerr.V("invoice_id", i.ID), goerr.V("total", i.Total))
	}
	return nil
}

// IsPaid reports whether the invoice has been settled
func (i *Invoice) IsPaid() bool {
	return i.PaidAt != nil
}

// IsOverdue reports whether the invoice is unpaid past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	return !i.IsPaid() && i.DueAt != nil && now.After(*i.DueAt)
}
