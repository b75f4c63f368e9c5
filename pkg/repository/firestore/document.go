package firestore

import (
	"time"

	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

// caseDoc is the stored shape of a "cases" document. Rows are decoded into
// this explicit struct and validated before they reach the domain.
type caseDoc struct {
	CustomerName        string    `firestore:"customer_name"`
	Phone               string    `firestore:"phone"`
	Email               string    `firestore:"email"`
	Street              string    `firestore:"street"`
	City                string    `firestore:"city"`
	State               string    `firestore:"state"`
	Zip                 string    `firestore:"zip"`
	ApplianceType       string    `firestore:"appliance_type"`
	ApplianceBrand      string    `firestore:"appliance_brand"`
	ApplianceModel      string    `firestore:"appliance_model"`
	SerialNumber        string    `firestore:"serial_number"`
	ProblemDescription  string    `firestore:"problem_description"`
	DiagnosisNotes      *string   `firestore:"diagnosis_notes"`
	TechnicianNotes     *string   `firestore:"technician_notes"`
	Status              string    `firestore:"status"`
	SubStatus           string    `firestore:"sub_status"`
	CancellationReason  string    `firestore:"cancellation_reason"`
	DiagnosticFeeType   string    `firestore:"diagnostic_fee_type"`
	DiagnosticFeeAmount float64   `firestore:"diagnostic_fee_amount"`
	LaborCost           float64   `firestore:"labor_cost"`
	LaborCostCalculated float64   `firestore:"labor_cost_calculated"`
	PartsCost           float64   `firestore:"parts_cost"`
	WarrantyStatus      string    `firestore:"warranty_status"`
	WorkOrderNumber     *string   `firestore:"wo_number"`
	CompanyID           *string   `firestore:"company_id"`
	UserID              string    `firestore:"user_id"`
	CreatedAt           time.Time `firestore:"created_at"`
	UpdatedAt           time.Time `firestore:"updated_at"`
}

func (d *caseDoc) toModel(id string) *model.Case {
	return &model.Case{
		ID:                  id,
		CustomerName:        d.CustomerName,
		Phone:               d.Phone,
		Email:               d.Email,
		Street:              d.Street,
		City:                d.City,
		State:               d.State,
		Zip:                 d.Zip,
		ApplianceType:       d.ApplianceType,
		ApplianceBrand:      d.ApplianceBrand,
		ApplianceModel:      d.ApplianceModel,
		SerialNumber:        d.SerialNumber,
		ProblemDescription:  d.ProblemDescription,
		DiagnosisNotes:      d.DiagnosisNotes,
		TechnicianNotes:     d.TechnicianNotes,
		Status:              types.CaseStatus(d.Status),
		SubStatus:           types.SubStatus(d.SubStatus),
		CancellationReason:  d.CancellationReason,
		DiagnosticFeeType:   d.DiagnosticFeeType,
		DiagnosticFeeAmount: d.DiagnosticFeeAmount,
		LaborCost:           d.LaborCost,
		LaborCostCalculated: d.LaborCostCalculated,
		PartsCost:           d.PartsCost,
		WarrantyStatus:      d.WarrantyStatus,
		WorkOrderNumber:     d.WorkOrderNumber,
		CompanyID:           d.CompanyID,
		UserID:              d.UserID,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

func newCaseDoc(c *model.Case) *caseDoc {
	return &caseDoc{
		CustomerName:        c.CustomerName,
		Phone:               c.Phone,
		Email:               c.Email,
		Street:              c.Street,
		City:                c.City,
		State:               c.State,
		Zip:                 c.Zip,
		ApplianceType:       c.ApplianceType,
		ApplianceBrand:      c.ApplianceBrand,
		ApplianceModel:      c.ApplianceModel,
		SerialNumber:        c.SerialNumber,
		ProblemDescription:  c.ProblemDescription,
		DiagnosisNotes:      c.DiagnosisNotes,
		TechnicianNotes:     c.TechnicianNotes,
		Status:              string(c.Status),
		SubStatus:           string(c.SubStatus),
		CancellationReason:  c.CancellationReason,
		DiagnosticFeeType:   c.DiagnosticFeeType,
		DiagnosticFeeAmount: c.DiagnosticFeeAmount,
		LaborCost:           c.LaborCost,
		LaborCostCalculated: c.LaborCostCalculated,
		PartsCost:           c.PartsCost,
		WarrantyStatus:      c.WarrantyStatus,
		WorkOrderNumber:     c.WorkOrderNumber,
		CompanyID:           c.CompanyID,
		UserID:              c.UserID,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// publicCaseDoc is the stored shape of a "public_cases" document
type publicCaseDoc struct {
	CustomerName        string    `firestore:"customer_name"`
	Phone               string    `firestore:"phone"`
	Email               string    `firestore:"email"`
	Street              string    `firestore:"street"`
	City                string    `firestore:"city"`
	State               string    `firestore:"state"`
	Zip                 string    `firestore:"zip"`
	ApplianceType       string    `firestore:"appliance_type"`
	ApplianceBrand      string    `firestore:"appliance_brand"`
	ApplianceModel      string    `firestore:"appliance_model"`
	SerialNumber        string    `firestore:"serial_number"`
	ProblemDescription  string    `firestore:"problem_description"`
	DiagnosisNotes      *string   `firestore:"diagnosis_notes"`
	Status              string    `firestore:"status"`
	SubStatus           string    `firestore:"sub_status"`
	CancellationReason  string    `firestore:"cancellation_reason"`
	DiagnosticFeeType   string    `firestore:"diagnostic_fee_type"`
	DiagnosticFeeAmount float64   `firestore:"diagnostic_fee_amount"`
	LaborCost           float64   `firestore:"labor_cost"`
	PartsCost           float64   `firestore:"parts_cost"`
	WarrantyStatus      string    `firestore:"warranty_status"`
	WorkOrderNumber     *string   `firestore:"wo_number"`
	CreatedAt           time.Time `firestore:"created_at"`
	UpdatedAt           time.Time `firestore:"updated_at"`
}

func (d *publicCaseDoc) toModel(id string) *model.PublicCase {
	return &model.PublicCase{
		ID:                  id,
		CustomerName:        d.CustomerName,
		Phone:               d.Phone,
		Email:               d.Email,
		Street:              d.Street,
		City:                d.City,
		State:               d.State,
		Zip:                 d.Zip,
		ApplianceType:       d.ApplianceType,
		ApplianceBrand:      d.ApplianceBrand,
		ApplianceModel:      d.ApplianceModel,
		SerialNumber:        d.SerialNumber,
		ProblemDescription:  d.ProblemDescription,
		DiagnosisNotes:      d.DiagnosisNotes,
		Status:              types.CaseStatus(d.Status),
		SubStatus:           types.SubStatus(d.SubStatus),
		CancellationReason:  d.CancellationReason,
		DiagnosticFeeType:   d.DiagnosticFeeType,
		DiagnosticFeeAmount: d.DiagnosticFeeAmount,
		LaborCost:           d.LaborCost,
		PartsCost:           d.PartsCost,
		WarrantyStatus:      d.WarrantyStatus,
		WorkOrderNumber:     d.WorkOrderNumber,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
}

func newPublicCaseDoc(p *model.PublicCase) *publicCaseDoc {
	return &publicCaseDoc{
		CustomerName:        p.CustomerName,
		Phone:               p.Phone,
		Email:               p.Email,
		Street:              p.Street,
		City:                p.City,
		State:               p.State,
		Zip:                 p.Zip,
		ApplianceType:       p.ApplianceType,
		ApplianceBrand:      p.ApplianceBrand,
		ApplianceModel:      p.ApplianceModel,
		SerialNumber:        p.SerialNumber,
		ProblemDescription:  p.ProblemDescription,
		DiagnosisNotes:      p.DiagnosisNotes,
		Status:              string(p.Status),
		SubStatus:           string(p.SubStatus),
		CancellationReason:  p.CancellationReason,
		DiagnosticFeeType:   p.DiagnosticFeeType,
		DiagnosticFeeAmount: p.DiagnosticFeeAmount,
		LaborCost:           p.LaborCost,
		PartsCost:           p.PartsCost,
		WarrantyStatus:      p.WarrantyStatus,
		WorkOrderNumber:     p.WorkOrderNumber,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

type invoiceDoc struct {
	CaseID        string     `firestore:"case_id"`
	UserID        string     `firestore:"user_id"`
	CompanyID     *string    `firestore:"company_id"`
	InvoiceNumber string     `firestore:"invoice_number"`
	Status        string     `firestore:"status"`
	Subtotal      float64    `firestore:"subtotal"`
	Tax           float64    `firestore:"tax"`
	Total         float64    `firestore:"total"`
	IssuedAt      time.Time  `firestore:"issued_at"`
	DueAt         *time.Time `firestore:"due_at"`
	PaidAt        *time.Time `firestore:"paid_at"`
	CreatedAt     time.Time  `firestore:"created_at"`
}

func (d *invoiceDoc) toModel(id string) *model.Invoice {
	return &model.Invoice{
		ID:            id,
		CaseID:        d.CaseID,
		UserID:        d.UserID,
		CompanyID:     d.CompanyID,
		InvoiceNumber: d.InvoiceNumber,
		Status:        d.Status,
		Subtotal:      d.Subtotal,
		Tax:           d.Tax,
		Total:         d.Total,
		IssuedAt:      d.IssuedAt,
		DueAt:         d.DueAt,
		PaidAt:        d.PaidAt,
		CreatedAt:     d.CreatedAt,
	}
}

type expenseDoc struct {
	UserID      string    `firestore:"user_id"`
	CompanyID   *string   `firestore:"company_id"`
	CaseID      *string   `firestore:"case_id"`
	Category    string    `firestore:"category"`
	Description string    `firestore:"description"`
	Amount      float64   `firestore:"amount"`
	IncurredAt  time.Time `firestore:"incurred_at"`
	CreatedAt   time.Time `firestore:"created_at"`
}

func (d *expenseDoc) toModel(id string) *model.Expense {
	return &model.Expense{
		ID:          id,
		UserID:      d.UserID,
		CompanyID:   d.CompanyID,
		CaseID:      d.CaseID,
		Category:    d.Category,
		Description: d.Description,
		Amount:      d.Amount,
		IncurredAt:  d.IncurredAt,
		CreatedAt:   d.CreatedAt,
	}
}
