package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

// PublicCase is an unclaimed lead visible to every technician. It carries
// the same work-order fields as Case but has no owner yet.
type PublicCase struct {
	ID string `json:"id"`

	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`

	ApplianceType  string `json:"appliance_type"`
	ApplianceBrand string `json:"appliance_brand"`
	ApplianceModel string `json:"appliance_model"`
	SerialNumber   string `json:"serial_number"`

	ProblemDescription string  `json:"problem_description"`
	DiagnosisNotes     *string `json:"diagnosis_notes,omitempty"`

	Status             types.CaseStatus `json:"status"`
	SubStatus          types.SubStatus  `json:"sub_status,omitempty"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`

	DiagnosticFeeType   string  `json:"diagnostic_fee_type"`
	DiagnosticFeeAmount float64 `json:"diagnostic_fee_amount"`
	LaborCost           float64 `json:"labor_cost"`
	PartsCost           float64 `json:"parts_cost"`
	WarrantyStatus      string  `json:"warranty_status"`

	WorkOrderNumber *string `json:"wo_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the boundary invariants of a public case
func (p *PublicCase) Validate() error {
	if p.ID == "" {
		return goerr.Wrap(ErrInvalidCase, "public case id is required")
	}
	return nil
}

// Claim builds the owned case that results from owner taking the lead with
// the given status update. The case keeps the public id.
func (p *PublicCase) Claim(owner Scope, update StatusUpdate, at time.Time) *Case {
	c := &Case{
		ID:                  p.ID,
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
		DiagnosisNotes:      cloneString(p.DiagnosisNotes),
		Status:              p.Status,
		SubStatus:           p.SubStatus,
		CancellationReason:  p.CancellationReason,
		DiagnosticFeeType:   p.DiagnosticFeeType,
		DiagnosticFeeAmount: p.DiagnosticFeeAmount,
		LaborCost:           p.LaborCost,
		PartsCost:           p.PartsCost,
		WarrantyStatus:      p.WarrantyStatus,
		WorkOrderNumber:     cloneString(p.WorkOrderNumber),
		CompanyID:           StringPtr(owner.CompanyID),
		UserID:              owner.UserID,
		CreatedAt:           p.CreatedAt,
	}
	c.ApplyStatus(update, at)
	return c
}

// Clone returns a deep copy of the public case
func (p *PublicCase) Clone() *PublicCase {
	if p == nil {
		return nil
	}
	copied := *p
	copied.DiagnosisNotes = cloneString(p.DiagnosisNotes)
	copied.WorkOrderNumber = cloneString(p.WorkOrderNumber)
	return &copied
}

// ClonePublicCases deep copies a public case list
func ClonePublicCases(cases []*PublicCase) []*PublicCase {
	if cases == nil {
		return nil
	}
	copied := make([]*PublicCase, len(cases))
	for i, c := range cases {
		copied[i] = c.Clone()
	}
	return copied
}
