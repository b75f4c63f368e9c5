package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/repairdesk/pkg/domain/types"
)

// Case is a work order: a single repair engagement for one customer
type Case struct {
	ID string `json:"id"`

	// Customer
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Street       string `json:"street"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`

	// Appliance
	ApplianceType  string `json:"appliance_type"`
	ApplianceBrand string `json:"appliance_brand"`
	ApplianceModel string `json:"appliance_model"`
	SerialNumber   string `json:"serial_number"`

	ProblemDescription string  `json:"problem_description"`
	DiagnosisNotes     *string `json:"diagnosis_notes,omitempty"`
	TechnicianNotes    *string `json:"technician_notes,omitempty"`

	Status             types.CaseStatus `json:"status"`
	SubStatus          types.SubStatus  `json:"sub_status,omitempty"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`

	// Costs
	DiagnosticFeeType   string  `json:"diagnostic_fee_type"`
	DiagnosticFeeAmount float64 `json:"diagnostic_fee_amount"`
	LaborCost           float64 `json:"labor_cost"`
	LaborCostCalculated float64 `json:"labor_cost_calculated"`
	PartsCost           float64 `json:"parts_cost"`
	WarrantyStatus      string  `json:"warranty_status"`

	WorkOrderNumber *string `json:"wo_number,omitempty"`
	CompanyID       *string `json:"company_id,omitempty"`
	UserID          string  `json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the invariants every row must satisfy once it crosses the
// backend boundary.
func (c *Case) Validate() error {
	if c.ID == "" {
		return goerr.Wrap(ErrInvalidCase, "case id is required")
	}
	if c.UserID == "" {
		return goerr.Wrap(ErrInvalidCase, "case owner is required", goerr.V(CaseIDKey, c.ID))
	}
	return nil
}

// IsTeamCase reports whether the case belongs to a company rather than an
// individual account.
func (c *Case) IsTeamCase() bool {
	return c.CompanyID != nil && *c.CompanyID != ""
}

// TotalCost returns the amount billable for the case
func (c *Case) TotalCost() float64 {
	labor := c.LaborCost
	if c.LaborCostCalculated > 0 {
		labor = c.LaborCostCalculated
	}
	return c.DiagnosticFeeAmount + labor + c.PartsCost
}

// ApplyStatus writes a status update onto the case
func (c *Case) ApplyStatus(update StatusUpdate, at time.Time) {
	c.Status = update.Status
	if update.SubStatus != "" {
		c.SubStatus = update.SubStatus
	}
	if update.CancellationReason != "" {
		c.CancellationReason = update.CancellationReason
	}
	c.UpdatedAt = at
}

// Clone returns a deep copy of the case
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	copied := *c
	copied.DiagnosisNotes = cloneString(c.DiagnosisNotes)
	copied.TechnicianNotes = cloneString(c.TechnicianNotes)
	copied.WorkOrderNumber = cloneString(c.WorkOrderNumber)
	copied.CompanyID = cloneString(c.CompanyID)
	return &copied
}

// CloneCases deep copies a case list
func CloneCases(cases []*Case) []*Case {
	if cases == nil {
		return nil
	}
	copied := make([]*Case, len(cases))
	for i, c := range cases {
		copied[i] = c.Clone()
	}
	return copied
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
