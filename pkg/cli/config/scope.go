package config

import (
	"github.com/secmon-lab/repairdesk/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Scope holds the principal whose cases are synchronized
type Scope struct {
	userID    string
	companyID string
}

func (s *Scope) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Usage:       "Signed-in technician user ID",
			Category:    "Scope",
			Sources:     cli.EnvVars("REPAIRDESK_USER_ID"),
			Destination: &s.userID,
		},
		&cli.StringFlag{
			Name:        "company-id",
			Usage:       "Company ID for team accounts (cases are selected by company)",
			Category:    "Scope",
			Sources:     cli.EnvVars("REPAIRDESK_COMPANY_ID"),
			Destination: &s.companyID,
		},
	}
}

// Configure returns the validated scope
func (s *Scope) Configure() (model.Scope, error) {
	scope := model.Scope{UserID: s.userID, CompanyID: s.companyID}
	if err := scope.Validate(); err != nil {
		return model.Scope{}, err
	}
	return scope, nil
}
