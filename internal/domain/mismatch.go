package domain

import (
	"time"

	"github.com/google/uuid"
)

// Mismatch is one row of the lease/unit status consistency view.
type Mismatch struct {
	LeaseID     *uuid.UUID    `json:"lease_id"`
	UnitID      uuid.UUID     `json:"unit_id"`
	UnitName    string        `json:"unit_name"`
	LeaseStatus *LeaseStatus  `json:"lease_status"`
	UnitStatus  UnitStatus    `json:"unit_status"`
	IssueType   MismatchIssue `json:"issue_type"`
	StartDate   *time.Time    `json:"start_date"`
	EndDate     *time.Time    `json:"end_date"`
}
