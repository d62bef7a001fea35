package integrity

import (
	"context"
	"time"

	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/application/events"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const Scope = "integrity"

type Service struct {
	DB     *gorm.DB
	Audit  *audit.Recorder
	Events *events.Publisher
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type activeLeaseRow struct {
	LeaseID     uuid.UUID
	UnitID      uuid.UUID
	UnitName    string
	LeaseStatus domain.LeaseStatus
	UnitStatus  domain.UnitStatus
	StartDate   time.Time
	EndDate     time.Time
}

type leasedUnitRow struct {
	UnitID uuid.UUID
	Name   string
	Status domain.UnitStatus
}

// Mismatches is the read-only lease/unit status consistency view.
func (s *Service) Mismatches(ctx context.Context) ([]domain.Mismatch, error) {
	return mismatches(s.DB.WithContext(ctx))
}

func mismatches(db *gorm.DB) ([]domain.Mismatch, error) {
	var leaseRows []activeLeaseRow
	err := db.Table("leases AS l").
		Select("l.lease_id, l.unit_id, u.name AS unit_name, l.status AS lease_status, u.status AS unit_status, l.start_date, l.end_date").
		Joins("JOIN units AS u ON u.unit_id = l.unit_id").
		Where("l.status = ? AND u.status <> ?", domain.LeaseActive, domain.UnitLeased).
		Order("l.start_date").
		Scan(&leaseRows).Error
	if err != nil {
		return nil, database.Classify(err)
	}

	var unitRows []leasedUnitRow
	err = db.Model(&domain.Unit{}).
		Select("unit_id, name, status").
		Where("status = ?", domain.UnitLeased).
		Where("NOT EXISTS (SELECT 1 FROM leases AS l WHERE l.unit_id = units.unit_id AND l.status = ?)", domain.LeaseActive).
		Order("name").
		Scan(&unitRows).Error
	if err != nil {
		return nil, database.Classify(err)
	}

	out := make([]domain.Mismatch, 0, len(leaseRows)+len(unitRows))
	for _, r := range leaseRows {
		r := r
		out = append(out, domain.Mismatch{
			LeaseID:     &r.LeaseID,
			UnitID:      r.UnitID,
			UnitName:    r.UnitName,
			LeaseStatus: &r.LeaseStatus,
			UnitStatus:  r.UnitStatus,
			IssueType:   domain.IssueLeaseActiveUnitNotLeased,
			StartDate:   &r.StartDate,
			EndDate:     &r.EndDate,
		})
	}
	for _, r := range unitRows {
		out = append(out, domain.Mismatch{
			UnitID:     r.UnitID,
			UnitName:   r.Name,
			UnitStatus: r.Status,
			IssueType:  domain.IssueUnitLeasedNoActiveLease,
		})
	}
	return out, nil
}

type RepairResult struct {
	Leased            int64 `json:"leased"`
	Held              int64 `json:"held"`
	Released          int64 `json:"released"`
	StaleHoldsRemoved int64 `json:"stale_holds_removed"`
}

// RepairUnitStatuses re-derives every unit's status from active leases and
// live holds. INACTIVE units are left alone; a LEASED unit without an active
// lease but with a live hold drops to HOLD. Running it twice changes nothing
// the second time.
func (s *Service) RepairUnitStatuses(ctx context.Context, actor, correlationID string) (*RepairResult, error) {
	tr := s.Audit.Start(audit.Op{Scope: Scope, Name: "repair_unit_statuses", ObjectType: "unit", Actor: actor, CorrelationID: correlationID})
	var result RepairResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		activeLease := "EXISTS (SELECT 1 FROM leases AS l WHERE l.unit_id = units.unit_id AND l.status = ?)"
		liveHold := "EXISTS (SELECT 1 FROM holds AS h WHERE h.unit_id = units.unit_id AND h.expires_at > ?)"

		res := tr.Exec(tx.Model(&domain.Unit{}).
			Where("status NOT IN ?", []domain.UnitStatus{domain.UnitLeased, domain.UnitInactive}).
			Where(activeLease, domain.LeaseActive).
			Update("status", domain.UnitLeased))
		if res.Error != nil {
			return res.Error
		}
		result.Leased = res.RowsAffected

		res = tr.Exec(tx.Where("expires_at <= ?", now).Delete(&domain.Hold{}))
		if res.Error != nil {
			return res.Error
		}
		result.StaleHoldsRemoved = res.RowsAffected

		res = tr.Exec(tx.Model(&domain.Unit{}).
			Where("status = ?", domain.UnitLeased).
			Where("NOT "+activeLease, domain.LeaseActive).
			Where(liveHold, now).
			Update("status", domain.UnitHold))
		if res.Error != nil {
			return res.Error
		}
		result.Held = res.RowsAffected

		res = tr.Exec(tx.Model(&domain.Unit{}).
			Where("status IN ?", []domain.UnitStatus{domain.UnitLeased, domain.UnitHold}).
			Where("NOT "+activeLease, domain.LeaseActive).
			Where("NOT "+liveHold, now).
			Update("status", domain.UnitAvailable))
		if res.Error != nil {
			return res.Error
		}
		result.Released = res.RowsAffected

		tr.Succeed(tx)
		return nil
	})
	err = database.Classify(err)
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	if result.Leased+result.Held+result.Released > 0 {
		s.Events.Publish(ctx, events.UnitsRepaired, result)
	}
	return &result, nil
}

// CheckResult is the data integrity report.
type CheckResult struct {
	Success     bool              `json:"success"`
	IssuesFound int               `json:"issues_found"`
	AutoFixed   bool              `json:"auto_fixed"`
	Remaining   int               `json:"remaining"`
	Repair      *RepairResult     `json:"repair,omitempty"`
	Mismatches  []domain.Mismatch `json:"mismatches"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Check reports mismatches and, when autoFix is set and issues exist,
// repairs them and re-reads the view.
func (s *Service) Check(ctx context.Context, autoFix bool, actor, correlationID string) (*CheckResult, error) {
	found, err := s.Mismatches(ctx)
	if err != nil {
		return nil, err
	}
	out := &CheckResult{Success: true, IssuesFound: len(found), Remaining: len(found), Mismatches: found, Timestamp: s.now()}
	if !autoFix || len(found) == 0 {
		return out, nil
	}
	repair, err := s.RepairUnitStatuses(ctx, actor, correlationID)
	if err != nil {
		return nil, err
	}
	remaining, err := s.Mismatches(ctx)
	if err != nil {
		return nil, err
	}
	out.AutoFixed = true
	out.Repair = repair
	out.Remaining = len(remaining)
	return out, nil
}
