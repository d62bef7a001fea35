package domain

// UnitStatus is the lifecycle state of a rentable unit.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "AVAILABLE"
	UnitHold      UnitStatus = "HOLD"
	UnitLeased    UnitStatus = "LEASED"
	UnitInactive  UnitStatus = "INACTIVE"
)

func (s UnitStatus) Valid() bool {
	switch s {
	case UnitAvailable, UnitHold, UnitLeased, UnitInactive:
		return true
	}
	return false
}

type LeaseStatus string

const (
	LeaseDraft      LeaseStatus = "draft"
	LeaseActive     LeaseStatus = "active"
	LeaseEnded      LeaseStatus = "ended"
	LeaseTerminated LeaseStatus = "terminated"
)

func (s LeaseStatus) Valid() bool {
	switch s {
	case LeaseDraft, LeaseActive, LeaseEnded, LeaseTerminated:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodCard   PaymentMethod = "card"
	MethodOnline PaymentMethod = "online"
	MethodCheck  PaymentMethod = "check"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodOnline, MethodCheck:
		return true
	}
	return false
}

type PropertyType string

const (
	PropertyResidential PropertyType = "residential"
	PropertyCommercial  PropertyType = "commercial"
	PropertyIndustrial  PropertyType = "industrial"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyResidential, PropertyCommercial, PropertyIndustrial:
		return true
	}
	return false
}

type PropertyStatus string

const (
	PropertyActive      PropertyStatus = "active"
	PropertyInactive    PropertyStatus = "inactive"
	PropertyMaintenance PropertyStatus = "maintenance"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyActive, PropertyInactive, PropertyMaintenance:
		return true
	}
	return false
}

type MaintenanceStatus string

const (
	MaintenanceOpen       MaintenanceStatus = "open"
	MaintenanceAssigned   MaintenanceStatus = "assigned"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceResolved   MaintenanceStatus = "resolved"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenanceOpen, MaintenanceAssigned, MaintenanceInProgress, MaintenanceResolved, MaintenanceCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s MaintenanceStatus) Terminal() bool {
	return s == MaintenanceResolved || s == MaintenanceCancelled
}

type MaintenanceCategory string

const (
	CategoryPlumbing   MaintenanceCategory = "plumbing"
	CategoryElectrical MaintenanceCategory = "electrical"
	CategoryHVAC       MaintenanceCategory = "hvac"
	CategoryGeneral    MaintenanceCategory = "general"
)

func (c MaintenanceCategory) Valid() bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryHVAC, CategoryGeneral:
		return true
	}
	return false
}

// MismatchIssue tags a row of the lease/unit consistency view.
type MismatchIssue string

const (
	IssueLeaseActiveUnitNotLeased MismatchIssue = "lease_active_unit_not_leased"
	IssueUnitLeasedNoActiveLease  MismatchIssue = "unit_leased_no_active_lease"
)
