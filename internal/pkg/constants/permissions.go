package constants

const (
	ViewData          = "view_data"
	PlaceHold         = "place_hold"
	ConfirmLease      = "confirm_lease"
	TerminateLease    = "terminate_lease"
	PostPayment       = "post_payment"
	ProcessOverdue    = "process_overdue"
	RepairStatuses    = "repair_statuses"
	ViewAudit         = "view_audit"
	ManageProperties  = "manage_properties"
	ManageMaintenance = "manage_maintenance"
	RequestRepair     = "request_repair"
)

// PermissionRoles maps each permission to roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewData:          {Admin, Owner, Ops, Tenant},
	PlaceHold:         {Admin, Owner, Ops, Tenant},
	ConfirmLease:      {Admin, Owner, Ops},
	TerminateLease:    {Admin, Owner, Ops},
	PostPayment:       {Admin, Owner, Ops},
	ProcessOverdue:    {Admin, Ops},
	RepairStatuses:    {Admin, Ops},
	ViewAudit:         {Admin, Ops},
	ManageProperties:  {Admin, Owner},
	ManageMaintenance: {Admin, Owner, Ops},
	RequestRepair:     {Admin, Owner, Ops, Tenant},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
