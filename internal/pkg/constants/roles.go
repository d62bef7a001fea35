package constants

const (
	Admin  = "admin"
	Owner  = "owner"
	Tenant = "tenant"
	Ops    = "ops"
)

// ValidRoles is the set of roles a session identity may carry.
var ValidRoles = []string{Admin, Owner, Tenant, Ops}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
