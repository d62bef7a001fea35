package domain

import "time"

// Models lists every persisted model in foreign-key order for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&Property{}, &Unit{}, &Tenant{}, &Hold{}, &Lease{}, &Payment{},
		&MaintenanceRequest{}, &AuditLog{},
	}
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
