package domain

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only operation record. Rows are never updated.
type AuditLog struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Actor         *string        `gorm:"column:actor" json:"actor"`
	CorrelationID *string        `gorm:"column:correlation_id;index" json:"correlation_id"`
	Scope         string         `gorm:"column:scope;not null;index" json:"scope"`
	Op            string         `gorm:"column:op;not null" json:"op"`
	ObjectType    *string        `gorm:"column:object_type" json:"object_type"`
	ObjectID      *string        `gorm:"column:object_id" json:"object_id"`
	SQLStatement  *string        `gorm:"column:sql_statement" json:"sql_statement"`
	Params        datatypes.JSON `gorm:"column:params" json:"params"`
	RowsAffected  *int64         `gorm:"column:rows_affected" json:"rows_affected"`
	DurationMs    *int64         `gorm:"column:duration_ms" json:"duration_ms"`
	Status        string         `gorm:"column:status;not null;index" json:"status"`
	Error         *string        `gorm:"column:error" json:"error"`
	CreatedAt     time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

const (
	AuditSuccess = "success"
	AuditError   = "error"
)
