package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditStatus records whether the audited operation succeeded.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// AuditLog records administrative and submission operations for compliance.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Action    string         `gorm:"size:100;not null;index" json:"action"`
	Details   datatypes.JSON `json:"details,omitempty"`
	Status    AuditStatus    `gorm:"size:10;not null" json:"status"`
	IPAddress string         `gorm:"size:45" json:"ip_address"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// TableName overrides the table name used by GORM.
func (AuditLog) TableName() string { return "audit_logs" }
