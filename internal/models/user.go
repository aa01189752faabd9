package models

import "time"

// UserRole is the capability level of a user.
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleAgency UserRole = "agency"
	UserRoleFocal  UserRole = "focal"
)

// RequiresAgency reports whether users of this role must belong to an agency.
func (r UserRole) RequiresAgency() bool {
	return r == UserRoleAgency || r == UserRoleFocal
}

// User is an admin or an agency staff member.
type User struct {
	ID          uint       `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	Username    string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Password    string     `gorm:"not null" json:"-"`
	FullName    string     `gorm:"size:200" json:"full_name"`
	Role        UserRole   `gorm:"size:20;not null" json:"role"`
	AgencyID    *uint      `gorm:"index" json:"agency_id,omitempty"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	Timestamps

	Agency *Agency `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
}

// TableName overrides the table name used by GORM.
func (User) TableName() string { return "users" }
