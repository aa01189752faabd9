package models

// Program is an agency initiative that reports progress every period.
type Program struct {
	ID          uint   `gorm:"column:program_id;primaryKey;autoIncrement" json:"program_id"`
	AgencyID    uint   `gorm:"not null;index" json:"agency_id"`
	Name        string `gorm:"column:program_name;size:255;not null" json:"program_name"`
	Number      string `gorm:"column:program_number;size:20" json:"program_number"`
	Description string `gorm:"type:text" json:"description"`
	CreatedBy   *uint  `json:"created_by,omitempty"`
	IsDeleted   bool   `gorm:"not null;index" json:"is_deleted"`
	Timestamps

	Agency *Agency `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
}

// TableName overrides the table name used by GORM.
func (Program) TableName() string { return "programs" }
