package models

// Agency is a government body that owns programs.
type Agency struct {
	ID   uint   `gorm:"column:agency_id;primaryKey;autoIncrement" json:"agency_id"`
	Name string `gorm:"column:agency_name;size:255;not null" json:"agency_name"`
}

// TableName overrides the table name used by GORM.
func (Agency) TableName() string { return "agency" }
