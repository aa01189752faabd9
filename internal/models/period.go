package models

import (
	"encoding/json"
	"fmt"
	"time"

	"pcds2030/internal/daterange"
)

// PeriodType is the granularity of a reporting period.
type PeriodType string

const (
	PeriodTypeQuarter PeriodType = "quarter"
	PeriodTypeHalf    PeriodType = "half"
	PeriodTypeYearly  PeriodType = "yearly"
)

// MaxNumber returns the highest period number allowed for the type, or 0 for
// an unknown type.
func (t PeriodType) MaxNumber() int {
	switch t {
	case PeriodTypeQuarter:
		return 4
	case PeriodTypeHalf:
		return 2
	case PeriodTypeYearly:
		return 1
	}
	return 0
}

// Valid reports whether t is a known period type.
func (t PeriodType) Valid() bool { return t.MaxNumber() > 0 }

// PeriodStatus is either open or closed. At most one period is open.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "open"
	PeriodStatusClosed PeriodStatus = "closed"
)

// Valid reports whether s is open or closed.
func (s PeriodStatus) Valid() bool {
	return s == PeriodStatusOpen || s == PeriodStatusClosed
}

// ReportingPeriod is a named window that agencies report against.
type ReportingPeriod struct {
	ID           uint         `gorm:"column:period_id;primaryKey;autoIncrement" json:"period_id"`
	Year         int          `gorm:"not null;uniqueIndex:idx_period_identity,priority:1" json:"year"`
	PeriodType   PeriodType   `gorm:"size:10;not null;uniqueIndex:idx_period_identity,priority:2" json:"period_type"`
	PeriodNumber int          `gorm:"not null;uniqueIndex:idx_period_identity,priority:3" json:"period_number"`
	StartDate    time.Time    `gorm:"type:date;not null" json:"start_date"`
	EndDate      time.Time    `gorm:"type:date;not null" json:"end_date"`
	Status       PeriodStatus `gorm:"size:10;not null;index" json:"status"`
	Timestamps
}

// TableName overrides the table name used by GORM.
func (ReportingPeriod) TableName() string { return "reporting_periods" }

// Range returns the closed date interval covered by the period.
func (p ReportingPeriod) Range() daterange.Range {
	return daterange.New(p.StartDate, p.EndDate)
}

// Label is the short display name, e.g. "Q2 2025", "H1 2025" or "Y 2025".
func (p ReportingPeriod) Label() string {
	switch p.PeriodType {
	case PeriodTypeQuarter:
		return fmt.Sprintf("Q%d %d", p.PeriodNumber, p.Year)
	case PeriodTypeHalf:
		return fmt.Sprintf("H%d %d", p.PeriodNumber, p.Year)
	default:
		return fmt.Sprintf("Y %d", p.Year)
	}
}

// Describe is the long form used in messages, e.g. "quarter 2 2025".
func (p ReportingPeriod) Describe() string {
	return fmt.Sprintf("%s %d %d", p.PeriodType, p.PeriodNumber, p.Year)
}

// IsOpen reports whether agencies may currently report against the period.
func (p ReportingPeriod) IsOpen() bool { return p.Status == PeriodStatusOpen }

// MarshalJSON renders dates as YYYY-MM-DD and adds the label.
func (p ReportingPeriod) MarshalJSON() ([]byte, error) {
	type alias ReportingPeriod
	return json.Marshal(struct {
		alias
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Label     string `json:"label"`
	}{
		alias:     alias(p),
		StartDate: p.StartDate.Format(daterange.Layout),
		EndDate:   p.EndDate.Format(daterange.Layout),
		Label:     p.Label(),
	})
}
