// Package report renders period statistics as spreadsheet exports.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"pcds2030/internal/daterange"
	"pcds2030/internal/services"
)

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	summarySheet  = "Summary"
	agenciesSheet = "Agencies"
)

// Filename is the download name for a period's statistics export,
// e.g. "pcds2030-statistics-Q2-2025.xlsx".
func Filename(stats *services.PeriodStatistics) string {
	label := "period"
	if stats.Period != nil {
		label = stats.Period.Label()
	}
	return fmt.Sprintf("pcds2030-statistics-%s.xlsx", sanitize(label))
}

func sanitize(s string) string {
	out := []byte(s)
	for i, b := range out {
		if b == ' ' {
			out[i] = '-'
		}
	}
	return string(out)
}

// StatisticsWorkbook renders a summary sheet and one row per agency.
func StatisticsWorkbook(stats *services.PeriodStatistics) (*bytes.Buffer, error) {
	if stats == nil || stats.Period == nil {
		return nil, fmt.Errorf("statistics without a period")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(agenciesSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	period := stats.Period
	rate, _ := stats.CompletionRate.Float64()
	summary := [][]interface{}{
		{"Period", period.Label()},
		{"Start date", period.StartDate.Format(daterange.Layout)},
		{"End date", period.EndDate.Format(daterange.Layout)},
		{"Status", string(period.Status)},
		{"Agencies", stats.TotalAgencies},
		{"Complete agencies", stats.CompleteAgencies},
		{"Pending agencies", stats.PendingAgencies},
		{"Programs", stats.TotalPrograms},
		{"Submitted programs", stats.SubmittedPrograms},
		{"Completion rate (%)", rate},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 22); err != nil {
		return nil, err
	}

	header := []interface{}{"Agency", "Programs", "Submitted", "Status"}
	if err := f.SetSheetRow(agenciesSheet, "A1", &header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(agenciesSheet, "A1", "D1", bold); err != nil {
		return nil, err
	}
	for i, a := range stats.Agencies {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{a.AgencyName, a.ProgramCount, a.SubmittedCount, string(a.Status)}
		if err := f.SetSheetRow(agenciesSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(agenciesSheet, "A", "A", 40); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}
