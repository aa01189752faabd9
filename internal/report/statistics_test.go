package report

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pcds2030/internal/models"
	"pcds2030/internal/services"
	"pcds2030/internal/testutil"
)

func sampleStats() *services.PeriodStatistics {
	return &services.PeriodStatistics{
		Period: &models.ReportingPeriod{
			ID: 3, Year: 2025, PeriodType: models.PeriodTypeQuarter, PeriodNumber: 2,
			StartDate: testutil.Date(2025, 4, 1), EndDate: testutil.Date(2025, 6, 30),
			Status: models.PeriodStatusOpen,
		},
		TotalAgencies:     2,
		CompleteAgencies:  1,
		PendingAgencies:   1,
		TotalPrograms:     3,
		SubmittedPrograms: 2,
		CompletionRate:    decimal.RequireFromString("66.67"),
		Agencies: []services.AgencyCompletion{
			{AgencyID: 1, AgencyName: "Forestry Department", ProgramCount: 1, SubmittedCount: 1, Status: services.CompletionComplete},
			{AgencyID: 2, AgencyName: "Land Survey", ProgramCount: 2, SubmittedCount: 1, Status: services.CompletionPending},
		},
	}
}

func TestStatisticsWorkbook(t *testing.T) {
	buf, err := StatisticsWorkbook(sampleStats())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Agencies"}, f.GetSheetList())

	label, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "Q2 2025", label)

	start, _ := f.GetCellValue("Summary", "B2")
	assert.Equal(t, "2025-04-01", start)

	rate, _ := f.GetCellValue("Summary", "B10")
	assert.Equal(t, "66.67", rate)

	rows, err := f.GetRows("Agencies")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Agency", "Programs", "Submitted", "Status"}, rows[0])
	assert.Equal(t, []string{"Land Survey", "2", "1", "pending"}, rows[2])
}

func TestStatisticsWorkbookRequiresPeriod(t *testing.T) {
	_, err := StatisticsWorkbook(&services.PeriodStatistics{})
	assert.Error(t, err)

	_, err = StatisticsWorkbook(nil)
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "pcds2030-statistics-Q2-2025.xlsx", Filename(sampleStats()))
	assert.Equal(t, "pcds2030-statistics-period.xlsx", Filename(&services.PeriodStatistics{}))
}
