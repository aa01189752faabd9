package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
)

// statisticsService computes per-period completion aggregates.
type statisticsService struct {
	db      *gorm.DB
	periods PeriodServicer
}

// NewStatisticsService creates a new StatisticsServicer.
func NewStatisticsService(db *gorm.DB, periods PeriodServicer) StatisticsServicer {
	return &statisticsService{db: db, periods: periods}
}

type agencyCount struct {
	AgencyID uint
	Total    int64
}

// ComputeStatistics counts, per agency, the live programs and the programs
// with a finalized report in the period. An agency is complete when every
// program has one; an agency without programs is complete.
func (s *statisticsService) ComputeStatistics(periodID uint) (*PeriodStatistics, error) {
	period, err := s.periods.GetPeriodByID(periodID)
	if err != nil {
		return nil, err
	}

	var agencies []models.Agency
	if err := s.db.Order("agency_name ASC").Find(&agencies).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var programCounts []agencyCount
	if err := s.db.Model(&models.Program{}).
		Select("agency_id, COUNT(*) AS total").
		Where("is_deleted = ?", false).
		Group("agency_id").
		Scan(&programCounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var submittedCounts []agencyCount
	if err := s.db.Model(&models.ProgramSubmission{}).
		Scopes(latestFinalized(periodID)).
		Select("programs.agency_id AS agency_id, COUNT(DISTINCT program_submissions.program_id) AS total").
		Joins("JOIN programs ON programs.program_id = program_submissions.program_id").
		Where("programs.is_deleted = ?", false).
		Group("programs.agency_id").
		Scan(&submittedCounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	programsByAgency := make(map[uint]int64, len(programCounts))
	for _, c := range programCounts {
		programsByAgency[c.AgencyID] = c.Total
	}
	submittedByAgency := make(map[uint]int64, len(submittedCounts))
	for _, c := range submittedCounts {
		submittedByAgency[c.AgencyID] = c.Total
	}

	stats := &PeriodStatistics{
		Period:         period,
		TotalAgencies:  len(agencies),
		CompletionRate: decimal.Zero,
		Agencies:       make([]AgencyCompletion, 0, len(agencies)),
	}
	for _, agency := range agencies {
		row := AgencyCompletion{
			AgencyID:       agency.ID,
			AgencyName:     agency.Name,
			ProgramCount:   programsByAgency[agency.ID],
			SubmittedCount: submittedByAgency[agency.ID],
			Status:         CompletionPending,
		}
		if row.SubmittedCount >= row.ProgramCount {
			row.Status = CompletionComplete
			stats.CompleteAgencies++
		} else {
			stats.PendingAgencies++
		}
		stats.TotalPrograms += row.ProgramCount
		stats.SubmittedPrograms += row.SubmittedCount
		stats.Agencies = append(stats.Agencies, row)
	}

	if stats.TotalPrograms > 0 {
		stats.CompletionRate = decimal.NewFromInt(stats.SubmittedPrograms * 100).
			DivRound(decimal.NewFromInt(stats.TotalPrograms), 2)
	}
	return stats, nil
}
