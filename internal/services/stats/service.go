// Package stats computes read-only rollups over the tracking state.
package stats

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"checktrack/internal/models"
)

// Service aggregates counts for dashboards. Pure read side: it takes no
// locks and tolerates reconciliations committing concurrently — results
// reflect the last committed state.
type Service struct {
	db *gorm.DB
}

// NewService creates a new stats service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ComputeStats counts clients and processes by status and ranks the
// ten busiest pages by consult volume. The optional inclusive range is
// applied independently to client and process creation times.
func (s *Service) ComputeStats(from, to *time.Time) (*Report, error) {
	report := &Report{
		ClientsByStatus:   make(map[string]int64),
		ProcessesByStatus: make(map[string]int64),
	}

	type statusCount struct {
		Status string
		Count  int64
	}

	var clientCounts []statusCount
	if err := ranged(s.db.Model(&models.Client{}), from, to).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&clientCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	for _, row := range clientCounts {
		report.ClientsByStatus[row.Status] = row.Count
		report.TotalClients += row.Count
	}

	var processCounts []statusCount
	if err := ranged(s.db.Model(&models.Process{}), from, to).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&processCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to count processes: %w", err)
	}
	for _, row := range processCounts {
		report.ProcessesByStatus[row.Status] = row.Count
		report.TotalProcesses += row.Count
	}

	// Top pages by consult volume, range applied through the owning
	// process's creation time.
	consultQuery := s.db.Model(&models.Consult{}).
		Joins("JOIN pages ON pages.id = consults.page_id").
		Joins("JOIN processes ON processes.id = consults.process_id")
	if from != nil {
		consultQuery = consultQuery.Where("processes.created_at >= ?", *from)
	}
	if to != nil {
		consultQuery = consultQuery.Where("processes.created_at <= ?", *to)
	}

	if err := consultQuery.
		Select("pages.code as code, pages.name as name, COUNT(*) as consults").
		Group("pages.code, pages.name").
		Order("consults DESC").
		Limit(10).
		Scan(&report.TopPages).Error; err != nil {
		return nil, fmt.Errorf("failed to rank pages: %w", err)
	}

	return report, nil
}

func ranged(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}
	return query
}
