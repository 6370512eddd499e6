// Package reports locates generated report artifacts on disk.
package reports

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"checktrack/internal/errs"
	"checktrack/internal/models"
)

// Service is the report locator: it resolves report records to files
// and never writes anything beyond what the sync engine recorded.
type Service struct {
	db *gorm.DB
}

// NewService creates a new report locator service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Download describes a file handed out for download.
type Download struct {
	Path     string `json:"path"`
	FileName string `json:"file_name"`
}

// ListFilter narrows List. Dates are inclusive and apply to the report
// generation time.
type ListFilter struct {
	ClientID       uint
	From           *time.Time
	To             *time.Time
	OnlySuccessful bool
}

// Entry is a report record enriched with its file's current existence.
type Entry struct {
	Report     models.Report `json:"report"`
	FileExists bool          `json:"file_exists"`
}

// ForProcess returns the successfully generated report of a process.
func (s *Service) ForProcess(processID uint) (*models.Report, error) {
	var report models.Report
	err := s.db.Where("process_id = ? AND generated = ?", processID, true).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("report for process %d: %w", processID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load report for process %d: %w", processID, err)
	}
	return &report, nil
}

// DownloadForProcess resolves a process's report to a download pair.
// NotFound when the record is missing or the file vanished from disk.
func (s *Service) DownloadForProcess(processID uint) (*Download, error) {
	report, err := s.ForProcess(processID)
	if err != nil {
		return nil, err
	}

	if report.FilePath == "" || !s.FileExists(report.FilePath) {
		return nil, fmt.Errorf("report file for process %d missing on disk: %w",
			processID, errs.ErrNotFound)
	}

	fileName := report.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("report_process_%d.docx", processID)
	}

	return &Download{Path: report.FilePath, FileName: fileName}, nil
}

// FileExists reports whether the path points at an existing file.
func (s *Service) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// List returns report records matching the filter, newest first, each
// annotated with whether its file is still on disk.
func (s *Service) List(filter ListFilter) ([]Entry, error) {
	query := s.db.Model(&models.Report{})

	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.From != nil {
		query = query.Where("generated_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("generated_at <= ?", *filter.To)
	}
	if filter.OnlySuccessful {
		query = query.Where("generated = ?", true)
	}

	var records []models.Report
	if err := query.Order("generated_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	entries := make([]Entry, len(records))
	for i, record := range records {
		entries[i] = Entry{
			Report:     record,
			FileExists: record.FilePath != "" && s.FileExists(record.FilePath),
		}
	}

	return entries, nil
}
