// Package syncer reconciles completion payloads from the external job
// runner against stored process, consult, and client state.
package syncer

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	stdsync "sync"
	"time"

	"gorm.io/gorm"

	"checktrack/internal/metrics"
	"checktrack/internal/models"
)

// Service is the state-synchronization engine. Reconciliation for one
// job identifier is serialized by a per-job mutex, and every applied
// reconciliation commits consult, process, and client mutations as one
// transaction.
type Service struct {
	db    *gorm.DB
	locks stdsync.Map // jobID -> *stdsync.Mutex
}

// NewService creates a new sync service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SyncCompletedJob reconciles a completion payload. Returns false when
// no process carries the job identifier; that is a negative result, not
// an error. A payload for an already-terminal process is a no-op.
func (s *Service) SyncCompletedJob(jobID string, result JobResult) (bool, error) {
	lock := s.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	var process models.Process
	if err := s.db.Where("job_id = ?", jobID).First(&process).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.SyncsTotal.WithLabelValues("unknown_job").Inc()
			log.Printf("[%s] No process for job, nothing to reconcile", jobID)
			return false, nil
		}
		metrics.SyncsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("failed to load process for job %q: %w", jobID, err)
	}

	if process.Terminal() {
		metrics.SyncsTotal.WithLabelValues("noop").Inc()
		log.Printf("[%s] Process %d already %s, payload ignored", jobID, process.ID, process.Status)
		return true, nil
	}

	now := time.Now()
	var completed, failed int

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var consults []models.Consult
		if err := tx.Preload("Page").Where("process_id = ?", process.ID).
			Find(&consults).Error; err != nil {
			return fmt.Errorf("failed to load consults: %w", err)
		}

		for i := range consults {
			consult := &consults[i]

			pageResult, covered := result.Data[consult.Page.Code]
			switch {
			case covered:
				s.applyPageResult(consult, pageResult, now)
			case result.Done() && consult.Status == models.ConsultPending:
				// A terminal payload is exhaustive: uncovered pages
				// never produced a result.
				consult.Status = models.ConsultFailed
				consult.ErrorMessage = "no result returned for this page before job completion"
				consult.EndedAt = &now
				setDuration(consult, now)
			default:
				// Job still running, leave unresolved.
				continue
			}

			if err := tx.Save(consult).Error; err != nil {
				return fmt.Errorf("failed to update consult %d: %w", consult.ID, err)
			}
		}

		// Aggregates always come from the consult snapshot, never from
		// incremental arithmetic.
		completed, failed = 0, 0
		for _, consult := range consults {
			switch consult.Status {
			case models.ConsultCompleted:
				completed++
			case models.ConsultFailed:
				failed++
			}
		}

		process.TotalSucceeded = completed
		process.TotalFailed = failed
		if process.StartedAt == nil {
			process.StartedAt = &now
		}

		if completed+failed < process.TotalRequested {
			process.Status = models.ProcessProcessing
		} else {
			process.Status = deriveProcessStatus(completed, failed)
			process.EndedAt = &now
		}

		if err := tx.Save(&process).Error; err != nil {
			return fmt.Errorf("failed to update process %d: %w", process.ID, err)
		}

		// Client mirrors the process only once it is terminal.
		if process.Terminal() {
			clientStatus := deriveClientStatus(process.Status)
			if err := tx.Model(&models.Client{}).Where("id = ?", process.ClientID).
				Update("status", clientStatus).Error; err != nil {
				return fmt.Errorf("failed to update client %d: %w", process.ClientID, err)
			}

			if process.GenerateReport {
				if err := s.recordReport(tx, &process, result, now); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		metrics.SyncsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("reconciliation for job %q failed: %w", jobID, err)
	}

	metrics.SyncsTotal.WithLabelValues("applied").Inc()
	metrics.ConsultsResolved.WithLabelValues("completed").Add(float64(completed))
	metrics.ConsultsResolved.WithLabelValues("failed").Add(float64(failed))
	log.Printf("[%s] Reconciled process %d: status=%s succeeded=%d failed=%d requested=%d",
		jobID, process.ID, process.Status, completed, failed, process.TotalRequested)

	return true, nil
}

// applyPageResult writes one page outcome onto its consult. Repeated
// deliveries while the process is non-terminal overwrite earlier ones
// (last write wins under the per-job lock).
func (s *Service) applyPageResult(consult *models.Consult, pageResult PageResult, now time.Time) {
	consult.Attempts++
	consult.EndedAt = &now
	setDuration(consult, now)

	if pageResult.Succeeded() {
		consult.Status = models.ConsultCompleted
		consult.ErrorMessage = ""
		if len(pageResult.Payload) > 0 {
			consult.CapturedData = string(pageResult.Payload)
		}
	} else {
		consult.Status = models.ConsultFailed
		consult.ErrorMessage = pageResult.Error
		if consult.ErrorMessage == "" {
			consult.ErrorMessage = "unspecified consultation failure"
		}
	}
}

// recordReport inserts the report row for a terminal process. The file
// itself is produced by the external reporting step; the success flag
// reflects whether the runner shipped a path that exists.
func (s *Service) recordReport(tx *gorm.DB, process *models.Process, result JobResult, now time.Time) error {
	report := models.Report{
		ProcessID:   process.ID,
		ClientID:    process.ClientID,
		JobID:       process.JobID,
		AlertType:   process.AlertType,
		AmountUSD:   process.AmountUSD,
		AlertDate:   process.AlertDate,
		FileType:    "DOCX",
		DownloadURL: fmt.Sprintf("/api/tracking/reports/%d/download", process.ID),
		GeneratedAt: now,
	}

	if result.ReportPath != "" {
		report.FilePath = result.ReportPath
		report.FileName = filepath.Base(result.ReportPath)
		if info, err := os.Stat(result.ReportPath); err == nil {
			report.SizeBytes = info.Size()
			report.Generated = true
		}
	}

	if err := tx.Create(&report).Error; err != nil {
		return fmt.Errorf("failed to record report for process %d: %w", process.ID, err)
	}
	return nil
}

// deriveProcessStatus maps the consult-outcome counts of a fully
// covered process to its terminal status.
func deriveProcessStatus(completed, failed int) string {
	switch {
	case failed == 0:
		return models.ProcessCompleted
	case completed == 0:
		return models.ProcessErrorTotal
	default:
		return models.ProcessCompletedWithErrors
	}
}

// deriveClientStatus maps a terminal process status to the client
// status that mirrors it.
func deriveClientStatus(processStatus string) string {
	if processStatus == models.ProcessErrorTotal {
		return models.ClientError
	}
	return models.ClientProcessed
}

func setDuration(consult *models.Consult, now time.Time) {
	if consult.StartedAt != nil {
		consult.DurationSeconds = int(now.Sub(*consult.StartedAt).Seconds())
	}
}

func (s *Service) lockFor(jobID string) *stdsync.Mutex {
	v, _ := s.locks.LoadOrStore(jobID, &stdsync.Mutex{})
	return v.(*stdsync.Mutex)
}
