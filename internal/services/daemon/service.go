// Package daemon periodically launches processes for clients that are
// still waiting and keeps an eye on runs that never came back.
package daemon

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"checktrack/internal/errs"
	"checktrack/internal/models"
	"checktrack/internal/services/tracking"
)

// Options configures the sweep cadence and scope.
type Options struct {
	Cron      string        // 6-field cron expression
	BatchSize int           // max clients picked up per sweep
	PageCodes []string      // pages consulted for swept clients
	StaleAge  time.Duration // Processing older than this is reported stale
}

// Service drives the automatic processing of Pending clients. Swept
// processes always run headless with report generation on, matching
// unattended operation.
type Service struct {
	db       *gorm.DB
	tracking *tracking.Service
	opts     Options
	cron     *cron.Cron
}

// NewService creates a new daemon service
func NewService(db *gorm.DB, trackingService *tracking.Service, opts Options) *Service {
	return &Service{
		db:       db,
		tracking: trackingService,
		opts:     opts,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start registers the sweep and watchdog jobs and starts the scheduler.
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.opts.Cron, func() {
		if _, err := s.Sweep(); err != nil {
			log.Printf("Daemon sweep failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid daemon cron %q: %w", s.opts.Cron, err)
	}

	if _, err := s.cron.AddFunc(s.opts.Cron, func() {
		if _, err := s.WatchStale(); err != nil {
			log.Printf("Stale watchdog failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid daemon cron %q: %w", s.opts.Cron, err)
	}

	s.cron.Start()
	log.Printf("Daemon started: cron=%q batch=%d pages=%v",
		s.opts.Cron, s.opts.BatchSize, s.opts.PageCodes)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		log.Println("Daemon stopped")
	}
}

// Sweep picks up to BatchSize Pending clients (oldest first) and
// creates a process for each. Clients whose data cannot satisfy the
// configured pages are marked Error with the reason. Returns how many
// processes were created.
func (s *Service) Sweep() (int, error) {
	var clients []models.Client
	if err := s.db.Where("status = ?", models.ClientPending).
		Order("created_at").
		Limit(s.opts.BatchSize).
		Find(&clients).Error; err != nil {
		return 0, fmt.Errorf("failed to load pending clients: %w", err)
	}

	created := 0
	for _, client := range clients {
		process, err := s.tracking.CreateProcess(tracking.CreateProcessRequest{
			ClientID:       client.ID,
			PageCodes:      s.opts.PageCodes,
			Headless:       true,
			GenerateReport: true,
			Origin:         "daemon",
		})
		if err != nil {
			if errors.Is(err, errs.ErrInvalidInput) {
				log.Printf("Daemon: client %d rejected: %v", client.ID, err)
				if updErr := s.tracking.UpdateClientStatus(client.ID, models.ClientError, err.Error()); updErr != nil {
					log.Printf("Daemon: failed to mark client %d as Error: %v", client.ID, updErr)
				}
				continue
			}
			return created, fmt.Errorf("failed to create process for client %d: %w", client.ID, err)
		}

		created++
		log.Printf("Daemon: process %d (job %s) created for client %d",
			process.ID, process.JobID, client.ID)
	}

	if created > 0 {
		log.Printf("Daemon sweep complete: %d of %d pending clients launched", created, len(clients))
	}
	return created, nil
}

// WatchStale reports processes stuck in Processing longer than
// StaleAge. Observability only: there is no expiry policy, a process
// stays Processing until a completion payload arrives.
func (s *Service) WatchStale() ([]models.Process, error) {
	cutoff := time.Now().Add(-s.opts.StaleAge)

	var stale []models.Process
	if err := s.db.Where("status = ? AND created_at < ?", models.ProcessProcessing, cutoff).
		Order("created_at").
		Find(&stale).Error; err != nil {
		return nil, fmt.Errorf("failed to scan for stale processes: %w", err)
	}

	for _, process := range stale {
		log.Printf("[%s] WARNING: process %d Processing since %s with no completion payload",
			process.JobID, process.ID, process.CreatedAt.Format(time.RFC3339))
	}

	return stale, nil
}
