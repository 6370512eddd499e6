// Package tracking creates processes for clients and serves the read
// side of the client list.
package tracking

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"checktrack/internal/errs"
	"checktrack/internal/metrics"
	"checktrack/internal/models"
	"checktrack/internal/runner"
	"checktrack/internal/services/pages"
	"checktrack/internal/services/valuemap"
)

// Service is the process factory. A successful CreateProcess commits
// the process, all its consults, and the client status flip as one
// unit, then dispatches to the runner outside the transaction.
type Service struct {
	db         *gorm.DB
	pages      *pages.Service
	dispatcher Dispatcher
}

// NewService creates a new tracking service. dispatcher may be nil when
// no runner is configured (created processes then wait for an external
// pickup).
func NewService(db *gorm.DB, pageRegistry *pages.Service, dispatcher Dispatcher) *Service {
	return &Service{db: db, pages: pageRegistry, dispatcher: dispatcher}
}

// CreateProcess validates the request, creates the process aggregate
// atomically, and schedules the runner dispatch. All validation happens
// before any write: a rejected request leaves no rows behind.
func (s *Service) CreateProcess(req CreateProcessRequest) (*models.Process, error) {
	if len(req.PageCodes) == 0 {
		return nil, fmt.Errorf("no page codes requested: %w", errs.ErrInvalidInput)
	}
	if dup := firstDuplicate(req.PageCodes); dup != "" {
		return nil, fmt.Errorf("duplicate page code %q: %w", dup, errs.ErrInvalidInput)
	}

	var client models.Client
	if err := s.db.Where("id = ?", req.ClientID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("client %d: %w", req.ClientID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load client %d: %w", req.ClientID, err)
	}

	requested, err := s.pages.FindActiveByCodes(req.PageCodes)
	if err != nil {
		return nil, err
	}
	if len(requested) != len(req.PageCodes) {
		missing := missingCodes(req.PageCodes, requested)
		return nil, fmt.Errorf("unknown or inactive pages: %s: %w",
			strings.Join(missing, ", "), errs.ErrInvalidInput)
	}

	if problems := valuemap.Validate(&client, requested); len(problems) > 0 {
		return nil, fmt.Errorf("insufficient client data: %s: %w",
			strings.Join(problems, "; "), errs.ErrInvalidInput)
	}

	byCode := make(map[string]models.Page, len(requested))
	for _, page := range requested {
		byCode[page.Code] = page
	}

	process := &models.Process{
		ClientID:       client.ID,
		JobID:          uuid.New().String(),
		AlertType:      client.AlertType,
		AmountUSD:      client.AmountUSD,
		AlertDate:      client.AlertDate,
		Status:         models.ProcessPending,
		Headless:       req.Headless,
		GenerateReport: req.GenerateReport,
		TotalRequested: len(req.PageCodes),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(process).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("job id %q already taken: %w", process.JobID, errs.ErrConflict)
			}
			return fmt.Errorf("failed to create process: %w", err)
		}

		// Consults in requested order, value per page category.
		for _, code := range req.PageCodes {
			page := byCode[code]
			value, _ := valuemap.ValueFor(&client, code)

			consult := models.Consult{
				ProcessID:   process.ID,
				PageID:      page.ID,
				ValueSent:   value,
				Status:      models.ConsultPending,
				MaxAttempts: 2,
			}
			if err := tx.Create(&consult).Error; err != nil {
				return fmt.Errorf("failed to create consult for page %q: %w", code, err)
			}
		}

		if err := tx.Model(&models.Client{}).Where("id = ?", client.ID).
			Update("status", models.ClientProcessing).Error; err != nil {
			return fmt.Errorf("failed to update client status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	origin := req.Origin
	if origin == "" {
		origin = "api"
	}
	metrics.ProcessesCreated.WithLabelValues(origin).Inc()
	log.Printf("[%s] Process %d created for client %d (%d pages)",
		process.JobID, process.ID, client.ID, len(req.PageCodes))

	// Fire-and-forget: dispatch failure never unwinds the creation.
	go s.dispatch(process, &client, req.PageCodes)

	return process, nil
}

// dispatch hands the work order to the runner. On failure the error is
// recorded on the process but the process stays Pending for a later
// pickup.
func (s *Service) dispatch(process *models.Process, client *models.Client, codes []string) {
	if s.dispatcher == nil {
		return
	}

	startReq := runner.StartJobRequest{
		Headless:       process.Headless,
		GenerateReport: process.GenerateReport,
		Items:          buildQueryItems(client, codes),
	}

	if err := s.dispatcher.StartJob(process.JobID, startReq); err != nil {
		metrics.DispatchFailures.Inc()
		log.Printf("[%s] Dispatch to runner failed: %v", process.JobID, err)

		if dbErr := s.db.Model(&models.Process{}).Where("id = ?", process.ID).
			Update("error_message", fmt.Sprintf("dispatch failed: %v", err)).Error; dbErr != nil {
			log.Printf("[%s] Failed to record dispatch error: %v", process.JobID, dbErr)
		}
		return
	}

	log.Printf("[%s] Dispatched %d consultations to runner", process.JobID, len(startReq.Items))
}

// buildQueryItems converts page codes into runner work items, skipping
// pages the value mapper has no field for.
func buildQueryItems(client *models.Client, codes []string) []runner.QueryItem {
	items := make([]runner.QueryItem, 0, len(codes))
	for _, code := range codes {
		value, ok := valuemap.ValueFor(client, code)
		if !ok || value == "" {
			continue
		}

		item := runner.QueryItem{Type: code, Value: value}
		if valuemap.CategoryFor(code) == valuemap.CategorySurname {
			item.Surnames = client.Surname
			item.Names = client.Name
		}
		items = append(items, item)
	}
	return items
}

// GetProcessByJobID loads a process with its consults and their pages.
func (s *Service) GetProcessByJobID(jobID string) (*models.Process, error) {
	var process models.Process
	err := s.db.Preload("Consults").Preload("Consults.Page").
		Where("job_id = ?", jobID).First(&process).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %q: %w", jobID, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load process for job %q: %w", jobID, err)
	}
	return &process, nil
}

// ListClients returns clients matching the filter, newest first, each
// with its most recent process.
func (s *Service) ListClients(filter ClientFilter) ([]ClientOverview, error) {
	query := s.db.Model(&models.Client{})

	if filter.Status != "" && filter.Status != "All" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where(
			"name LIKE ? OR surname LIKE ? OR national_id LIKE ? OR tax_id LIKE ?",
			like, like, like, like)
	}

	var clients []models.Client
	if err := query.Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	result := make([]ClientOverview, 0, len(clients))
	for _, client := range clients {
		overview := ClientOverview{Client: client}

		var latest models.Process
		err := s.db.Where("client_id = ?", client.ID).
			Order("created_at DESC").First(&latest).Error
		if err == nil {
			overview.ActiveProcess = &ProcessSummary{
				ProcessID:      latest.ID,
				JobID:          latest.JobID,
				Status:         latest.Status,
				StartedAt:      latest.StartedAt,
				EndedAt:        latest.EndedAt,
				TotalRequested: latest.TotalRequested,
				TotalSucceeded: latest.TotalSucceeded,
				TotalFailed:    latest.TotalFailed,
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load process for client %d: %w", client.ID, err)
		}

		result = append(result, overview)
	}

	return result, nil
}

// UpdateClientStatus sets a client's status directly. When errorMessage
// is non-empty it is also recorded on the client's latest process.
func (s *Service) UpdateClientStatus(clientID uint, status, errorMessage string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Where("id = ?", clientID).First(&client).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("client %d: %w", clientID, errs.ErrNotFound)
			}
			return fmt.Errorf("failed to load client %d: %w", clientID, err)
		}

		if err := tx.Model(&client).Update("status", status).Error; err != nil {
			return fmt.Errorf("failed to update client %d: %w", clientID, err)
		}

		if errorMessage != "" {
			var latest models.Process
			err := tx.Where("client_id = ?", clientID).
				Order("created_at DESC").First(&latest).Error
			if err == nil {
				if err := tx.Model(&latest).Update("error_message", errorMessage).Error; err != nil {
					return fmt.Errorf("failed to record process error: %w", err)
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to load latest process: %w", err)
			}
		}
		return nil
	})
}

func firstDuplicate(codes []string) string {
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if seen[code] {
			return code
		}
		seen[code] = true
	}
	return ""
}

func missingCodes(requested []string, found []models.Page) []string {
	have := make(map[string]bool, len(found))
	for _, page := range found {
		have[page.Code] = true
	}
	var missing []string
	for _, code := range requested {
		if !have[code] {
			missing = append(missing, code)
		}
	}
	return missing
}
