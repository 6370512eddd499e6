package syncer

import (
	"encoding/json"
	"os"
	"path/filepath"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"checktrack/internal/database/dbtest"
	"checktrack/internal/models"
	"checktrack/internal/services/pages"
	"checktrack/internal/services/tracking"
)

func setup(t *testing.T) (*gorm.DB, *Service, *tracking.Service) {
	db := dbtest.Open(t)
	registry := pages.NewService(db)
	require.NoError(t, registry.Seed())

	// nil dispatcher: processes wait for reconciliation, nothing is
	// actually sent anywhere
	return db, NewService(db), tracking.NewService(db, registry, nil)
}

func createProcess(t *testing.T, db *gorm.DB, trackingService *tracking.Service, codes []string, generateReport bool) (*models.Client, *models.Process) {
	client := &models.Client{
		Name:       "Maria",
		Surname:    "Lopez",
		NationalID: "1712345678",
		TaxID:      "1712345678001",
	}
	require.NoError(t, db.Create(client).Error)

	process, err := trackingService.CreateProcess(tracking.CreateProcessRequest{
		ClientID:       client.ID,
		PageCodes:      codes,
		GenerateReport: generateReport,
	})
	require.NoError(t, err)
	return client, process
}

func success(payload string) PageResult {
	return PageResult{
		Outcome:   OutcomeSuccess,
		Payload:   json.RawMessage(payload),
		Timestamp: time.Now(),
	}
}

func failure(message string) PageResult {
	return PageResult{Outcome: "error", Error: message, Timestamp: time.Now()}
}

func reload(t *testing.T, db *gorm.DB, id uint) *models.Process {
	var process models.Process
	require.NoError(t, db.Preload("Consults").Preload("Consults.Page").
		First(&process, id).Error)
	return &process
}

func TestSyncAllSucceeded(t *testing.T) {
	db, service, trackingService := setup(t)
	codes := []string{"ruc", "funcion_judicial", "interpol"}
	client, process := createProcess(t, db, trackingService, codes, false)

	found, err := service.SyncCompletedJob(process.JobID, JobResult{
		Status: JobDone,
		Data: map[string]PageResult{
			"ruc":              success(`{"estado":"ACTIVO"}`),
			"funcion_judicial": success(`{"causas":[]}`),
			"interpol":         success(`{"notices":[]}`),
		},
	})
	require.NoError(t, err)
	assert.True(t, found)

	fresh := reload(t, db, process.ID)
	assert.Equal(t, models.ProcessCompleted, fresh.Status)
	assert.Equal(t, 3, fresh.TotalSucceeded)
	assert.Equal(t, 0, fresh.TotalFailed)
	require.NotNil(t, fresh.EndedAt)
	require.NotNil(t, fresh.StartedAt)

	for _, consult := range fresh.Consults {
		assert.Equal(t, models.ConsultCompleted, consult.Status)
		assert.NotEmpty(t, consult.CapturedData)
		assert.Empty(t, consult.ErrorMessage)
	}

	var freshClient models.Client
	require.NoError(t, db.First(&freshClient, client.ID).Error)
	assert.Equal(t, models.ClientProcessed, freshClient.Status)
}

func TestSyncMixedOutcomes(t *testing.T) {
	db, service, trackingService := setup(t)
	client, process := createProcess(t, db, trackingService, []string{"ruc", "google"}, false)

	found, err := service.SyncCompletedJob(process.JobID, JobResult{
		Status: JobDone,
		Data: map[string]PageResult{
			"ruc":    success(`{"estado":"ACTIVO"}`),
			"google": failure("captcha wall"),
		},
	})
	require.NoError(t, err)
	assert.True(t, found)

	fresh := reload(t, db, process.ID)
	assert.Equal(t, models.ProcessCompletedWithErrors, fresh.Status)
	assert.Equal(t, 1, fresh.TotalSucceeded)
	assert.Equal(t, 1, fresh.TotalFailed)

	for _, consult := range fresh.Consults {
		switch consult.Page.Code {
		case "ruc":
			assert.Equal(t, models.ConsultCompleted, consult.Status)
		case "google":
			assert.Equal(t, models.ConsultFailed, consult.Status)
			assert.Equal(t, "captcha wall", consult.ErrorMessage)
		}
	}

	// partial success still counts as processed for the client
	var freshClient models.Client
	require.NoError(t, db.First(&freshClient, client.ID).Error)
	assert.Equal(t, models.ClientProcessed, freshClient.Status)
}

func TestSyncAllFailed(t *testing.T) {
	db, service, trackingService := setup(t)
	client, process := createProcess(t, db, trackingService, []string{"ruc", "google"}, false)

	found, err := service.SyncCompletedJob(process.JobID, SimulatedResult([]string{"ruc", "google"}, false))
	require.NoError(t, err)
	assert.True(t, found)

	fresh := reload(t, db, process.ID)
	assert.Equal(t, models.ProcessErrorTotal, fresh.Status)
	assert.Equal(t, 0, fresh.TotalSucceeded)
	assert.Equal(t, 2, fresh.TotalFailed)

	var freshClient models.Client
	require.NoError(t, db.First(&freshClient, client.ID).Error)
	assert.Equal(t, models.ClientError, freshClient.Status)
}

func TestSyncUnknownJob(t *testing.T) {
	db, service, _ := setup(t)

	found, err := service.SyncCompletedJob("no-such-job", SimulatedResult([]string{"ruc"}, true))
	require.NoError(t, err)
	assert.False(t, found)

	var processes int64
	require.NoError(t, db.Model(&models.Process{}).Count(&processes).Error)
	assert.Zero(t, processes)
}

func TestSyncIdempotentOnTerminalProcess(t *testing.T) {
	db, service, trackingService := setup(t)
	_, process := createProcess(t, db, trackingService, []string{"ruc"}, false)

	payload := SimulatedResult([]string{"ruc"}, true)
	found, err := service.SyncCompletedJob(process.JobID, payload)
	require.NoError(t, err)
	assert.True(t, found)

	first := reload(t, db, process.ID)

	// a contradictory replay must change nothing
	found, err = service.SyncCompletedJob(process.JobID, SimulatedResult([]string{"ruc"}, false))
	require.NoError(t, err)
	assert.True(t, found)

	second := reload(t, db, process.ID)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.TotalSucceeded, second.TotalSucceeded)
	assert.Equal(t, first.TotalFailed, second.TotalFailed)
	assert.Equal(t, first.Consults[0].Status, second.Consults[0].Status)
	assert.Equal(t, first.Consults[0].Attempts, second.Consults[0].Attempts)
}

func TestSyncPartialRunningPayload(t *testing.T) {
	db, service, trackingService := setup(t)
	client, process := createProcess(t, db, trackingService, []string{"ruc", "google"}, false)

	found, err := service.SyncCompletedJob(process.JobID, JobResult{
		Status: JobRunning,
		Data:   map[string]PageResult{"ruc": success(`{"estado":"ACTIVO"}`)},
	})
	require.NoError(t, err)
	assert.True(t, found)

	fresh := reload(t, db, process.ID)
	assert.Equal(t, models.ProcessProcessing, fresh.Status)
	assert.Nil(t, fresh.EndedAt)
	assert.Equal(t, 1, fresh.TotalSucceeded)
	assert.Equal(t, 0, fresh.TotalFailed)

	for _, consult := range fresh.Consults {
		switch consult.Page.Code {
		case "ruc":
			assert.Equal(t, models.ConsultCompleted, consult.Status)
		case "google":
			// still awaiting a result
			assert.Equal(t, models.ConsultPending, consult.Status)
		}
	}

	var freshClient models.Client
	require.NoError(t, db.First(&freshClient, client.ID).Error)
	assert.Equal(t, models.ClientProcessing, freshClient.Status)

	t.Run("later done payload finishes the job", func(t *testing.T) {
		found, err := service.SyncCompletedJob(process.JobID, JobResult{
			Status: JobDone,
			Data: map[string]PageResult{
				"ruc":    success(`{"estado":"ACTIVO"}`),
				"google": success(`{"hits":3}`),
			},
		})
		require.NoError(t, err)
		assert.True(t, found)

		fresh := reload(t, db, process.ID)
		assert.Equal(t, models.ProcessCompleted, fresh.Status)
	})
}

func TestSyncDonePayloadFailsUncoveredConsults(t *testing.T) {
	db, service, trackingService := setup(t)
	_, process := createProcess(t, db, trackingService, []string{"ruc", "google"}, false)

	found, err := service.SyncCompletedJob(process.JobID, JobResult{
		Status: JobDone,
		Data:   map[string]PageResult{"ruc": success(`{"estado":"ACTIVO"}`)},
	})
	require.NoError(t, err)
	assert.True(t, found)

	fresh := reload(t, db, process.ID)
	assert.Equal(t, models.ProcessCompletedWithErrors, fresh.Status)
	assert.Equal(t, 1, fresh.TotalSucceeded)
	assert.Equal(t, 1, fresh.TotalFailed)

	for _, consult := range fresh.Consults {
		if consult.Page.Code == "google" {
			assert.Equal(t, models.ConsultFailed, consult.Status)
			assert.Contains(t, consult.ErrorMessage, "no result returned")
		}
	}
}

func TestSyncRecordsReport(t *testing.T) {
	db, service, trackingService := setup(t)

	reportPath := filepath.Join(t.TempDir(), "informe_maria_lopez.docx")
	require.NoError(t, os.WriteFile(reportPath, []byte("docx bytes"), 0o644))

	client, process := createProcess(t, db, trackingService, []string{"ruc"}, true)

	result := SimulatedResult([]string{"ruc"}, true)
	result.ReportPath = reportPath

	found, err := service.SyncCompletedJob(process.JobID, result)
	require.NoError(t, err)
	assert.True(t, found)

	var report models.Report
	require.NoError(t, db.Where("process_id = ?", process.ID).First(&report).Error)
	assert.Equal(t, client.ID, report.ClientID)
	assert.Equal(t, process.JobID, report.JobID)
	assert.Equal(t, reportPath, report.FilePath)
	assert.Equal(t, "informe_maria_lopez.docx", report.FileName)
	assert.Equal(t, int64(len("docx bytes")), report.SizeBytes)
	assert.True(t, report.Generated)
	assert.Contains(t, report.DownloadURL, "/download")
}

func TestSyncNoReportRowWhenDisabled(t *testing.T) {
	db, service, trackingService := setup(t)
	_, process := createProcess(t, db, trackingService, []string{"ruc"}, false)

	_, err := service.SyncCompletedJob(process.JobID, SimulatedResult([]string{"ruc"}, true))
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Report{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSyncConcurrentDeliveries(t *testing.T) {
	db, service, trackingService := setup(t)
	codes := []string{"ruc", "google"}
	_, process := createProcess(t, db, trackingService, codes, false)

	payload := SimulatedResult(codes, true)

	var wg stdsync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.SyncCompletedJob(process.JobID, payload)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	fresh := reload(t, db, process.ID)
	assert.Equal(t, models.ProcessCompleted, fresh.Status)
	assert.Equal(t, 2, fresh.TotalSucceeded)

	// only the first delivery applied; the rest were terminal no-ops
	for _, consult := range fresh.Consults {
		assert.Equal(t, 1, consult.Attempts)
	}

	var reports int64
	require.NoError(t, db.Model(&models.Report{}).Count(&reports).Error)
	assert.Zero(t, reports)
}
