package reports

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"checktrack/internal/database/dbtest"
	"checktrack/internal/errs"
	"checktrack/internal/models"
)

func writeReportFile(t *testing.T, name string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("docx bytes"), 0o644))
	return path
}

func createReport(t *testing.T, db *gorm.DB, processID, clientID uint, path string, generated bool, generatedAt time.Time) *models.Report {
	report := &models.Report{
		ProcessID:   processID,
		ClientID:    clientID,
		JobID:       "job-for-" + filepath.Base(path),
		FileName:    filepath.Base(path),
		FilePath:    path,
		Generated:   generated,
		GeneratedAt: generatedAt,
	}
	require.NoError(t, db.Create(report).Error)
	return report
}

func TestForProcess(t *testing.T) {
	db := dbtest.Open(t)
	service := NewService(db)

	path := writeReportFile(t, "informe_1.docx")
	createReport(t, db, 1, 10, path, true, time.Now())

	report, err := service.ForProcess(1)
	require.NoError(t, err)
	assert.Equal(t, "informe_1.docx", report.FileName)

	t.Run("missing record", func(t *testing.T) {
		_, err := service.ForProcess(999)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("ungenerated report is not returned", func(t *testing.T) {
		createReport(t, db, 2, 10, "", false, time.Now())
		_, err := service.ForProcess(2)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestDownloadForProcess(t *testing.T) {
	db := dbtest.Open(t)
	service := NewService(db)

	path := writeReportFile(t, "informe_3.docx")
	createReport(t, db, 3, 10, path, true, time.Now())

	download, err := service.DownloadForProcess(3)
	require.NoError(t, err)
	assert.Equal(t, path, download.Path)
	assert.Equal(t, "informe_3.docx", download.FileName)

	t.Run("file removed after generation", func(t *testing.T) {
		require.NoError(t, os.Remove(path))
		_, err := service.DownloadForProcess(3)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestFileExists(t *testing.T) {
	service := NewService(dbtest.Open(t))

	path := writeReportFile(t, "present.docx")
	assert.True(t, service.FileExists(path))
	assert.False(t, service.FileExists(filepath.Join(t.TempDir(), "absent.docx")))
	assert.False(t, service.FileExists(filepath.Dir(path)))
}

func TestList(t *testing.T) {
	db := dbtest.Open(t)
	service := NewService(db)

	now := time.Now()
	onDisk := writeReportFile(t, "informe_a.docx")

	createReport(t, db, 1, 10, onDisk, true, now)
	createReport(t, db, 2, 10, filepath.Join(t.TempDir(), "gone.docx"), true, now.Add(-time.Hour))
	createReport(t, db, 3, 20, "", false, now.Add(-48*time.Hour))

	t.Run("all, newest first, with existence flag", func(t *testing.T) {
		entries, err := service.List(ListFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, uint(1), entries[0].Report.ProcessID)
		assert.True(t, entries[0].FileExists)
		assert.False(t, entries[1].FileExists)
		assert.False(t, entries[2].FileExists)
	})

	t.Run("by client", func(t *testing.T) {
		entries, err := service.List(ListFilter{ClientID: 20})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, uint(3), entries[0].Report.ProcessID)
	})

	t.Run("only successful", func(t *testing.T) {
		entries, err := service.List(ListFilter{OnlySuccessful: true})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("date window", func(t *testing.T) {
		from := now.Add(-2 * time.Hour)
		to := now.Add(-30 * time.Minute)
		entries, err := service.List(ListFilter{From: &from, To: &to})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, uint(2), entries[0].Report.ProcessID)
	})
}
