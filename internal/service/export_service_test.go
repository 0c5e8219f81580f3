package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/pkg/storage"
)

func newTestExporter(t *testing.T) *ExportService {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	svc := NewExportService(local, storage.NewSignedURLSigner("secret", time.Hour), ExportConfig{APIPrefix: "/api/v1/", PublicURL: "https://console.test/"}, nil)
	svc.now = fixedNow
	return svc
}

func TestExportRenderFormats(t *testing.T) {
	svc := newTestExporter(t)
	date := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	rows := []models.ReportRow{{ID: "S-1", Name: "Ana", Class: "5A", Vaccinated: "yes", Date: &date}}

	csv, err := svc.Render(models.ReportFormatCSV, rows, "")
	require.NoError(t, err)
	assert.Equal(t, "vaccination_report_20250501_090000.csv", csv.Filename)
	assert.Equal(t, "id,name,class,vaccinated,date\nS-1,Ana,5A,yes,2025-04-02\n", string(csv.Payload))

	pdf, err := svc.Render(models.ReportFormatPDF, rows, svc.StatusURL("job-1"))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, strings.HasPrefix(string(pdf.Payload), "%PDF"))

	xlsx, err := svc.Render(models.ReportFormatXLSX, rows, "")
	require.NoError(t, err)
	book, err := excelize.OpenReader(strings.NewReader(string(xlsx.Payload)))
	require.NoError(t, err)
	defer book.Close() //nolint:errcheck
	cell, err := book.GetCellValue("Vaccinations", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Ana", cell)

	_, err = svc.Render(models.ReportFormatJSON, rows, "")
	assert.Error(t, err)
}

func TestExportStoreAndOpen(t *testing.T) {
	svc := newTestExporter(t)
	job := &models.ExportJob{ID: "job-1"}

	key, err := svc.Store(context.Background(), job, &Rendered{Payload: []byte("a,b\n"), ContentType: "text/csv", Filename: "r.csv"})
	require.NoError(t, err)
	assert.Equal(t, "reports/job-1/r.csv", key)

	obj, err := svc.Open(context.Background(), key)
	require.NoError(t, err)
	defer obj.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(body))
}

func TestExportLinks(t *testing.T) {
	svc := newTestExporter(t)
	job := &models.ExportJob{ID: "job-1", StorageKey: "reports/job-1/r.csv"}

	assert.Equal(t, "https://console.test/api/v1/reports/exports/job-1", svc.StatusURL("job-1"))

	url, expires, err := svc.DownloadURL(job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://console.test/api/v1/exports/"))
	assert.True(t, expires.After(time.Now()))

	signed, err := svc.ParseToken(url[strings.LastIndex(url, "/")+1:])
	require.NoError(t, err)
	assert.Equal(t, "job-1", signed.ExportID)
	assert.Equal(t, job.StorageKey, signed.Key)
}
