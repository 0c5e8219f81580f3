package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vaxdrive-console/internal/models"
	"github.com/noah-isme/vaxdrive-console/pkg/export"
	"github.com/noah-isme/vaxdrive-console/pkg/storage"
)

const reportTitle = "Vaccination Report"

var reportHeaders = []string{"id", "name", "class", "vaccinated", "date"}

type pdfRenderer interface {
	Render(data export.Dataset, opts export.PDFOptions) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	PublicURL string
}

// Rendered is one report rendering ready to be served or stored.
type Rendered struct {
	Payload     []byte
	ContentType string
	Filename    string
}

// ExportService renders report rows and keeps rendered files in object storage.
type ExportService struct {
	store  storage.ObjectStore
	signer *storage.SignedURLSigner
	csv    csvRenderer
	pdf    pdfRenderer
	xlsx   xlsxRenderer
	logger *zap.Logger
	cfg    ExportConfig
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(store storage.ObjectStore, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.APIPrefix = strings.TrimRight(cfg.APIPrefix, "/")
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")
	return &ExportService{
		store:  store,
		signer: signer,
		csv:    export.NewCSVExporter(export.WithFormulaEscape()),
		pdf:    export.NewPDFExporter(),
		xlsx:   export.NewXLSXExporter("Vaccinations"),
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Render produces the report in format. qrContent, when set, is printed on PDFs.
func (s *ExportService) Render(format models.ReportFormat, rows []models.ReportRow, qrContent string) (*Rendered, error) {
	dataset := reportDataset(rows)
	stamp := s.now().UTC().Format("20060102_150405")

	var (
		payload []byte
		ctype   string
		err     error
	)
	switch format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
		ctype = "text/csv"
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, export.PDFOptions{
			Title:     reportTitle,
			Subtitle:  fmt.Sprintf("Generated %s, %d students", s.now().UTC().Format("2006-01-02 15:04 MST"), len(rows)),
			QRContent: qrContent,
		})
		ctype = "application/pdf"
	case models.ReportFormatXLSX:
		payload, err = s.xlsx.Render(dataset)
		ctype = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}
	return &Rendered{
		Payload:     payload,
		ContentType: ctype,
		Filename:    fmt.Sprintf("vaccination_report_%s.%s", stamp, format),
	}, nil
}

// Store saves a rendered export under the job's key.
func (s *ExportService) Store(ctx context.Context, job *models.ExportJob, rendered *Rendered) (string, error) {
	key := fmt.Sprintf("reports/%s/%s", job.ID, rendered.Filename)
	if err := s.store.Put(ctx, key, rendered.ContentType, rendered.Payload); err != nil {
		return "", err
	}
	return key, nil
}

// DownloadURL signs a fresh link to a stored export.
func (s *ExportService) DownloadURL(job *models.ExportJob) (string, time.Time, error) {
	token, expiresAt, err := s.signer.Generate(job.ID, job.StorageKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return fmt.Sprintf("%s%s/exports/%s", s.cfg.PublicURL, s.cfg.APIPrefix, token), expiresAt, nil
}

// StatusURL is the link a printed export's QR code points at.
func (s *ExportService) StatusURL(jobID string) string {
	return fmt.Sprintf("%s%s/reports/exports/%s", s.cfg.PublicURL, s.cfg.APIPrefix, jobID)
}

// ParseToken validates a download token.
func (s *ExportService) ParseToken(token string) (*storage.SignedObject, error) {
	return s.signer.Parse(token)
}

// Open streams a stored export.
func (s *ExportService) Open(ctx context.Context, key string) (*storage.Object, error) {
	return s.store.Get(ctx, key)
}

func reportDataset(rows []models.ReportRow) export.Dataset {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]string{
			"id":         row.ID,
			"name":       row.Name,
			"class":      row.Class,
			"vaccinated": row.Vaccinated,
			"date":       formatReportDate(row.Date),
		})
	}
	return export.Dataset{Headers: reportHeaders, Rows: out}
}

func formatReportDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
