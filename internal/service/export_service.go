package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/yoga-escrow-api/internal/dto"
	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
	"github.com/noah-isme/yoga-escrow-api/pkg/export"
)

// ExportFormat names a rendered document type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

var historyHeaders = []string{"Escrow", "Class Time (UTC)", "Location", "Student", "Payout", "Status"}

type dashboardProvider interface {
	Teacher(ctx context.Context, handle string, opts DashboardOptions) (*dto.TeacherDashboardResponse, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered document ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders a teacher's class history as a downloadable document.
type ExportService struct {
	dashboards dashboardProvider
	csv        csvRenderer
	pdf        pdfRenderer
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(dashboards dashboardProvider, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{dashboards: dashboards, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ParseExportFormat maps a query value onto a format. Empty selects CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch format := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); format {
	case "":
		return ExportCSV, nil
	case ExportCSV, ExportPDF:
		return format, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// History renders the class history of handle in the requested format.
func (s *ExportService) History(ctx context.Context, handle string, format ExportFormat) (*ExportResult, error) {
	dashboard, _, err := s.dashboards.Teacher(ctx, handle, DashboardOptions{})
	if err != nil {
		return nil, err
	}
	dataset := historyDataset(dashboard.ClassHistory)
	stamp := s.now().UTC().Format("20060102-150405")
	base := fmt.Sprintf("class-history-%s-%s", strings.TrimPrefix(dashboard.Handle, "@"), stamp)

	var result ExportResult
	switch format {
	case ExportCSV:
		result.Payload, err = s.csv.Render(dataset)
		result.Filename = base + ".csv"
		result.ContentType = "text/csv; charset=utf-8"
	case ExportPDF:
		result.Payload, err = s.pdf.Render(dataset, "Class history for "+dashboard.Handle)
		result.Filename = base + ".pdf"
		result.ContentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Info("class history exported",
		zap.String("handle", dashboard.Handle),
		zap.String("format", string(format)),
		zap.Int("rows", len(dashboard.ClassHistory)),
	)
	return &result, nil
}

// historyDataset lays out one row per class. The footer totals completed payouts only.
func historyDataset(classes []models.AcceptedClass) export.Dataset {
	rows := make([]map[string]string, 0, len(classes))
	earned := decimal.Zero
	for _, class := range classes {
		if class.Status == models.ClassCompleted {
			earned = earned.Add(class.Payout)
		}
		classTime := ""
		if !class.ClassTime.IsZero() && class.ClassTime.Unix() > 0 {
			classTime = class.ClassTime.UTC().Format("2006-01-02 15:04")
		}
		rows = append(rows, map[string]string{
			"Escrow":           strconv.FormatUint(class.EscrowID, 10),
			"Class Time (UTC)": classTime,
			"Location":         class.Location,
			"Student":          class.StudentAddress,
			"Payout":           class.Payout.String(),
			"Status":           string(class.Status),
		})
	}
	return export.Dataset{
		Headers: historyHeaders,
		Rows:    rows,
		Footer: map[string]string{
			"Escrow": "Total earned",
			"Payout": earned.String(),
		},
	}
}
