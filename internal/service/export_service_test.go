package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/yoga-escrow-api/internal/dto"
	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
	"github.com/noah-isme/yoga-escrow-api/pkg/export"
)

type fakeDashboards struct {
	resp *dto.TeacherDashboardResponse
	err  error
}

func (f *fakeDashboards) Teacher(context.Context, string, DashboardOptions) (*dto.TeacherDashboardResponse, bool, error) {
	return f.resp, false, f.err
}

type failingCSV struct{}

func (failingCSV) Render(export.Dataset) ([]byte, error) { return nil, errors.New("disk full") }

func historyFixture() *dto.TeacherDashboardResponse {
	return &dto.TeacherDashboardResponse{
		Handle: teacherX,
		ClassHistory: []models.AcceptedClass{
			{EscrowID: 7, StudentAddress: "0xaa", Payout: decimal.RequireFromString("12.5"), Status: models.ClassCompleted, ClassTime: testNow.Add(-2 * time.Hour), Location: "Hall, Tbilisi"},
			{EscrowID: 8, StudentAddress: "0xbb", Payout: decimal.RequireFromString("9"), Status: models.ClassCancelled, Location: "Hall"},
			{EscrowID: 6, StudentAddress: "0xcc", Payout: decimal.RequireFromString("7.25"), Status: models.ClassCompleted, ClassTime: testNow.Add(-48 * time.Hour), Location: "Hall"},
		},
	}
}

func TestExportHistoryCSV(t *testing.T) {
	svc := NewExportService(&fakeDashboards{resp: historyFixture()}, nil, nil, nil)
	svc.now = func() time.Time { return testNow }

	result, err := svc.History(context.Background(), teacherX, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "class-history-teacherX-20250301-120000.csv", result.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)

	lines := strings.Split(strings.TrimSpace(string(result.Payload)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Escrow,Class Time (UTC),Location,Student,Payout,Status", lines[0])
	assert.Equal(t, `7,2025-03-01 10:00,"Hall, Tbilisi",0xaa,12.5,completed`, lines[1])
	assert.Equal(t, "8,,Hall,0xbb,9,cancelled", lines[2])
	assert.Equal(t, "Total earned,,,,19.75,", lines[4])
}

func TestExportHistoryPDF(t *testing.T) {
	svc := NewExportService(&fakeDashboards{resp: historyFixture()}, nil, nil, nil)

	result, err := svc.History(context.Background(), teacherX, ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".pdf"))
	assert.True(t, bytes.HasPrefix(result.Payload, []byte("%PDF-")))
}

func TestExportHistoryErrors(t *testing.T) {
	failing := NewExportService(&fakeDashboards{err: appErrors.ErrInvalidHandle}, nil, nil, nil)
	_, err := failing.History(context.Background(), "x y", ExportCSV)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidHandle))

	broken := NewExportService(&fakeDashboards{resp: historyFixture()}, nil, failingCSV{}, nil)
	_, err = broken.History(context.Background(), teacherX, ExportCSV)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))

	_, err = broken.History(context.Background(), teacherX, ExportFormat("xlsx"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestParseExportFormat(t *testing.T) {
	format, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportCSV, format)

	format, err = ParseExportFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, ExportPDF, format)

	_, err = ParseExportFormat("docx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
