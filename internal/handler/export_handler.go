package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yoga-escrow-api/internal/service"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
	"github.com/noah-isme/yoga-escrow-api/pkg/response"
)

type historyExporter interface {
	History(ctx context.Context, handle string, format service.ExportFormat) (*service.ExportResult, error)
}

// ExportHandler streams rendered class history documents.
type ExportHandler struct {
	service historyExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(service historyExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// History godoc
// @Summary Download the calling teacher's class history
// @Tags Dashboard
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /teachers/me/history/export [get]
func (h *ExportHandler) History(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	handle, err := teacherHandle(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.History(c.Request.Context(), handle, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, result.Payload)
}
