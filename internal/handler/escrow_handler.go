package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yoga-escrow-api/internal/middleware"
	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
	"github.com/noah-isme/yoga-escrow-api/pkg/response"
)

type escrowReader interface {
	FindByID(ctx context.Context, id uint64) (*models.RawEscrow, error)
	ListByStudent(ctx context.Context, student string) ([]models.RawEscrow, error)
}

// EscrowHandler exposes raw escrow records read from the chain index.
type EscrowHandler struct {
	reader escrowReader
}

// NewEscrowHandler constructs the handler.
func NewEscrowHandler(reader escrowReader) *EscrowHandler {
	return &EscrowHandler{reader: reader}
}

// Get godoc
// @Summary Escrow by id
// @Tags Escrows
// @Produce json
// @Param id path int true "Escrow ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /escrows/{id} [get]
func (h *EscrowHandler) Get(c *gin.Context) {
	if h.reader == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "escrow id must be a non-negative integer"))
		return
	}
	escrow, err := h.reader.FindByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, asLedgerError(err))
		return
	}
	response.JSON(c, http.StatusOK, escrow)
}

// ByStudent godoc
// @Summary Escrows funded by a student wallet
// @Tags Escrows
// @Produce json
// @Param student query string false "Student wallet, defaults to the caller's"
// @Success 200 {object} response.Envelope
// @Router /escrows [get]
func (h *EscrowHandler) ByStudent(c *gin.Context) {
	if h.reader == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	student := strings.ToLower(strings.TrimSpace(c.Query("student")))
	if student == "" {
		student = claims.Wallet
	}
	if student != claims.Wallet && claims.Role != models.RoleAdmin {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "you can only list your own escrows"))
		return
	}
	escrows, err := h.reader.ListByStudent(c.Request.Context(), student)
	if err != nil {
		response.Error(c, asLedgerError(err))
		return
	}
	response.JSON(c, http.StatusOK, escrows, map[string]interface{}{"count": len(escrows)})
}

func asLedgerError(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrLedgerUnavailable.Code, appErrors.ErrLedgerUnavailable.Status, appErrors.ErrLedgerUnavailable.Message)
}
