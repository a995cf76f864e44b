package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yoga-escrow-api/internal/dto"
	"github.com/noah-isme/yoga-escrow-api/internal/middleware"
	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
	"github.com/noah-isme/yoga-escrow-api/pkg/response"
)

type actionService interface {
	Submit(ctx context.Context, handle string, req dto.SubmitActionRequest) (*models.TrackedAction, error)
	Get(ctx context.Context, id string) (*models.TrackedAction, error)
}

// ActionHandler accepts escrow actions from teachers.
type ActionHandler struct {
	service actionService
}

// NewActionHandler constructs the handler.
func NewActionHandler(service actionService) *ActionHandler {
	return &ActionHandler{service: service}
}

// Submit godoc
// @Summary Queue an accept, release, cancel or dispute call
// @Tags Actions
// @Accept json
// @Produce json
// @Param payload body dto.SubmitActionRequest true "Action"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /actions [post]
func (h *ActionHandler) Submit(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	handle, err := teacherHandle(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SubmitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid JSON payload"))
		return
	}
	tracked, err := h.service.Submit(c.Request.Context(), handle, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", "actions/"+tracked.ID)
	response.Accepted(c, tracked)
}

// Get godoc
// @Summary Status of a queued action
// @Tags Actions
// @Produce json
// @Param id path string true "Action ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /actions/{id} [get]
func (h *ActionHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := middleware.Claims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	tracked, err := h.service.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	if claims.Role != models.RoleAdmin && tracked.RequestedBy != claims.Handle {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "action not found"))
		return
	}
	response.JSON(c, http.StatusOK, tracked)
}
