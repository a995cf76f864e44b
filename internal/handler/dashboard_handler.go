package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yoga-escrow-api/internal/dto"
	"github.com/noah-isme/yoga-escrow-api/internal/middleware"
	"github.com/noah-isme/yoga-escrow-api/internal/service"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
	"github.com/noah-isme/yoga-escrow-api/pkg/response"
)

type dashboardService interface {
	Teacher(ctx context.Context, handle string, opts service.DashboardOptions) (*dto.TeacherDashboardResponse, bool, error)
	Refresh(ctx context.Context, handle string, opts service.DashboardOptions) (*dto.TeacherDashboardResponse, error)
	Admin(ctx context.Context) (*dto.AdminOverviewResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Mine godoc
// @Summary Dashboard of the calling teacher
// @Tags Dashboard
// @Produce json
// @Param sort query string false "Opportunity order: recent, payout or earliest"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /teachers/me/dashboard [get]
func (h *DashboardHandler) Mine(c *gin.Context) {
	handle, err := teacherHandle(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.render(c, handle)
}

// ForTeacher godoc
// @Summary Dashboard of any teacher
// @Tags Dashboard
// @Produce json
// @Param handle path string true "Teacher handle, with or without @"
// @Param sort query string false "Opportunity order: recent, payout or earliest"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers/{handle}/dashboard [get]
func (h *DashboardHandler) ForTeacher(c *gin.Context) {
	h.render(c, c.Param("handle"))
}

func (h *DashboardHandler) render(c *gin.Context, handle string) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	mode, err := service.ParseOpportunitySort(c.Query("sort"))
	if err != nil {
		response.Error(c, err)
		return
	}
	dashboard, cacheHit, err := h.service.Teacher(c.Request.Context(), handle, service.DashboardOptions{Sort: mode})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, dashboard, middleware.ResponseMeta(c))
}

// Refresh godoc
// @Summary Rebuild the calling teacher's dashboard from the ledger
// @Tags Dashboard
// @Produce json
// @Param sort query string false "Opportunity order: recent, payout or earliest"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teachers/me/dashboard/refresh [post]
func (h *DashboardHandler) Refresh(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	handle, err := teacherHandle(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	mode, err := service.ParseOpportunitySort(c.Query("sort"))
	if err != nil {
		response.Error(c, err)
		return
	}
	dashboard, err := h.service.Refresh(c.Request.Context(), handle, service.DashboardOptions{Sort: mode})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, false)
	response.JSON(c, http.StatusOK, dashboard, middleware.ResponseMeta(c))
}

// Overview godoc
// @Summary Ledger-wide totals for administrators
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/overview [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	overview, cacheHit, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, overview, middleware.ResponseMeta(c))
}
