package dto

import (
	"time"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
)

// TeacherDashboardResponse is the aggregated view a teacher's dashboard renders.
type TeacherDashboardResponse struct {
	Handle          string                      `json:"handle"`
	Sort            string                      `json:"sort"`
	GeneratedAt     time.Time                   `json:"generatedAt"`
	Opportunities   []models.GroupedOpportunity `json:"opportunities"`
	UpcomingClasses []models.AcceptedClass      `json:"upcomingClasses"`
	ClassHistory    []models.AcceptedClass      `json:"classHistory"`
}

// AdminOverviewResponse combines ledger totals with process metrics.
type AdminOverviewResponse struct {
	Ledger models.LedgerOverview `json:"ledger"`
	System models.SystemMetrics  `json:"system"`
}
