package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassOpportunity pairs a pending escrow with one of its future slots for one teacher.
type ClassOpportunity struct {
	Key            string          `json:"key"`
	EscrowID       uint64          `json:"escrowId"`
	StudentAddress string          `json:"studentAddress"`
	TeacherHandle  string          `json:"teacherHandle"`
	TimeIndex      uint8           `json:"timeIndex"`
	ProposedTime   time.Time       `json:"proposedTime"`
	Location       string          `json:"location"`
	Description    string          `json:"description"`
	Payout         decimal.Decimal `json:"payout"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// GroupedOpportunity is the unit a teacher acts on: every opportunity sharing a location and slot.
type GroupedOpportunity struct {
	Key             string             `json:"key"`
	Location        string             `json:"location"`
	ProposedTime    time.Time          `json:"proposedTime"`
	Opportunities   []ClassOpportunity `json:"opportunities"`
	TotalPayout     decimal.Decimal    `json:"totalPayout"`
	StudentCount    int                `json:"studentCount"`
	IsGroup         bool               `json:"isGroup"`
	LatestCreatedAt time.Time          `json:"latestCreatedAt"`
}
