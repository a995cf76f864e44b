package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassStatus is the teacher-facing lifecycle of a confirmed class.
type ClassStatus string

const (
	ClassAccepted  ClassStatus = "accepted"
	ClassCompleted ClassStatus = "completed"
	ClassCancelled ClassStatus = "cancelled"
)

// AcceptedClass is an escrow the teacher is the resolved party of. Group fields are only
// populated on virtual group classes.
type AcceptedClass struct {
	EscrowID       uint64          `json:"escrowId"`
	StudentAddress string          `json:"studentAddress"`
	TeacherHandle  string          `json:"teacherHandle"`
	Payout         decimal.Decimal `json:"payout"`
	Status         ClassStatus     `json:"status"`
	ClassTime      time.Time       `json:"classTime"`
	TimeIndex      *uint8          `json:"timeIndex,omitempty"`
	Location       string          `json:"location"`
	Description    string          `json:"description"`
	AcceptedAt     time.Time       `json:"acceptedAt"`

	IsGroup       bool           `json:"isGroup"`
	TotalPayout   string         `json:"totalPayout,omitempty"`
	TotalStudents int            `json:"totalStudents,omitempty"`
	Students      []GroupStudent `json:"students,omitempty"`
}

// IsVirtual reports whether the record was synthesized from several classes.
func (c AcceptedClass) IsVirtual() bool {
	return len(c.Students) > 0
}

// GroupStudent is one roster line of a virtual group class.
type GroupStudent struct {
	EscrowID       uint64          `json:"escrowId"`
	StudentAddress string          `json:"studentAddress"`
	Payout         decimal.Decimal `json:"payout"`
	Status         ClassStatus     `json:"status"`
}
