package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusVolume aggregates escrows sharing a status.
type StatusVolume struct {
	Status EscrowStatus    `json:"status"`
	Count  int             `json:"count"`
	Volume decimal.Decimal `json:"volume"`
}

// LedgerOverview summarises the whole escrow snapshot for the admin dashboard.
type LedgerOverview struct {
	TotalEscrows   int             `json:"totalEscrows"`
	ByStatus       []StatusVolume  `json:"byStatus"`
	ValueLocked    decimal.Decimal `json:"valueLocked"`
	ActiveTeachers int             `json:"activeTeachers"`
	Students       int             `json:"students"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// SystemMetrics is a point-in-time view of process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	LedgerQueryCount         uint64    `json:"ledgerQueryCount"`
	AverageLedgerQueryMs     float64   `json:"averageLedgerQueryMs"`
	PipelineRuns             uint64    `json:"pipelineRuns"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
