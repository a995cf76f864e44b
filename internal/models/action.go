package models

import "time"

// ActionType enumerates the state-changing calls a teacher can make on an escrow.
type ActionType string

const (
	ActionAccept  ActionType = "accept"
	ActionRelease ActionType = "release"
	ActionCancel  ActionType = "cancel"
	ActionDispute ActionType = "dispute"
)

// EscrowAction is the payload handed to the transaction relayer.
type EscrowAction struct {
	Type      ActionType `json:"type"`
	EscrowID  uint64     `json:"escrowId"`
	TimeIndex *uint8     `json:"timeIndex,omitempty"`
	Handle    string     `json:"handle,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// ActionStatus tracks an action through the submission worker.
type ActionStatus string

const (
	ActionQueued    ActionStatus = "queued"
	ActionSubmitted ActionStatus = "submitted"
	ActionFailed    ActionStatus = "failed"
)

// TrackedAction is the in-memory record of a submitted action.
type TrackedAction struct {
	ID          string       `json:"id"`
	Action      EscrowAction `json:"action"`
	RequestedBy string       `json:"requestedBy"`
	Status      ActionStatus `json:"status"`
	TxHash      string       `json:"txHash,omitempty"`
	Error       string       `json:"error,omitempty"`
	Attempts    int          `json:"attempts"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
