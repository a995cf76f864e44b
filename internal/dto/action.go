package dto

// SubmitActionRequest is the body of POST /actions. The acting handle always comes from
// the caller's token.
type SubmitActionRequest struct {
	Type      string  `json:"type" validate:"required,oneof=accept release cancel dispute"`
	EscrowID  *uint64 `json:"escrowId" validate:"required"`
	TimeIndex *uint8  `json:"timeIndex" validate:"omitempty,max=2"`
	Reason    string  `json:"reason" validate:"max=280"`
}
