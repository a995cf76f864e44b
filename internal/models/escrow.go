package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SlotCount is the fixed number of candidate time slots on every escrow.
const SlotCount = 3

// UnsetTimeIndex is the contract's "no slot selected" value. It only appears at the
// ledger boundary; inside the service the selection is an optional pointer.
const UnsetTimeIndex uint8 = 255

// EscrowStatus mirrors the contract's status enum.
type EscrowStatus uint8

const (
	EscrowPending EscrowStatus = iota
	EscrowAccepted
	EscrowDelivered
	EscrowCancelled
)

var escrowStatusNames = map[EscrowStatus]string{
	EscrowPending:   "pending",
	EscrowAccepted:  "accepted",
	EscrowDelivered: "delivered",
	EscrowCancelled: "cancelled",
}

// Valid reports whether the status is one the contract defines.
func (s EscrowStatus) Valid() bool {
	_, ok := escrowStatusNames[s]
	return ok
}

func (s EscrowStatus) String() string {
	if name, ok := escrowStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// MarshalText renders the status name.
func (s EscrowStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts a status name or its numeric contract value.
func (s *EscrowStatus) UnmarshalText(text []byte) error {
	raw := strings.ToLower(strings.TrimSpace(string(text)))
	for status, name := range escrowStatusNames {
		if name == raw {
			*s = status
			return nil
		}
	}
	n, err := strconv.ParseUint(raw, 10, 8)
	if err != nil || !EscrowStatus(n).Valid() {
		return fmt.Errorf("unknown escrow status %q", raw)
	}
	*s = EscrowStatus(n)
	return nil
}

// SlotTime is one candidate slot timestamp in unix seconds. A slot whose source value was
// missing or not numeric is kept as an invalid slot rather than failing the whole record.
type SlotTime struct {
	Unix  int64
	Valid bool
}

// NewSlotTime wraps a numeric timestamp.
func NewSlotTime(unix int64) SlotTime {
	return SlotTime{Unix: unix, Valid: unix >= 0}
}

// ParseSlotTime converts a ledger value into a slot, marking unparseable values invalid.
func ParseSlotTime(raw string) SlotTime {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SlotTime{}
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || unix < 0 {
		return SlotTime{}
	}
	return SlotTime{Unix: unix, Valid: true}
}

// Time returns the slot as UTC time; the zero time for invalid slots.
func (s SlotTime) Time() time.Time {
	if !s.Valid {
		return time.Time{}
	}
	return time.Unix(s.Unix, 0).UTC()
}

// After reports whether the slot is valid and strictly after now.
func (s SlotTime) After(now time.Time) bool {
	return s.Valid && time.Unix(s.Unix, 0).After(now)
}

// MarshalJSON renders valid slots as numbers and invalid ones as null.
func (s SlotTime) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(s.Unix, 10)), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything else yields an
// invalid slot without an error.
func (s *SlotTime) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = SlotTime{}
		return nil
	}
	switch v := raw.(type) {
	case float64:
		if v < 0 || v != float64(int64(v)) {
			*s = SlotTime{}
			return nil
		}
		*s = SlotTime{Unix: int64(v), Valid: true}
	case string:
		*s = ParseSlotTime(v)
	default:
		*s = SlotTime{}
	}
	return nil
}

// RawEscrow is one escrow record as read from the ledger. Amount is in the token's
// smallest unit.
type RawEscrow struct {
	ID                uint64              `json:"id"`
	Student           string              `json:"student"`
	Amount            decimal.Decimal     `json:"amount"`
	Status            EscrowStatus        `json:"status"`
	CreatedAt         int64               `json:"createdAt"`
	ClassTime         int64               `json:"classTime"`
	Description       string              `json:"description"`
	Location          string              `json:"location"`
	TeacherHandles    []string            `json:"teacherHandles"`
	TimeSlots         [SlotCount]SlotTime `json:"timeSlots"`
	SelectedTimeIndex *uint8              `json:"selectedTimeIndex,omitempty"`
	SelectedHandle    *string             `json:"selectedHandle,omitempty"`
}

// TimeIndexFromRaw converts the contract's selected index into an optional value.
func TimeIndexFromRaw(raw uint8) *uint8 {
	if raw == UnsetTimeIndex {
		return nil
	}
	return &raw
}

// HandleFromRaw converts the contract's selected handle into an optional value.
func HandleFromRaw(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

// HasCandidate reports whether handle is among the escrow's candidate teachers.
func (e RawEscrow) HasCandidate(handle string) bool {
	return e.CandidateCount(handle) > 0
}

// CandidateCount counts how many times handle is listed as a candidate.
func (e RawEscrow) CandidateCount(handle string) int {
	count := 0
	for _, candidate := range e.TeacherHandles {
		if candidate == handle {
			count++
		}
	}
	return count
}

// IsSelected reports whether handle is the escrow's resolved teacher.
func (e RawEscrow) IsSelected(handle string) bool {
	return e.SelectedHandle != nil && *e.SelectedHandle == handle
}

// SelectedSlot returns the slot at the selected index when one is set and in range.
func (e RawEscrow) SelectedSlot() (SlotTime, bool) {
	if e.SelectedTimeIndex == nil || int(*e.SelectedTimeIndex) >= SlotCount {
		return SlotTime{}, false
	}
	return e.TimeSlots[*e.SelectedTimeIndex], true
}

// Payout converts the amount into whole token units.
func (e RawEscrow) Payout(decimals int32) decimal.Decimal {
	return FormatUnits(e.Amount, decimals)
}

// CreatedTime returns the creation timestamp as UTC time.
func (e RawEscrow) CreatedTime() time.Time {
	return time.Unix(e.CreatedAt, 0).UTC()
}

// FormatUnits shifts an amount in smallest units by the token decimals.
func FormatUnits(amount decimal.Decimal, decimals int32) decimal.Decimal {
	return amount.Shift(-decimals)
}
