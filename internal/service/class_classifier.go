package service

import (
	"time"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
)

// ClassifyClasses selects escrows where handle is the confirmed teacher (or a candidate on
// a cancelled escrow) and splits them into upcoming and history. A class is upcoming only
// when its time is strictly after now and it is not cancelled, so a future class paid out
// early still shows as upcoming.
func (p *Pipeline) ClassifyClasses(records []models.RawEscrow, handle string, now time.Time) (upcoming, history []models.AcceptedClass) {
	upcoming = make([]models.AcceptedClass, 0)
	history = make([]models.AcceptedClass, 0)
	if !ValidHandle(handle) {
		return upcoming, history
	}

	for _, record := range records {
		status, ok := classStatusFor(record, handle)
		if !ok {
			continue
		}
		class := models.AcceptedClass{
			EscrowID:       record.ID,
			StudentAddress: record.Student,
			TeacherHandle:  handle,
			Payout:         record.Payout(p.cfg.TokenDecimals),
			Status:         status,
			ClassTime:      effectiveClassTime(record),
			TimeIndex:      copyIndex(record.SelectedTimeIndex),
			Location:       record.Location,
			Description:    record.Description,
			AcceptedAt:     record.CreatedTime(),
		}
		if status != models.ClassCancelled && class.ClassTime.After(now) {
			upcoming = append(upcoming, class)
		} else {
			history = append(history, class)
		}
	}
	return upcoming, history
}

func classStatusFor(record models.RawEscrow, handle string) (models.ClassStatus, bool) {
	switch record.Status {
	case models.EscrowAccepted:
		if record.IsSelected(handle) {
			return models.ClassAccepted, true
		}
	case models.EscrowDelivered:
		if record.IsSelected(handle) {
			return models.ClassCompleted, true
		}
	case models.EscrowCancelled:
		if record.IsSelected(handle) || record.HasCandidate(handle) {
			return models.ClassCancelled, true
		}
	}
	return "", false
}

// effectiveClassTime prefers the confirmed time, then the selected slot, then slot 0.
// Cancelled escrows often never got past proposal, hence the last fallback.
func effectiveClassTime(record models.RawEscrow) time.Time {
	if record.ClassTime > 0 {
		return time.Unix(record.ClassTime, 0).UTC()
	}
	if slot, ok := record.SelectedSlot(); ok && slot.Valid {
		return slot.Time()
	}
	return record.TimeSlots[0].Time()
}

func copyIndex(idx *uint8) *uint8 {
	if idx == nil {
		return nil
	}
	v := *idx
	return &v
}
