package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
)

// ExtractOpportunities expands every pending escrow that lists handle into one
// opportunity per slot strictly after now. Invalid handles and invalid slots yield
// nothing. A handle listed twice on an escrow yields each slot twice; the repeat carries
// an occurrence suffix so keys stay unique within the run.
func (p *Pipeline) ExtractOpportunities(records []models.RawEscrow, handle string, now time.Time) []models.ClassOpportunity {
	opportunities := make([]models.ClassOpportunity, 0)
	if !ValidHandle(handle) {
		return opportunities
	}

	for _, record := range records {
		if record.Status != models.EscrowPending {
			continue
		}
		listings := record.CandidateCount(handle)
		if listings == 0 {
			continue
		}
		payout := record.Payout(p.cfg.TokenDecimals)
		createdAt := record.CreatedTime()

		for listing := 1; listing <= listings; listing++ {
			for idx, slot := range record.TimeSlots {
				if !slot.After(now) {
					continue
				}
				opportunities = append(opportunities, models.ClassOpportunity{
					Key:            opportunityKey(record.ID, handle, idx, listing),
					EscrowID:       record.ID,
					StudentAddress: record.Student,
					TeacherHandle:  handle,
					TimeIndex:      uint8(idx),
					ProposedTime:   slot.Time(),
					Location:       record.Location,
					Description:    record.Description,
					Payout:         payout,
					CreatedAt:      createdAt,
				})
			}
		}
	}
	return opportunities
}

func opportunityKey(escrowID uint64, handle string, idx, listing int) string {
	key := fmt.Sprintf("%d-%s-%d", escrowID, handle, idx)
	if listing > 1 {
		key = fmt.Sprintf("%s#%d", key, listing)
	}
	return key
}
