package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
)

const groupPayoutPlaces = 6

// VirtualizeGroups merges upcoming classes sharing a location and class time into one
// virtual group class. The first member in input order represents the group; every
// student keeps their own status in the roster. Running it on its own output is a no-op.
func (p *Pipeline) VirtualizeGroups(classes []models.AcceptedClass) []models.AcceptedClass {
	buckets := make([][]models.AcceptedClass, 0)
	index := make(map[groupKey]int)
	for _, class := range classes {
		key := p.keyFor(class.Location, class.ClassTime)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], class)
	}

	out := make([]models.AcceptedClass, 0, len(buckets))
	for _, members := range buckets {
		if len(members) == 1 {
			single := members[0]
			if !single.IsVirtual() {
				single.IsGroup = false
			}
			out = append(out, single)
			continue
		}
		out = append(out, synthesizeGroup(members))
	}
	return out
}

func synthesizeGroup(members []models.AcceptedClass) models.AcceptedClass {
	total := decimal.Zero
	roster := make([]models.GroupStudent, 0, len(members))
	for _, member := range members {
		if member.IsVirtual() {
			for _, student := range member.Students {
				total = total.Add(student.Payout)
				roster = append(roster, student)
			}
			continue
		}
		total = total.Add(member.Payout)
		roster = append(roster, models.GroupStudent{
			EscrowID:       member.EscrowID,
			StudentAddress: member.StudentAddress,
			Payout:         member.Payout,
			Status:         member.Status,
		})
	}

	group := members[0]
	group.IsGroup = true
	group.TotalPayout = total.StringFixed(groupPayoutPlaces)
	group.TotalStudents = len(roster)
	group.Students = roster
	group.Description = fmt.Sprintf("Group class with %d students", len(roster))
	return group
}
