package service

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/yoga-escrow-api/internal/models"
)

// GroupOpportunities buckets opportunities by location and proposed time. Groups come
// back in the order their first member appeared; callers apply their own sort.
func (p *Pipeline) GroupOpportunities(opportunities []models.ClassOpportunity) []models.GroupedOpportunity {
	groups := make([]models.GroupedOpportunity, 0)
	index := make(map[groupKey]int)

	for _, opp := range opportunities {
		key := p.keyFor(opp.Location, opp.ProposedTime)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, models.GroupedOpportunity{
				Key:          key.String(),
				Location:     key.location,
				ProposedTime: opp.ProposedTime,
				TotalPayout:  decimal.Zero,
			})
		}
		group := &groups[i]
		group.Opportunities = append(group.Opportunities, opp)
		group.TotalPayout = group.TotalPayout.Add(opp.Payout)
		if opp.CreatedAt.After(group.LatestCreatedAt) {
			group.LatestCreatedAt = opp.CreatedAt
		}
	}

	for i := range groups {
		groups[i].StudentCount = len(groups[i].Opportunities)
		groups[i].IsGroup = groups[i].StudentCount > 1
	}
	return groups
}
