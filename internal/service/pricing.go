package service

import (
	"math"
	"time"

	"construction-marketplace-api/internal/entity"
)

// Default cost split applied when the vendor submits only a total.
const (
	laborShare     = 0.40
	materialsShare = 0.45
	overheadShare  = 0.15
)

const paymentSumTolerance = 1e-9

// priceBid turns a simplified bid request into the persisted pricing shape:
// itemized cost breakdown, milestone schedule with due dates, and team
// composition. Deterministic, no I/O.
func priceBid(in *entity.SubmitBidInput) (entity.CostBreakdown, entity.BidTimeline, []entity.TeamMember, error) {
	breakdown := entity.CostBreakdown{
		Labor:     round2(in.TotalCost * laborShare),
		Materials: round2(in.TotalCost * materialsShare),
		Overhead:  round2(in.TotalCost * overheadShare),
	}
	if in.Breakdown != nil {
		breakdown = *in.Breakdown
	}

	milestones := in.Milestones
	if len(milestones) == 0 {
		milestones = defaultMilestones(in.StartDate, in.DurationDays)
	} else {
		sum := 0.0
		for _, m := range milestones {
			sum += m.PaymentPercent
		}
		if math.Abs(sum-100) > paymentSumTolerance {
			return entity.CostBreakdown{}, entity.BidTimeline{}, nil,
				Validation("milestone payment percentages must sum to 100", map[string]string{
					"milestones": "payment percentages sum to a value other than 100",
				})
		}
	}

	timeline := entity.BidTimeline{
		StartDate:    in.StartDate,
		DurationDays: in.DurationDays,
		Milestones:   milestones,
	}

	team := in.Team
	if len(team) == 0 {
		team = defaultTeam()
	}

	return breakdown, timeline, team, nil
}

func defaultMilestones(start time.Time, durationDays int) []entity.Milestone {
	return []entity.Milestone{
		{Name: "Mobilization", PaymentPercent: 20, DueDate: start},
		{Name: "Construction", PaymentPercent: 50, DueDate: start.AddDate(0, 0, durationDays*6/10)},
		{Name: "Handover", PaymentPercent: 30, DueDate: start.AddDate(0, 0, durationDays)},
	}
}

func defaultTeam() []entity.TeamMember {
	return []entity.TeamMember{
		{Role: "project manager", Count: 1},
		{Role: "site engineer", Count: 1},
		{Role: "skilled labor", Count: 4},
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
