package service

import (
	"math"
	"sort"

	"construction-marketplace-api/internal/entity"
)

const (
	costWeight     = 40
	durationWeight = 30
	teamWeight     = 0.2
	workWeight     = 0.1
)

// CompetitiveAnalyzer scores a bid against the other live bids on the same
// project. The team and previous-work sub-scores are pluggable; the defaults
// are flat constants until real scoring data exists.
type CompetitiveAnalyzer struct {
	TeamScore         func(b *entity.Bid) float64
	PreviousWorkScore func(b *entity.Bid) float64
}

func NewCompetitiveAnalyzer() *CompetitiveAnalyzer {
	flat := func(*entity.Bid) float64 { return 50 }

	return &CompetitiveAnalyzer{
		TeamScore:         flat,
		PreviousWorkScore: flat,
	}
}

// Analyze computes market statistics over the competing bids and a 0-100
// competitiveness score for the subject bid. With no competitors the market
// degenerates to the bid's own values and bidCount is 1.
func (a *CompetitiveAnalyzer) Analyze(bid *entity.Bid, competitors []entity.Bid) *entity.CompetitiveAnalysis {
	market := entity.MarketStats{
		AverageCost:         bid.TotalCost,
		MedianCost:          bid.TotalCost,
		MinCost:             bid.TotalCost,
		MaxCost:             bid.TotalCost,
		AverageDurationDays: float64(bid.Timeline.DurationDays),
		BidCount:            1,
	}

	if len(competitors) > 0 {
		costs := make([]float64, 0, len(competitors))
		costSum, durationSum := 0.0, 0.0
		for _, c := range competitors {
			costs = append(costs, c.TotalCost)
			costSum += c.TotalCost
			durationSum += float64(c.Timeline.DurationDays)
		}
		sort.Float64s(costs)

		market = entity.MarketStats{
			AverageCost:         costSum / float64(len(costs)),
			MedianCost:          costs[len(costs)/2],
			MinCost:             costs[0],
			MaxCost:             costs[len(costs)-1],
			AverageDurationDays: durationSum / float64(len(competitors)),
			BidCount:            len(competitors) + 1,
		}
	}

	score := 100.0
	if market.AverageCost > 0 {
		costDeviation := (bid.TotalCost - market.AverageCost) / market.AverageCost
		score -= math.Abs(costDeviation) * costWeight
	}
	if market.AverageDurationDays > 0 {
		durationDeviation := (float64(bid.Timeline.DurationDays) - market.AverageDurationDays) / market.AverageDurationDays
		score -= math.Abs(durationDeviation) * durationWeight
	}
	score += a.TeamScore(bid)*teamWeight + a.PreviousWorkScore(bid)*workWeight
	score = math.Min(100, math.Max(0, score))

	return &entity.CompetitiveAnalysis{
		Bid: entity.BidSnapshot{
			Cost:         bid.TotalCost,
			DurationDays: bid.Timeline.DurationDays,
		},
		Market:          market,
		Competitiveness: score,
	}
}
