package entity

// MarketStats describes the competing bids on the same project.
type MarketStats struct {
	AverageCost         float64 `json:"averageCost"`
	MedianCost          float64 `json:"medianCost"`
	MinCost             float64 `json:"minCost"`
	MaxCost             float64 `json:"maxCost"`
	AverageDurationDays float64 `json:"averageDurationDays"`
	BidCount            int     `json:"bidCount"`
}

type BidSnapshot struct {
	Cost         float64 `json:"cost"`
	DurationDays int     `json:"durationDays"`
}

type CompetitiveAnalysis struct {
	Bid             BidSnapshot `json:"bid"`
	Market          MarketStats `json:"market"`
	Competitiveness float64     `json:"competitiveness"`
}
