package entity

import (
	"time"

	"github.com/google/uuid"

	"construction-marketplace-api/internal/lifecycle"
)

type CostBreakdown struct {
	Labor     float64 `json:"labor"`
	Materials float64 `json:"materials"`
	Overhead  float64 `json:"overhead"`
}

type Milestone struct {
	Name           string    `json:"name"`
	PaymentPercent float64   `json:"paymentPercent"`
	DueDate        time.Time `json:"dueDate"`
}

type BidTimeline struct {
	StartDate    time.Time   `json:"startDate"`
	DurationDays int         `json:"durationDays"`
	Milestones   []Milestone `json:"milestones"`
}

type TeamMember struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

type NegotiationType string

const (
	NegotiationCost     NegotiationType = "cost"
	NegotiationTimeline NegotiationType = "timeline"
	NegotiationScope    NegotiationType = "scope"
	NegotiationOther    NegotiationType = "other"
)

// NegotiationValue holds the typed payload for a negotiation entry; which
// field is populated depends on the negotiation type.
type NegotiationValue struct {
	Cost         *float64 `json:"cost,omitempty"`
	DurationDays *int     `json:"durationDays,omitempty"`
	Text         string   `json:"text,omitempty"`
}

type Negotiation struct {
	Id        uuid.UUID        `json:"id"`
	Initiator string           `json:"initiator"`
	Type      NegotiationType  `json:"type"`
	Original  NegotiationValue `json:"originalValue"`
	Proposed  NegotiationValue `json:"proposedValue"`
	Message   string           `json:"message,omitempty"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"timestamp"`
}

// db model
type Bid struct {
	Id              uuid.UUID
	ProjectId       uuid.UUID
	VendorId        uuid.UUID
	TotalCost       float64
	Currency        string
	Breakdown       CostBreakdown
	Timeline        BidTimeline
	Proposal        string
	Team            []TeamMember
	Negotiations    []Negotiation
	Status          lifecycle.BidStatus
	StatusHistory   []StatusChange
	ClientViewed    bool
	Competitiveness *float64
	SubmittedAt     time.Time
	UpdatedAt       time.Time
}

// service + repo input model
type SubmitBidInput struct {
	TotalCost    float64
	Currency     string
	Breakdown    *CostBreakdown // computed by the pricing engine when nil
	StartDate    time.Time
	DurationDays int
	Milestones   []Milestone // default schedule when empty
	Proposal     string
	Team         []TeamMember
}

// patch model; project, vendor, status, history and timestamps are not
// patchable and therefore have no field here
type UpdateBidInput struct {
	TotalCost    *float64
	Currency     *string
	Breakdown    *CostBreakdown
	StartDate    *time.Time
	DurationDays *int
	Milestones   []Milestone
	Proposal     *string
	Team         []TeamMember
}

type NegotiationInput struct {
	Type     NegotiationType
	Original NegotiationValue
	Proposed NegotiationValue
	Message  string
}

// controller model
type BidOutputModel struct {
	Id              string         `json:"id"`
	ProjectId       string         `json:"projectId"`
	VendorId        string         `json:"vendorId"`
	TotalCost       float64        `json:"totalCost"`
	Currency        string         `json:"currency"`
	Breakdown       CostBreakdown  `json:"breakdown"`
	Timeline        BidTimeline    `json:"timeline"`
	Proposal        string         `json:"proposal"`
	Team            []TeamMember   `json:"team"`
	Negotiations    []Negotiation  `json:"negotiations"`
	Status          string         `json:"status"`
	StatusHistory   []StatusChange `json:"statusHistory"`
	ClientViewed    bool           `json:"clientViewed"`
	Competitiveness *float64       `json:"competitiveness,omitempty"`
	SubmittedAt     string         `json:"submittedAt"`
	UpdatedAt       string         `json:"updatedAt"`
}

type BidPage struct {
	Items []BidOutputModel `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
