// Package lifecycle defines the status types and transition rules for bids
// and projects.
//
// Bid status graph:
//
//	DRAFT ──► PENDING ──► IN_REVIEW ──► ACCEPTED
//	  │          │  ▲        │  ▲          │
//	  ▼          │  │        ▼  │          │
//	WITHDRAWN ◄──┘  └──── REJECTED         │
//	  │             ▲        ▲             │
//	  └─► PENDING   └────────┴── IN_REVIEW ┘  (revert / reconsideration)
//
// Accepted and rejected bids can be moved back to IN_REVIEW, and withdrawn
// bids can be resubmitted to PENDING, so no bid state is strictly terminal.
package lifecycle

import "fmt"

type BidStatus string

const (
	BidDraft     BidStatus = "DRAFT"
	BidPending   BidStatus = "PENDING"
	BidInReview  BidStatus = "IN_REVIEW"
	BidAccepted  BidStatus = "ACCEPTED"
	BidRejected  BidStatus = "REJECTED"
	BidWithdrawn BidStatus = "WITHDRAWN"
)

// bidTransitions lists every allowed (from → to) pair.
var bidTransitions = map[BidStatus][]BidStatus{
	BidDraft:     {BidPending, BidWithdrawn},
	BidPending:   {BidInReview, BidWithdrawn, BidRejected},
	BidInReview:  {BidAccepted, BidRejected, BidPending},
	BidAccepted:  {BidInReview},
	BidRejected:  {BidInReview},
	BidWithdrawn: {BidPending},
}

// TransitionError reports a bid status change that is not present in the
// transition table. The bid is left unchanged when it is returned.
type TransitionError struct {
	From BidStatus
	To   BidStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid bid transition %s -> %s", e.From, e.To)
}

func ParseBidStatus(s string) (BidStatus, error) {
	st := BidStatus(s)
	switch st {
	case BidDraft, BidPending, BidInReview, BidAccepted, BidRejected, BidWithdrawn:
		return st, nil
	}
	return "", fmt.Errorf("unknown bid status %q", s)
}

// CanTransitionBid returns true when moving from → to is permitted.
func CanTransitionBid(from, to BidStatus) bool {
	for _, s := range bidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionBid validates the requested change against the transition table.
func TransitionBid(from, to BidStatus) error {
	if !CanTransitionBid(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
