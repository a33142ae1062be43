package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/lifecycle"
)

func TestSubmitBidAppliesDefaults(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	vendor := store.addVendor()
	svc := newTestServices(t, store).Bid

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out, err := svc.SubmitBid(context.Background(), project.Id, vendor.UserId, &entity.SubmitBidInput{
		TotalCost:    200000,
		StartDate:    start,
		DurationDays: 120,
	})
	require.NoError(t, err)

	require.Equal(t, "PENDING", out.Status)
	require.Equal(t, "INR", out.Currency)
	require.Equal(t, 80000.0, out.Breakdown.Labor)
	require.Equal(t, 90000.0, out.Breakdown.Materials)
	require.Equal(t, 30000.0, out.Breakdown.Overhead)

	require.Len(t, out.Timeline.Milestones, 3)
	require.Equal(t, "Mobilization", out.Timeline.Milestones[0].Name)
	require.Equal(t, start, out.Timeline.Milestones[0].DueDate)
	require.Equal(t, 50.0, out.Timeline.Milestones[1].PaymentPercent)
	require.Equal(t, start.AddDate(0, 0, 72), out.Timeline.Milestones[1].DueDate)
	require.Equal(t, start.AddDate(0, 0, 120), out.Timeline.Milestones[2].DueDate)

	require.Len(t, out.Team, 3)
	require.Len(t, out.StatusHistory, 1)
	require.Len(t, store.bids, 1)
}

func TestSubmitBidIneligibleVendorNotPersisted(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client, func(p *entity.Project) {
		p.Preferences.MinExperienceYears = 10
	})
	vendor := store.addVendor(func(v *entity.VendorProfile) {
		v.YearsInBusiness = 5
	})
	svc := newTestServices(t, store).Bid

	_, err := svc.SubmitBid(context.Background(), project.Id, vendor.UserId, &entity.SubmitBidInput{
		TotalCost:    100000,
		StartDate:    time.Now().UTC(),
		DurationDays: 90,
	})
	require.Error(t, err)
	require.Equal(t, KindForbidden, KindOf(err))
	require.Empty(t, store.bids)
}

func TestSubmitBidClosedProject(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client, func(p *entity.Project) {
		p.Status = lifecycle.ProjectCompleted
	})
	vendor := store.addVendor()
	svc := newTestServices(t, store).Bid

	_, err := svc.SubmitBid(context.Background(), project.Id, vendor.UserId, &entity.SubmitBidInput{
		TotalCost:    100000,
		StartDate:    time.Now().UTC(),
		DurationDays: 90,
	})
	require.Equal(t, KindInvalidState, KindOf(err))
}

func TestSubmitBidDuplicate(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	vendor := store.addVendor()
	store.addBid(project, vendor)
	svc := newTestServices(t, store).Bid

	_, err := svc.SubmitBid(context.Background(), project.Id, vendor.UserId, &entity.SubmitBidInput{
		TotalCost:    100000,
		StartDate:    time.Now().UTC(),
		DurationDays: 90,
	})
	require.Equal(t, KindConflict, KindOf(err))
	require.Len(t, store.bids, 1)
}

func TestSubmitBidMilestoneSumValidation(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	vendor := store.addVendor()
	svc := newTestServices(t, store).Bid

	start := time.Now().UTC()
	_, err := svc.SubmitBid(context.Background(), project.Id, vendor.UserId, &entity.SubmitBidInput{
		TotalCost:    100000,
		StartDate:    start,
		DurationDays: 90,
		Milestones: []entity.Milestone{
			{Name: "Start", PaymentPercent: 40, DueDate: start},
			{Name: "End", PaymentPercent: 50, DueDate: start.AddDate(0, 0, 90)},
		},
	})
	require.Equal(t, KindValidation, KindOf(err))
	require.Empty(t, store.bids)
}

func TestSelectBidAcceptsOneRejectsRest(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	cheaper := store.addBid(project, store.addVendor(), func(b *entity.Bid) { b.TotalCost = 100000 })
	pricier := store.addBid(project, store.addVendor(), func(b *entity.Bid) { b.TotalCost = 120000 })
	svc := newTestServices(t, store).Bid

	out, err := svc.SelectBid(context.Background(), cheaper.Id, project.Id, client.UserId)
	require.NoError(t, err)

	require.Equal(t, "ACCEPTED", out.Status)
	require.Len(t, out.StatusHistory, 3)
	require.Equal(t, "IN_REVIEW", out.StatusHistory[1].Status)
	require.Equal(t, "ACCEPTED", out.StatusHistory[2].Status)

	rejected := store.bids[pricier.Id]
	require.Equal(t, lifecycle.BidRejected, rejected.Status)
	last := rejected.StatusHistory[len(rejected.StatusHistory)-1]
	require.Equal(t, "Another bid was selected", last.Reason)

	require.Equal(t, lifecycle.ProjectInProgress, store.projects[project.Id].Status)
}

func TestSelectBidIdempotent(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	bid := store.addBid(project, store.addVendor())
	svc := newTestServices(t, store).Bid

	first, err := svc.SelectBid(context.Background(), bid.Id, project.Id, client.UserId)
	require.NoError(t, err)

	second, err := svc.SelectBid(context.Background(), bid.Id, project.Id, client.UserId)
	require.NoError(t, err)

	require.Equal(t, "ACCEPTED", second.Status)
	require.Equal(t, len(first.StatusHistory), len(second.StatusHistory))
}

func TestSelectBidForeignProject(t *testing.T) {
	store := newFakeStore()
	owner := store.addClient()
	project := store.addProject(owner)
	bid := store.addBid(project, store.addVendor())
	stranger := store.addClient()
	svc := newTestServices(t, store).Bid

	_, err := svc.SelectBid(context.Background(), bid.Id, project.Id, stranger.UserId)
	require.Equal(t, KindForbidden, KindOf(err))
}

func TestSelectBidConcurrentSelectionConflict(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	target := store.addBid(project, store.addVendor())
	rival := store.addBid(project, store.addVendor())
	svc := newTestServices(t, store).Bid

	// A competing selection commits between this call's checks and its write.
	store.selectBidHook = func() {
		now := time.Now().UTC()
		store.bids[rival.Id].Status = lifecycle.BidAccepted
		store.bids[target.Id].Status = lifecycle.BidRejected
		store.bids[target.Id].StatusHistory = append(store.bids[target.Id].StatusHistory, entity.StatusChange{
			Status:    string(lifecycle.BidRejected),
			Timestamp: now,
			Reason:    "Another bid was selected",
		})
		store.projects[project.Id].Status = lifecycle.ProjectInProgress
	}

	_, err := svc.SelectBid(context.Background(), target.Id, project.Id, client.UserId)
	require.Equal(t, KindConflict, KindOf(err))

	require.Equal(t, lifecycle.BidRejected, store.bids[target.Id].Status)
	accepted := 0
	for _, b := range store.bids {
		if b.Status == lifecycle.BidAccepted {
			accepted++
		}
	}
	require.Equal(t, 1, accepted)
}

func TestSelectBidInvalidatesLoserVendorPages(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	winnerVendor := store.addVendor()
	loserVendor := store.addVendor()
	winner := store.addBid(project, winnerVendor)
	store.addBid(project, loserVendor)
	svc := newTestServices(t, store).Bid

	pg := entity.NewPaginationInput(1, 10, 10)
	warm, err := svc.GetVendorBids(context.Background(), loserVendor.Id, pg)
	require.NoError(t, err)
	require.Equal(t, "PENDING", warm.Items[0].Status)

	_, err = svc.SelectBid(context.Background(), winner.Id, project.Id, client.UserId)
	require.NoError(t, err)

	fresh, err := svc.GetVendorBids(context.Background(), loserVendor.Id, pg)
	require.NoError(t, err)
	require.Equal(t, "REJECTED", fresh.Items[0].Status)
}

func TestRejectBid(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	bid := store.addBid(project, store.addVendor())
	svc := newTestServices(t, store).Bid

	out, err := svc.RejectBid(context.Background(), bid.Id, project.Id, client.UserId, "")
	require.NoError(t, err)
	require.Equal(t, "REJECTED", out.Status)
	last := out.StatusHistory[len(out.StatusHistory)-1]
	require.Equal(t, "Bid rejected by client", last.Reason)

	// rejecting again is a no-op
	again, err := svc.RejectBid(context.Background(), bid.Id, project.Id, client.UserId, "")
	require.NoError(t, err)
	require.Equal(t, len(out.StatusHistory), len(again.StatusHistory))
}

func TestRejectAcceptedBid(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	bid := store.addBid(project, store.addVendor(), func(b *entity.Bid) {
		b.Status = lifecycle.BidAccepted
	})
	svc := newTestServices(t, store).Bid

	_, err := svc.RejectBid(context.Background(), bid.Id, project.Id, client.UserId, "changed my mind")
	require.Equal(t, KindInvalidState, KindOf(err))
	require.Equal(t, lifecycle.BidAccepted, store.bids[bid.Id].Status)
}

func TestWithdrawBid(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	vendor := store.addVendor()
	bid := store.addBid(project, vendor)
	svc := newTestServices(t, store).Bid

	out, err := svc.WithdrawBid(context.Background(), bid.Id, vendor.UserId)
	require.NoError(t, err)
	require.Equal(t, "WITHDRAWN", out.Status)

	_, err = svc.WithdrawBid(context.Background(), bid.Id, vendor.UserId)
	require.Equal(t, KindInvalidState, KindOf(err))
}

func TestUpdateBid(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	vendor := store.addVendor()
	bid := store.addBid(project, vendor)
	svc := newTestServices(t, store).Bid

	newCost := 90000.0
	out, err := svc.UpdateBid(context.Background(), bid.Id, vendor.UserId, &entity.UpdateBidInput{
		TotalCost: &newCost,
	})
	require.NoError(t, err)
	require.Equal(t, newCost, out.TotalCost)
	require.Equal(t, newCost, store.bids[bid.Id].TotalCost)
}

func TestUpdateBidWrongVendor(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	bid := store.addBid(project, store.addVendor())
	other := store.addVendor()
	svc := newTestServices(t, store).Bid

	newCost := 90000.0
	_, err := svc.UpdateBid(context.Background(), bid.Id, other.UserId, &entity.UpdateBidInput{
		TotalCost: &newCost,
	})
	require.Equal(t, KindForbidden, KindOf(err))
}

func TestUpdateBidAfterAcceptance(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	vendor := store.addVendor()
	bid := store.addBid(project, vendor, func(b *entity.Bid) {
		b.Status = lifecycle.BidAccepted
	})
	svc := newTestServices(t, store).Bid

	newCost := 90000.0
	_, err := svc.UpdateBid(context.Background(), bid.Id, vendor.UserId, &entity.UpdateBidInput{
		TotalCost: &newCost,
	})
	require.Equal(t, KindInvalidState, KindOf(err))
}

func TestUpdateBidMilestoneSum(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	vendor := store.addVendor()
	bid := store.addBid(project, vendor)
	svc := newTestServices(t, store).Bid

	_, err := svc.UpdateBid(context.Background(), bid.Id, vendor.UserId, &entity.UpdateBidInput{
		Milestones: []entity.Milestone{
			{Name: "All", PaymentPercent: 90, DueDate: time.Now().UTC()},
		},
	})
	require.Equal(t, KindValidation, KindOf(err))
}

func TestDeleteBid(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	vendor := store.addVendor()
	bid := store.addBid(project, vendor)
	svc := newTestServices(t, store).Bid

	require.NoError(t, svc.DeleteBid(context.Background(), bid.Id, vendor.UserId))
	require.Empty(t, store.bids)
}

func TestDeleteNonPendingBid(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	vendor := store.addVendor()
	bid := store.addBid(project, vendor, func(b *entity.Bid) {
		b.Status = lifecycle.BidAccepted
	})
	svc := newTestServices(t, store).Bid

	err := svc.DeleteBid(context.Background(), bid.Id, vendor.UserId)
	require.Equal(t, KindInvalidState, KindOf(err))
	require.Len(t, store.bids, 1)
}

func TestNegotiateBid(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	bid := store.addBid(project, store.addVendor())
	svc := newTestServices(t, store).Bid

	original, proposed := 100000.0, 95000.0
	out, err := svc.NegotiateBid(context.Background(), bid.Id, "client", &entity.NegotiationInput{
		Type:     entity.NegotiationCost,
		Original: entity.NegotiationValue{Cost: &original},
		Proposed: entity.NegotiationValue{Cost: &proposed},
		Message:  "Can you do it for less?",
	})
	require.NoError(t, err)
	require.Len(t, out.Negotiations, 1)
	require.Equal(t, "pending", out.Negotiations[0].Status)
	require.Equal(t, "client", out.Negotiations[0].Initiator)
}

func TestNegotiateBidMissingProposedValue(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	bid := store.addBid(project, store.addVendor())
	svc := newTestServices(t, store).Bid

	_, err := svc.NegotiateBid(context.Background(), bid.Id, "client", &entity.NegotiationInput{
		Type: entity.NegotiationCost,
	})
	require.Equal(t, KindValidation, KindOf(err))
}

func TestNegotiateWithdrawnBid(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	bid := store.addBid(project, store.addVendor(), func(b *entity.Bid) {
		b.Status = lifecycle.BidWithdrawn
	})
	svc := newTestServices(t, store).Bid

	proposed := 95000.0
	_, err := svc.NegotiateBid(context.Background(), bid.Id, "client", &entity.NegotiationInput{
		Type:     entity.NegotiationCost,
		Proposed: entity.NegotiationValue{Cost: &proposed},
	})
	require.Equal(t, KindInvalidState, KindOf(err))
}

func TestGetBidDetailsMarksViewedByOwner(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	bid := store.addBid(project, store.addVendor())
	svc := newTestServices(t, store).Bid

	out, err := svc.GetBidDetails(context.Background(), bid.Id, client.UserId)
	require.NoError(t, err)
	require.True(t, out.ClientViewed)
	require.True(t, store.bids[bid.Id].ClientViewed)
}

func TestGetBidDetailsStrangerDoesNotMarkViewed(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	vendor := store.addVendor()
	bid := store.addBid(project, vendor)
	svc := newTestServices(t, store).Bid

	out, err := svc.GetBidDetails(context.Background(), bid.Id, vendor.UserId)
	require.NoError(t, err)
	require.False(t, out.ClientViewed)
	require.False(t, store.bids[bid.Id].ClientViewed)
}

func TestGetCompetitiveAnalysisNoCompetitors(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	bid := store.addBid(project, store.addVendor())
	svc := newTestServices(t, store).Bid

	analysis, err := svc.GetCompetitiveAnalysis(context.Background(), bid.Id)
	require.NoError(t, err)

	require.Equal(t, 1, analysis.Market.BidCount)
	require.Equal(t, bid.TotalCost, analysis.Market.AverageCost)
	require.Equal(t, bid.TotalCost, analysis.Market.MedianCost)
	require.Equal(t, 100.0, analysis.Competitiveness)
}

func TestGetCompetitiveAnalysisPersistsScore(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	subject := store.addBid(project, store.addVendor(), func(b *entity.Bid) {
		b.TotalCost = 150000
		b.Timeline.DurationDays = 100
	})
	for i := 0; i < 2; i++ {
		store.addBid(project, store.addVendor(), func(b *entity.Bid) {
			b.TotalCost = 100000
			b.Timeline.DurationDays = 100
		})
	}
	svc := newTestServices(t, store).Bid

	analysis, err := svc.GetCompetitiveAnalysis(context.Background(), subject.Id)
	require.NoError(t, err)

	require.Equal(t, 3, analysis.Market.BidCount)
	require.Equal(t, 100000.0, analysis.Market.AverageCost)
	require.InDelta(t, 95, analysis.Competitiveness, 1e-9)

	require.NotNil(t, store.bids[subject.Id].Competitiveness)
	require.InDelta(t, 95, *store.bids[subject.Id].Competitiveness, 1e-9)
}

func TestGetCompetitiveAnalysisPreservesConcurrentStatusChange(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	bid := store.addBid(project, store.addVendor())
	svc := newTestServices(t, store).Bid

	// The bid is rejected between the analysis read and the score write.
	store.getBidHook = func() {
		stored := store.bids[bid.Id]
		if stored.Status == lifecycle.BidRejected {
			return
		}
		stored.Status = lifecycle.BidRejected
		stored.StatusHistory = append(stored.StatusHistory, entity.StatusChange{
			Status:    string(lifecycle.BidRejected),
			Timestamp: time.Now().UTC(),
			Reason:    "Bid rejected by client",
		})
	}

	_, err := svc.GetCompetitiveAnalysis(context.Background(), bid.Id)
	require.NoError(t, err)

	stored := store.bids[bid.Id]
	require.Equal(t, lifecycle.BidRejected, stored.Status)
	require.Len(t, stored.StatusHistory, 2)
	require.NotNil(t, stored.Competitiveness)
}

func TestGetProjectBidsPagination(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	project := store.addProject(client)
	for i := 0; i < 3; i++ {
		store.addBid(project, store.addVendor())
	}
	svc := newTestServices(t, store).Bid

	page, err := svc.GetProjectBids(context.Background(), project.Id, entity.NewPaginationInput(1, 2, 10))
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, 3, page.Total)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 2, page.Limit)
}

func TestGetMultipleProjectBids(t *testing.T) {
	store := newFakeStore()
	client := store.addClient()
	busy := store.addProject(client)
	quiet := store.addProject(client)
	store.addBid(busy, store.addVendor())
	store.addBid(busy, store.addVendor())
	svc := newTestServices(t, store).Bid

	result, err := svc.GetMultipleProjectBids(context.Background(), []uuid.UUID{busy.Id, quiet.Id})
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Len(t, result[busy.Id.String()], 2)
	require.Empty(t, result[quiet.Id.String()])
}

func TestGetMultipleProjectBidsTooMany(t *testing.T) {
	store := newFakeStore()
	svc := newTestServices(t, store).Bid

	ids := make([]uuid.UUID, 51)
	for i := range ids {
		ids[i] = uuid.New()
	}

	_, err := svc.GetMultipleProjectBids(context.Background(), ids)
	require.Equal(t, KindValidation, KindOf(err))
}
