package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"construction-marketplace-api/internal/cache"
	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/lifecycle"
	"construction-marketplace-api/internal/repo"
	"construction-marketplace-api/internal/repo/repo_errors"
)

const (
	rejectReasonSelection = "Another bid was selected"
	maxBatchProjects      = 50
)

// BidService is the lifecycle orchestrator for bids: every mutating
// operation validates its preconditions up front, commits through the repo
// and then invalidates the cache keys it may have affected.
type BidService struct {
	bidRepo     repo.Bid
	projectRepo repo.Project
	profileRepo repo.Profile
	analyzer    *CompetitiveAnalyzer
	cache       *cache.Cache
}

func NewBidService(repos *repo.Repositories, c *cache.Cache) *BidService {
	return &BidService{
		bidRepo:     repos.Bid,
		projectRepo: repos.Project,
		profileRepo: repos.Profile,
		analyzer:    NewCompetitiveAnalyzer(),
		cache:       c,
	}
}

func (s *BidService) SubmitBid(ctx context.Context, projectId, vendorUserId uuid.UUID, in *entity.SubmitBidInput) (*entity.BidOutputModel, error) {
	var vendor *entity.VendorProfile
	var project *entity.Project

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vendor, err = s.profileRepo.GetVendorByUserId(gctx, vendorUserId)
		if err != nil {
			return translate(err, "vendor profile not found")
		}

		return nil
	})
	g.Go(func() error {
		var err error
		project, err = s.projectRepo.GetProjectById(gctx, projectId)
		if err != nil {
			return translate(err, "project not found")
		}

		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !lifecycle.BiddableProjectStatus(project.Status) {
		return nil, InvalidState("project is " + string(project.Status) + " and does not accept bids")
	}

	if ok, reason := Eligible(vendor, project); !ok {
		return nil, Forbidden(reason)
	}

	exists, err := s.bidRepo.BidExists(ctx, project.Id, vendor.Id)
	if err != nil {
		return nil, Internal(err)
	}
	if exists {
		return nil, Conflict("vendor has already bid on this project")
	}

	breakdown, timeline, team, err := priceBid(in)
	if err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		currency = project.Budget.Currency
	}

	now := time.Now().UTC()
	bid := &entity.Bid{
		Id:            uuid.New(),
		ProjectId:     project.Id,
		VendorId:      vendor.Id,
		TotalCost:     in.TotalCost,
		Currency:      currency,
		Breakdown:     breakdown,
		Timeline:      timeline,
		Proposal:      sanitizeText(in.Proposal),
		Team:          team,
		Negotiations:  []entity.Negotiation{},
		Status:        lifecycle.BidPending,
		StatusHistory: appendStatus(nil, string(lifecycle.BidPending), now, "Bid submitted"),
		SubmittedAt:   now,
		UpdatedAt:     now,
	}

	if err := s.bidRepo.CreateBid(ctx, bid); err != nil {
		// The racing submission that loses the pre-check still surfaces
		// through the uniqueness constraint; both paths answer the same.
		if errors.Is(err, repo_errors.ErrConflict) {
			return nil, Conflict("vendor has already bid on this project")
		}

		return nil, Internal(err)
	}

	s.cache.DeleteByPrefix(cache.ProjectBidsPrefix(project.Id))
	s.cache.DeleteByPrefix(cache.AnalysisPrefix(project.Id))
	s.cache.DeleteByPrefix(cache.VendorBidsPrefix(vendor.Id))

	return mapBid(bid), nil
}

func (s *BidService) UpdateBid(ctx context.Context, bidId, vendorUserId uuid.UUID, patch *entity.UpdateBidInput) (*entity.BidOutputModel, error) {
	bid, err := s.ownedBid(ctx, bidId, vendorUserId)
	if err != nil {
		return nil, err
	}

	if bid.Status != lifecycle.BidDraft && bid.Status != lifecycle.BidPending {
		return nil, InvalidState("bid is " + string(bid.Status) + " and can no longer be edited")
	}

	// Only the fields present on the patch type are patchable; project,
	// vendor, status, history and timestamps cannot arrive here at all.
	if patch.TotalCost != nil {
		bid.TotalCost = *patch.TotalCost
	}
	if patch.Currency != nil {
		bid.Currency = *patch.Currency
	}
	if patch.Breakdown != nil {
		bid.Breakdown = *patch.Breakdown
	}
	if patch.StartDate != nil {
		bid.Timeline.StartDate = *patch.StartDate
	}
	if patch.DurationDays != nil {
		bid.Timeline.DurationDays = *patch.DurationDays
	}
	if len(patch.Milestones) > 0 {
		sum := 0.0
		for _, m := range patch.Milestones {
			sum += m.PaymentPercent
		}
		if math.Abs(sum-100) > paymentSumTolerance {
			return nil, Validation("milestone payment percentages must sum to 100", map[string]string{
				"milestones": "payment percentages sum to a value other than 100",
			})
		}
		bid.Timeline.Milestones = patch.Milestones
	}
	if patch.Proposal != nil {
		bid.Proposal = sanitizeText(*patch.Proposal)
	}
	if len(patch.Team) > 0 {
		bid.Team = patch.Team
	}

	bid.UpdatedAt = time.Now().UTC()
	if err := s.bidRepo.UpdateBid(ctx, bid); err != nil {
		return nil, translate(err, "bid not found")
	}

	s.invalidateBid(bid)

	return mapBid(bid), nil
}

func (s *BidService) SelectBid(ctx context.Context, bidId, projectId, clientUserId uuid.UUID) (*entity.BidOutputModel, error) {
	bid, project, err := s.clientBidProject(ctx, bidId, projectId, clientUserId)
	if err != nil {
		return nil, err
	}

	// Selecting an already accepted bid is a no-op, not an error.
	if bid.Status == lifecycle.BidAccepted {
		return mapBid(bid), nil
	}

	if bid.Status != lifecycle.BidPending && bid.Status != lifecycle.BidInReview {
		return nil, InvalidState("bid is " + string(bid.Status) + " and cannot be selected")
	}
	if !lifecycle.BiddableProjectStatus(project.Status) {
		return nil, InvalidState("project is " + string(project.Status) + " and its bids cannot be selected")
	}

	// Competitor ids are collected before the transaction purely for cache
	// invalidation; the transactional bulk update is what rejects them.
	competitors, err := s.bidRepo.GetCompetingBids(ctx, project.Id, bid.Id)
	if err != nil {
		return nil, Internal(err)
	}

	now := time.Now().UTC()
	if bid.Status == lifecycle.BidPending {
		if err := lifecycle.TransitionBid(bid.Status, lifecycle.BidInReview); err != nil {
			return nil, InvalidState(err.Error())
		}
		bid.Status = lifecycle.BidInReview
		bid.StatusHistory = appendStatus(bid.StatusHistory, string(lifecycle.BidInReview), now, "Moved to review for selection")
	}
	if err := lifecycle.TransitionBid(bid.Status, lifecycle.BidAccepted); err != nil {
		return nil, InvalidState(err.Error())
	}
	bid.Status = lifecycle.BidAccepted
	bid.StatusHistory = appendStatus(bid.StatusHistory, string(lifecycle.BidAccepted), now, "Bid selected by client")
	bid.UpdatedAt = now

	project.Status = lifecycle.ProjectInProgress
	project.StatusHistory = appendStatus(project.StatusHistory, string(lifecycle.ProjectInProgress), now, "Bid accepted")
	project.LastActivityAt = now

	if err := s.bidRepo.SelectBid(ctx, bid, project, rejectReasonSelection); err != nil {
		if errors.Is(err, repo_errors.ErrConflict) {
			return nil, Conflict("bid was decided by a concurrent selection")
		}

		return nil, Internal(err)
	}

	s.invalidateBid(bid)
	for _, c := range competitors {
		s.cache.Delete(cache.BidKey(c.Id))
		s.cache.DeleteByPrefix(cache.VendorBidsPrefix(c.VendorId))
	}

	return mapBid(bid), nil
}

func (s *BidService) RejectBid(ctx context.Context, bidId, projectId, clientUserId uuid.UUID, reason string) (*entity.BidOutputModel, error) {
	bid, _, err := s.clientBidProject(ctx, bidId, projectId, clientUserId)
	if err != nil {
		return nil, err
	}

	// Rejecting twice is a no-op, not an error.
	if bid.Status == lifecycle.BidRejected {
		return mapBid(bid), nil
	}
	if bid.Status == lifecycle.BidAccepted {
		return nil, InvalidState("accepted bids cannot be rejected, revert the bid to review first")
	}

	if err := lifecycle.TransitionBid(bid.Status, lifecycle.BidRejected); err != nil {
		return nil, InvalidState(err.Error())
	}

	reason = sanitizeText(reason)
	if reason == "" {
		reason = "Bid rejected by client"
	}

	now := time.Now().UTC()
	bid.Status = lifecycle.BidRejected
	bid.StatusHistory = appendStatus(bid.StatusHistory, string(lifecycle.BidRejected), now, reason)
	bid.UpdatedAt = now

	if err := s.bidRepo.UpdateBid(ctx, bid); err != nil {
		return nil, translate(err, "bid not found")
	}

	s.invalidateBid(bid)

	return mapBid(bid), nil
}

func (s *BidService) WithdrawBid(ctx context.Context, bidId, vendorUserId uuid.UUID) (*entity.BidOutputModel, error) {
	bid, err := s.ownedBid(ctx, bidId, vendorUserId)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.TransitionBid(bid.Status, lifecycle.BidWithdrawn); err != nil {
		return nil, InvalidState(err.Error())
	}

	now := time.Now().UTC()
	bid.Status = lifecycle.BidWithdrawn
	bid.StatusHistory = appendStatus(bid.StatusHistory, string(lifecycle.BidWithdrawn), now, "Bid withdrawn by vendor")
	bid.UpdatedAt = now

	if err := s.bidRepo.UpdateBid(ctx, bid); err != nil {
		return nil, translate(err, "bid not found")
	}

	s.invalidateBid(bid)

	return mapBid(bid), nil
}

func (s *BidService) DeleteBid(ctx context.Context, bidId, vendorUserId uuid.UUID) error {
	bid, err := s.ownedBid(ctx, bidId, vendorUserId)
	if err != nil {
		return err
	}

	if bid.Status != lifecycle.BidPending {
		return InvalidState("only pending bids can be deleted")
	}

	if err := s.bidRepo.DeleteBid(ctx, bid.Id); err != nil {
		return translate(err, "bid not found")
	}

	s.invalidateBid(bid)

	return nil
}

func (s *BidService) NegotiateBid(ctx context.Context, bidId uuid.UUID, initiator string, in *entity.NegotiationInput) (*entity.BidOutputModel, error) {
	bid, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, translate(err, "bid not found")
	}

	if bid.Status != lifecycle.BidPending && bid.Status != lifecycle.BidInReview {
		return nil, InvalidState("bid is " + string(bid.Status) + " and cannot be negotiated")
	}

	if err := validateNegotiation(in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bid.Negotiations = append(bid.Negotiations, entity.Negotiation{
		Id:        uuid.New(),
		Initiator: sanitizeText(initiator),
		Type:      in.Type,
		Original:  in.Original,
		Proposed:  in.Proposed,
		Message:   sanitizeText(in.Message),
		Status:    "pending",
		CreatedAt: now,
	})
	bid.UpdatedAt = now

	if err := s.bidRepo.UpdateBid(ctx, bid); err != nil {
		return nil, translate(err, "bid not found")
	}

	s.cache.Delete(cache.BidKey(bid.Id))

	return mapBid(bid), nil
}

func validateNegotiation(in *entity.NegotiationInput) error {
	switch in.Type {
	case entity.NegotiationCost:
		if in.Proposed.Cost == nil {
			return Validation("cost negotiation requires a proposed cost", map[string]string{
				"proposedValue.cost": "this field is required",
			})
		}
	case entity.NegotiationTimeline:
		if in.Proposed.DurationDays == nil {
			return Validation("timeline negotiation requires a proposed duration", map[string]string{
				"proposedValue.durationDays": "this field is required",
			})
		}
	case entity.NegotiationScope, entity.NegotiationOther:
		if in.Proposed.Text == "" {
			return Validation("negotiation requires a proposed value", map[string]string{
				"proposedValue.text": "this field is required",
			})
		}
	default:
		return Validation("unknown negotiation type", map[string]string{
			"type": "should be one of: cost, timeline, scope, other",
		})
	}

	return nil
}

func (s *BidService) GetBidDetails(ctx context.Context, bidId, requesterUserId uuid.UUID) (*entity.BidOutputModel, error) {
	if cached, ok := s.cache.Get(cache.BidKey(bidId)); ok {
		if bid, ok := cached.(*entity.BidOutputModel); ok {
			return bid, nil
		}
	}

	bid, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, translate(err, "bid not found")
	}

	// First read by the owning client flips the viewed flag.
	if !bid.ClientViewed {
		viewed, err := s.isOwningClient(ctx, bid.ProjectId, requesterUserId)
		if err != nil {
			return nil, err
		}
		if viewed {
			if err := s.bidRepo.MarkBidViewed(ctx, bid.Id); err != nil {
				return nil, Internal(err)
			}
			bid.ClientViewed = true
		}
	}

	out := mapBid(bid)
	s.cache.Set(cache.BidKey(bidId), out)

	return out, nil
}

func (s *BidService) GetCompetitiveAnalysis(ctx context.Context, bidId uuid.UUID) (*entity.CompetitiveAnalysis, error) {
	bid, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, translate(err, "bid not found")
	}

	key := cache.AnalysisKey(bid.ProjectId, bid.Id)
	if cached, ok := s.cache.Get(key); ok {
		if analysis, ok := cached.(*entity.CompetitiveAnalysis); ok {
			return analysis, nil
		}
	}

	competitors, err := s.bidRepo.GetCompetingBids(ctx, bid.ProjectId, bid.Id)
	if err != nil {
		return nil, Internal(err)
	}

	analysis := s.analyzer.Analyze(bid, competitors)

	if err := s.bidRepo.SetBidCompetitiveness(ctx, bid.Id, analysis.Competitiveness); err != nil {
		return nil, translate(err, "bid not found")
	}

	s.cache.Set(key, analysis)

	return analysis, nil
}

func (s *BidService) GetProjectBids(ctx context.Context, projectId uuid.UUID, pg *entity.PaginationInput) (*entity.BidPage, error) {
	key := cache.ProjectBidsKey(projectId, pg.Page, pg.Limit)
	if cached, ok := s.cache.Get(key); ok {
		if page, ok := cached.(*entity.BidPage); ok {
			return page, nil
		}
	}

	bids, total, err := s.bidRepo.GetProjectBids(ctx, projectId, pg)
	if err != nil {
		return nil, Internal(err)
	}

	page := &entity.BidPage{
		Items: mapBids(bids),
		Total: total,
		Page:  pg.Page,
		Limit: pg.Limit,
	}
	s.cache.Set(key, page)

	return page, nil
}

func (s *BidService) GetVendorBids(ctx context.Context, vendorId uuid.UUID, pg *entity.PaginationInput) (*entity.BidPage, error) {
	key := cache.VendorBidsKey(vendorId, pg.Page, pg.Limit)
	if cached, ok := s.cache.Get(key); ok {
		if page, ok := cached.(*entity.BidPage); ok {
			return page, nil
		}
	}

	bids, total, err := s.bidRepo.GetVendorBids(ctx, vendorId, pg)
	if err != nil {
		return nil, Internal(err)
	}

	page := &entity.BidPage{
		Items: mapBids(bids),
		Total: total,
		Page:  pg.Page,
		Limit: pg.Limit,
	}
	s.cache.Set(key, page)

	return page, nil
}

func (s *BidService) GetMultipleProjectBids(ctx context.Context, projectIds []uuid.UUID) (map[string][]entity.BidOutputModel, error) {
	if len(projectIds) == 0 {
		return map[string][]entity.BidOutputModel{}, nil
	}
	if len(projectIds) > maxBatchProjects {
		return nil, Validation("too many projects requested", map[string]string{
			"projectIds": "at most 50 projects per batch",
		})
	}

	byProject, err := s.bidRepo.GetProjectBidsBatch(ctx, projectIds)
	if err != nil {
		return nil, Internal(err)
	}

	result := make(map[string][]entity.BidOutputModel, len(projectIds))
	for _, projectId := range projectIds {
		result[projectId.String()] = mapBids(byProject[projectId])
	}

	return result, nil
}

// ownedBid resolves the vendor profile and loads the bid, failing Forbidden
// when the bid belongs to another vendor.
func (s *BidService) ownedBid(ctx context.Context, bidId, vendorUserId uuid.UUID) (*entity.Bid, error) {
	vendor, err := s.profileRepo.GetVendorByUserId(ctx, vendorUserId)
	if err != nil {
		return nil, translate(err, "vendor profile not found")
	}

	bid, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, translate(err, "bid not found")
	}

	if bid.VendorId != vendor.Id {
		return nil, Forbidden("bid belongs to another vendor")
	}

	return bid, nil
}

// clientBidProject resolves the client profile, loads bid and project and
// checks that the project is the bid's and belongs to the client.
func (s *BidService) clientBidProject(ctx context.Context, bidId, projectId, clientUserId uuid.UUID) (*entity.Bid, *entity.Project, error) {
	client, err := s.profileRepo.GetClientByUserId(ctx, clientUserId)
	if err != nil {
		return nil, nil, translate(err, "client profile not found")
	}

	bid, err := s.bidRepo.GetBidById(ctx, bidId)
	if err != nil {
		return nil, nil, translate(err, "bid not found")
	}
	if bid.ProjectId != projectId {
		return nil, nil, NotFound("bid does not belong to the given project")
	}

	project, err := s.projectRepo.GetProjectById(ctx, projectId)
	if err != nil {
		return nil, nil, translate(err, "project not found")
	}
	if project.ClientId != client.Id {
		return nil, nil, Forbidden("project belongs to another client")
	}

	return bid, project, nil
}

func (s *BidService) isOwningClient(ctx context.Context, projectId, userId uuid.UUID) (bool, error) {
	client, err := s.profileRepo.GetClientByUserId(ctx, userId)
	if err != nil {
		if errors.Is(err, repo_errors.ErrNotFound) {
			return false, nil
		}

		return false, Internal(err)
	}

	project, err := s.projectRepo.GetProjectById(ctx, projectId)
	if err != nil {
		return false, translate(err, "project not found")
	}

	return project.ClientId == client.Id, nil
}

func (s *BidService) invalidateBid(bid *entity.Bid) {
	s.cache.Delete(cache.BidKey(bid.Id))
	s.cache.DeleteByPrefix(cache.ProjectBidsPrefix(bid.ProjectId))
	s.cache.DeleteByPrefix(cache.AnalysisPrefix(bid.ProjectId))
	s.cache.DeleteByPrefix(cache.VendorBidsPrefix(bid.VendorId))
}
