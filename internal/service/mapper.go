package service

import (
	"time"

	"construction-marketplace-api/internal/entity"
)

func mapProject(p *entity.Project) *entity.ProjectOutputModel {
	return &entity.ProjectOutputModel{
		Id:             p.Id.String(),
		ClientId:       p.ClientId.String(),
		Title:          p.Title,
		Description:    p.Description,
		Budget:         p.Budget,
		Location:       p.Location,
		Type:           p.Type,
		Subtype:        p.Subtype,
		Spec:           p.Spec,
		Timeline:       p.Timeline,
		Visibility:     p.Visibility,
		Preferences:    p.Preferences,
		Status:         string(p.Status),
		StatusHistory:  p.StatusHistory,
		Views:          p.Views,
		LastActivityAt: p.LastActivityAt.Format(time.RFC3339),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}

func mapProjects(projects []entity.Project) []entity.ProjectOutputModel {
	s := make([]entity.ProjectOutputModel, 0)
	for _, p := range projects {
		s = append(s, *mapProject(&p))
	}

	return s
}

func mapBid(b *entity.Bid) *entity.BidOutputModel {
	return &entity.BidOutputModel{
		Id:              b.Id.String(),
		ProjectId:       b.ProjectId.String(),
		VendorId:        b.VendorId.String(),
		TotalCost:       b.TotalCost,
		Currency:        b.Currency,
		Breakdown:       b.Breakdown,
		Timeline:        b.Timeline,
		Proposal:        b.Proposal,
		Team:            b.Team,
		Negotiations:    b.Negotiations,
		Status:          string(b.Status),
		StatusHistory:   b.StatusHistory,
		ClientViewed:    b.ClientViewed,
		Competitiveness: b.Competitiveness,
		SubmittedAt:     b.SubmittedAt.Format(time.RFC3339),
		UpdatedAt:       b.UpdatedAt.Format(time.RFC3339),
	}
}

func mapBids(bids []entity.Bid) []entity.BidOutputModel {
	s := make([]entity.BidOutputModel, 0)
	for _, b := range bids {
		s = append(s, *mapBid(&b))
	}

	return s
}
