package service

import (
	"context"

	"github.com/google/uuid"

	"construction-marketplace-api/internal/cache"
	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/repo"
)

type Diagnostics interface {
	Ping() error
}

type Project interface {
	CreateAndPublishProject(ctx context.Context, input *entity.CreateProjectInput) (*entity.ProjectOutputModel, error)
	GetProject(ctx context.Context, projectId uuid.UUID) (*entity.ProjectOutputModel, error)
	UpdateProject(ctx context.Context, projectId, clientUserId uuid.UUID, patch *entity.UpdateProjectInput) (*entity.ProjectOutputModel, error)
	UpdateProjectStatus(ctx context.Context, projectId, clientUserId uuid.UUID, newStatus, reason string) (*entity.ProjectOutputModel, error)
	DeleteProject(ctx context.Context, projectId, clientUserId uuid.UUID) error
	SearchProjects(ctx context.Context, in *entity.ProjectSearchInput, pg *entity.PaginationInput) (*entity.ProjectPage, error)
}

type Bid interface {
	SubmitBid(ctx context.Context, projectId, vendorUserId uuid.UUID, in *entity.SubmitBidInput) (*entity.BidOutputModel, error)
	UpdateBid(ctx context.Context, bidId, vendorUserId uuid.UUID, patch *entity.UpdateBidInput) (*entity.BidOutputModel, error)
	SelectBid(ctx context.Context, bidId, projectId, clientUserId uuid.UUID) (*entity.BidOutputModel, error)
	RejectBid(ctx context.Context, bidId, projectId, clientUserId uuid.UUID, reason string) (*entity.BidOutputModel, error)
	WithdrawBid(ctx context.Context, bidId, vendorUserId uuid.UUID) (*entity.BidOutputModel, error)
	DeleteBid(ctx context.Context, bidId, vendorUserId uuid.UUID) error
	NegotiateBid(ctx context.Context, bidId uuid.UUID, initiator string, in *entity.NegotiationInput) (*entity.BidOutputModel, error)

	GetBidDetails(ctx context.Context, bidId, requesterUserId uuid.UUID) (*entity.BidOutputModel, error)
	GetCompetitiveAnalysis(ctx context.Context, bidId uuid.UUID) (*entity.CompetitiveAnalysis, error)
	GetProjectBids(ctx context.Context, projectId uuid.UUID, pg *entity.PaginationInput) (*entity.BidPage, error)
	GetVendorBids(ctx context.Context, vendorId uuid.UUID, pg *entity.PaginationInput) (*entity.BidPage, error)
	GetMultipleProjectBids(ctx context.Context, projectIds []uuid.UUID) (map[string][]entity.BidOutputModel, error)
}

type Services struct {
	Diagnostics Diagnostics
	Project     Project
	Bid         Bid
}

func NewServices(repos *repo.Repositories, c *cache.Cache) *Services {
	return &Services{
		Diagnostics: NewDiagnosticsService(repos),
		Project:     NewProjectService(repos, c),
		Bid:         NewBidService(repos, c),
	}
}
