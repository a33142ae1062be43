package repo

import (
	"context"

	"github.com/google/uuid"

	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/repo/pgdb"
	"construction-marketplace-api/pkg/postgres"
)

type Diagnostics interface {
	Ping() error
}

// Profile is the consumed external interface: client and vendor profiles are
// managed elsewhere, this system only resolves them.
type Profile interface {
	GetClientByUserId(ctx context.Context, userId uuid.UUID) (*entity.ClientProfile, error)
	GetVendorByUserId(ctx context.Context, userId uuid.UUID) (*entity.VendorProfile, error)
	GetVendorById(ctx context.Context, id uuid.UUID) (*entity.VendorProfile, error)
}

type Project interface {
	CreateProject(ctx context.Context, p *entity.Project) error
	GetProjectById(ctx context.Context, id uuid.UUID) (*entity.Project, error)
	UpdateProject(ctx context.Context, p *entity.Project) error
	// DeleteProjectCascade removes the project and every bid referencing it
	// in one transaction, returning the ids of the bids removed and the
	// distinct vendors that held them.
	DeleteProjectCascade(ctx context.Context, id uuid.UUID) (bidIds, vendorIds []uuid.UUID, err error)
	SearchProjects(ctx context.Context, in *entity.ProjectSearchInput, pg *entity.PaginationInput) ([]entity.Project, int, error)
	IncrementProjectViews(ctx context.Context, id uuid.UUID) error
}

type Bid interface {
	// CreateBid returns repo_errors.ErrConflict when a bid for the same
	// (project, vendor) pair already exists.
	CreateBid(ctx context.Context, b *entity.Bid) error
	GetBidById(ctx context.Context, id uuid.UUID) (*entity.Bid, error)
	BidExists(ctx context.Context, projectId, vendorId uuid.UUID) (bool, error)
	UpdateBid(ctx context.Context, b *entity.Bid) error
	DeleteBid(ctx context.Context, id uuid.UUID) error
	GetProjectBids(ctx context.Context, projectId uuid.UUID, pg *entity.PaginationInput) ([]entity.Bid, int, error)
	GetVendorBids(ctx context.Context, vendorId uuid.UUID, pg *entity.PaginationInput) ([]entity.Bid, int, error)
	GetProjectBidsBatch(ctx context.Context, projectIds []uuid.UUID) (map[uuid.UUID][]entity.Bid, error)
	// GetCompetingBids returns bids on the project in PENDING or IN_REVIEW,
	// excluding the given bid.
	GetCompetingBids(ctx context.Context, projectId uuid.UUID, excludeBidId uuid.UUID) ([]entity.Bid, error)
	// SelectBid commits the accepted bid, the bulk rejection of every other
	// PENDING/IN_REVIEW bid on the project, and the project update as a
	// single transaction. Returns repo_errors.ErrConflict when the bid was
	// already decided by a concurrent selection.
	SelectBid(ctx context.Context, accepted *entity.Bid, project *entity.Project, rejectReason string) error
	// SetBidCompetitiveness stores the computed score without touching any
	// other column.
	SetBidCompetitiveness(ctx context.Context, id uuid.UUID, score float64) error
	MarkBidViewed(ctx context.Context, id uuid.UUID) error
}

type Repositories struct {
	Diagnostics
	Profile
	Project
	Bid
}

func NewRepositories(p *postgres.Postgres) *Repositories {
	return &Repositories{
		Diagnostics: pgdb.NewDiagnosticsRepo(p),
		Profile:     pgdb.NewProfileRepo(p),
		Project:     pgdb.NewProjectRepo(p),
		Bid:         pgdb.NewBidRepo(p),
	}
}
