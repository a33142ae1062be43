package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"construction-marketplace-api/internal/cache"
	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/lifecycle"
	"construction-marketplace-api/internal/repo"
	"construction-marketplace-api/internal/repo/repo_errors"
)

// fakeStore is an in-memory stand-in for the postgres repositories. It keeps
// the same sentinel error contract and enough ordering guarantees for the
// pagination paths to be exercised.
type fakeStore struct {
	clients  map[uuid.UUID]*entity.ClientProfile
	vendors  map[uuid.UUID]*entity.VendorProfile
	projects map[uuid.UUID]*entity.Project
	bids     map[uuid.UUID]*entity.Bid
	bidOrder []uuid.UUID

	// optional hooks for interleaving store mutations with service calls
	getBidHook    func()
	selectBidHook func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:  map[uuid.UUID]*entity.ClientProfile{},
		vendors:  map[uuid.UUID]*entity.VendorProfile{},
		projects: map[uuid.UUID]*entity.Project{},
		bids:     map[uuid.UUID]*entity.Bid{},
	}
}

func (f *fakeStore) addClient() *entity.ClientProfile {
	client := &entity.ClientProfile{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		Name:      "Test Client",
		CreatedAt: time.Now().UTC(),
	}
	f.clients[client.UserId] = client

	return client
}

func (f *fakeStore) addVendor(mutate ...func(*entity.VendorProfile)) *entity.VendorProfile {
	vendor := &entity.VendorProfile{
		Id:              uuid.New(),
		UserId:          uuid.New(),
		CompanyName:     "Test Builders",
		Status:          entity.VendorActive,
		Services:        []string{"residential"},
		YearsInBusiness: 10,
		Rating:          4.5,
		CreatedAt:       time.Now().UTC(),
	}
	for _, m := range mutate {
		m(vendor)
	}
	f.vendors[vendor.UserId] = vendor

	return vendor
}

func (f *fakeStore) addProject(client *entity.ClientProfile, mutate ...func(*entity.Project)) *entity.Project {
	now := time.Now().UTC()
	project := &entity.Project{
		Id:          uuid.New(),
		ClientId:    client.Id,
		Title:       "Two-storey house",
		Description: "Construction of a two-storey residential house",
		Budget:      entity.BudgetRange{Min: 50000, Max: 500000, Currency: "INR"},
		Location:    "Pune",
		Type:        "residential",
		Visibility:  "public",
		Status:      lifecycle.ProjectOpen,
		StatusHistory: []entity.StatusChange{
			{Status: string(lifecycle.ProjectOpen), Timestamp: now, Reason: "Project published"},
		},
		LastActivityAt: now,
		CreatedAt:      now,
	}
	for _, m := range mutate {
		m(project)
	}
	f.projects[project.Id] = project

	return project
}

func (f *fakeStore) addBid(project *entity.Project, vendor *entity.VendorProfile, mutate ...func(*entity.Bid)) *entity.Bid {
	now := time.Now().UTC()
	bid := &entity.Bid{
		Id:        uuid.New(),
		ProjectId: project.Id,
		VendorId:  vendor.Id,
		TotalCost: 100000,
		Currency:  "INR",
		Timeline:  entity.BidTimeline{StartDate: now, DurationDays: 90},
		Status:    lifecycle.BidPending,
		StatusHistory: []entity.StatusChange{
			{Status: string(lifecycle.BidPending), Timestamp: now, Reason: "Bid submitted"},
		},
		Negotiations: []entity.Negotiation{},
		SubmittedAt:  now,
		UpdatedAt:    now,
	}
	for _, m := range mutate {
		m(bid)
	}
	f.bids[bid.Id] = bid
	f.bidOrder = append(f.bidOrder, bid.Id)

	return bid
}

func (f *fakeStore) GetClientByUserId(_ context.Context, userId uuid.UUID) (*entity.ClientProfile, error) {
	client, ok := f.clients[userId]
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	copied := *client

	return &copied, nil
}

func (f *fakeStore) GetVendorByUserId(_ context.Context, userId uuid.UUID) (*entity.VendorProfile, error) {
	vendor, ok := f.vendors[userId]
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	copied := *vendor

	return &copied, nil
}

func (f *fakeStore) GetVendorById(_ context.Context, id uuid.UUID) (*entity.VendorProfile, error) {
	for _, vendor := range f.vendors {
		if vendor.Id == id {
			copied := *vendor

			return &copied, nil
		}
	}

	return nil, repo_errors.ErrNotFound
}

func (f *fakeStore) CreateProject(_ context.Context, p *entity.Project) error {
	copied := *p
	f.projects[p.Id] = &copied

	return nil
}

func (f *fakeStore) GetProjectById(_ context.Context, id uuid.UUID) (*entity.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	copied := *project

	return &copied, nil
}

func (f *fakeStore) UpdateProject(_ context.Context, p *entity.Project) error {
	if _, ok := f.projects[p.Id]; !ok {
		return repo_errors.ErrNotFound
	}
	copied := *p
	f.projects[p.Id] = &copied

	return nil
}

func (f *fakeStore) DeleteProjectCascade(_ context.Context, id uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	if _, ok := f.projects[id]; !ok {
		return nil, nil, repo_errors.ErrNotFound
	}
	delete(f.projects, id)

	var removed, vendors []uuid.UUID
	seenVendors := map[uuid.UUID]struct{}{}
	remaining := f.bidOrder[:0]
	for _, bidId := range f.bidOrder {
		if f.bids[bidId].ProjectId == id {
			removed = append(removed, bidId)
			vendorId := f.bids[bidId].VendorId
			if _, ok := seenVendors[vendorId]; !ok {
				seenVendors[vendorId] = struct{}{}
				vendors = append(vendors, vendorId)
			}
			delete(f.bids, bidId)
		} else {
			remaining = append(remaining, bidId)
		}
	}
	f.bidOrder = remaining

	return removed, vendors, nil
}

func (f *fakeStore) SearchProjects(_ context.Context, in *entity.ProjectSearchInput, pg *entity.PaginationInput) ([]entity.Project, int, error) {
	var matched []entity.Project
	for _, p := range f.projects {
		if len(in.Types) > 0 && !containsFold(in.Types, p.Type) {
			continue
		}
		if len(in.Statuses) > 0 && !containsFold(in.Statuses, string(p.Status)) {
			continue
		}
		matched = append(matched, *p)
	}

	total := len(matched)
	offset := pg.Offset()
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + pg.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], total, nil
}

func (f *fakeStore) IncrementProjectViews(_ context.Context, id uuid.UUID) error {
	project, ok := f.projects[id]
	if !ok {
		return repo_errors.ErrNotFound
	}
	project.Views++

	return nil
}

func (f *fakeStore) CreateBid(_ context.Context, b *entity.Bid) error {
	for _, existing := range f.bids {
		if existing.ProjectId == b.ProjectId && existing.VendorId == b.VendorId {
			return repo_errors.ErrConflict
		}
	}
	copied := *b
	f.bids[b.Id] = &copied
	f.bidOrder = append(f.bidOrder, b.Id)

	return nil
}

func (f *fakeStore) GetBidById(_ context.Context, id uuid.UUID) (*entity.Bid, error) {
	bid, ok := f.bids[id]
	if !ok {
		return nil, repo_errors.ErrNotFound
	}
	copied := *bid
	if f.getBidHook != nil {
		f.getBidHook()
	}

	return &copied, nil
}

func (f *fakeStore) BidExists(_ context.Context, projectId, vendorId uuid.UUID) (bool, error) {
	for _, bid := range f.bids {
		if bid.ProjectId == projectId && bid.VendorId == vendorId {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeStore) UpdateBid(_ context.Context, b *entity.Bid) error {
	if _, ok := f.bids[b.Id]; !ok {
		return repo_errors.ErrNotFound
	}
	copied := *b
	f.bids[b.Id] = &copied

	return nil
}

func (f *fakeStore) DeleteBid(_ context.Context, id uuid.UUID) error {
	if _, ok := f.bids[id]; !ok {
		return repo_errors.ErrNotFound
	}
	delete(f.bids, id)
	remaining := f.bidOrder[:0]
	for _, bidId := range f.bidOrder {
		if bidId != id {
			remaining = append(remaining, bidId)
		}
	}
	f.bidOrder = remaining

	return nil
}

func (f *fakeStore) GetProjectBids(_ context.Context, projectId uuid.UUID, pg *entity.PaginationInput) ([]entity.Bid, int, error) {
	return f.pagedBids(pg, func(b *entity.Bid) bool { return b.ProjectId == projectId })
}

func (f *fakeStore) GetVendorBids(_ context.Context, vendorId uuid.UUID, pg *entity.PaginationInput) ([]entity.Bid, int, error) {
	return f.pagedBids(pg, func(b *entity.Bid) bool { return b.VendorId == vendorId })
}

func (f *fakeStore) pagedBids(pg *entity.PaginationInput, match func(*entity.Bid) bool) ([]entity.Bid, int, error) {
	var matched []entity.Bid
	for _, bidId := range f.bidOrder {
		if match(f.bids[bidId]) {
			matched = append(matched, *f.bids[bidId])
		}
	}

	total := len(matched)
	offset := pg.Offset()
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + pg.Limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], total, nil
}

func (f *fakeStore) GetProjectBidsBatch(_ context.Context, projectIds []uuid.UUID) (map[uuid.UUID][]entity.Bid, error) {
	result := map[uuid.UUID][]entity.Bid{}
	for _, projectId := range projectIds {
		for _, bidId := range f.bidOrder {
			if f.bids[bidId].ProjectId == projectId {
				result[projectId] = append(result[projectId], *f.bids[bidId])
			}
		}
	}

	return result, nil
}

func (f *fakeStore) GetCompetingBids(_ context.Context, projectId uuid.UUID, excludeBidId uuid.UUID) ([]entity.Bid, error) {
	var competing []entity.Bid
	for _, bidId := range f.bidOrder {
		bid := f.bids[bidId]
		if bid.ProjectId != projectId || bid.Id == excludeBidId {
			continue
		}
		if bid.Status == lifecycle.BidPending || bid.Status == lifecycle.BidInReview {
			competing = append(competing, *bid)
		}
	}

	return competing, nil
}

func (f *fakeStore) SelectBid(_ context.Context, accepted *entity.Bid, project *entity.Project, rejectReason string) error {
	if f.selectBidHook != nil {
		f.selectBidHook()
	}

	stored, ok := f.bids[accepted.Id]
	if !ok {
		return repo_errors.ErrNotFound
	}
	if stored.Status != lifecycle.BidPending && stored.Status != lifecycle.BidInReview {
		return repo_errors.ErrConflict
	}

	acceptedCopy := *accepted
	f.bids[accepted.Id] = &acceptedCopy

	now := accepted.UpdatedAt
	for _, bid := range f.bids {
		if bid.ProjectId != project.Id || bid.Id == accepted.Id {
			continue
		}
		if bid.Status == lifecycle.BidPending || bid.Status == lifecycle.BidInReview {
			bid.Status = lifecycle.BidRejected
			bid.StatusHistory = append(bid.StatusHistory, entity.StatusChange{
				Status:    string(lifecycle.BidRejected),
				Timestamp: now,
				Reason:    rejectReason,
			})
			bid.UpdatedAt = now
		}
	}

	projectCopy := *project
	f.projects[project.Id] = &projectCopy

	return nil
}

func (f *fakeStore) SetBidCompetitiveness(_ context.Context, id uuid.UUID, score float64) error {
	bid, ok := f.bids[id]
	if !ok {
		return repo_errors.ErrNotFound
	}
	bid.Competitiveness = &score

	return nil
}

func (f *fakeStore) MarkBidViewed(_ context.Context, id uuid.UUID) error {
	bid, ok := f.bids[id]
	if !ok {
		return repo_errors.ErrNotFound
	}
	bid.ClientViewed = true

	return nil
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(time.Minute, 100, "@every 1m")
	require.NoError(t, err)
	t.Cleanup(c.Stop)

	return c
}

func newTestServices(t *testing.T, store *fakeStore) *Services {
	t.Helper()
	repos := &repo.Repositories{Profile: store, Project: store, Bid: store}

	return NewServices(repos, newTestCache(t))
}
