package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"construction-marketplace-api/internal/cache"
	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/lifecycle"
	"construction-marketplace-api/internal/repo"
)

type ProjectService struct {
	projectRepo repo.Project
	bidRepo     repo.Bid
	profileRepo repo.Profile
	cache       *cache.Cache
}

func NewProjectService(repos *repo.Repositories, c *cache.Cache) *ProjectService {
	return &ProjectService{
		projectRepo: repos.Project,
		bidRepo:     repos.Bid,
		profileRepo: repos.Profile,
		cache:       c,
	}
}

// CreateAndPublishProject creates the project directly in OPEN: there is no
// draft-then-publish step in this marketplace.
func (s *ProjectService) CreateAndPublishProject(ctx context.Context, input *entity.CreateProjectInput) (*entity.ProjectOutputModel, error) {
	client, err := s.profileRepo.GetClientByUserId(ctx, input.ClientUserId)
	if err != nil {
		return nil, translate(err, "client profile not found")
	}

	if input.Budget.Max <= input.Budget.Min {
		return nil, Validation("invalid budget range", map[string]string{
			"budget": "max must be greater than min",
		})
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = "public"
	}

	now := time.Now().UTC()
	project := &entity.Project{
		Id:             uuid.New(),
		ClientId:       client.Id,
		Title:          sanitizeText(input.Title),
		Description:    sanitizeText(input.Description),
		Budget:         input.Budget,
		Location:       sanitizeText(input.Location),
		Type:           input.Type,
		Subtype:        input.Subtype,
		Spec:           input.Spec,
		Timeline:       input.Timeline,
		Visibility:     visibility,
		Preferences:    input.Preferences,
		Status:         lifecycle.ProjectOpen,
		StatusHistory:  appendStatus(nil, string(lifecycle.ProjectOpen), now, "Project published"),
		LastActivityAt: now,
		CreatedAt:      now,
	}

	if err := s.projectRepo.CreateProject(ctx, project); err != nil {
		return nil, Internal(err)
	}

	return mapProject(project), nil
}

func (s *ProjectService) GetProject(ctx context.Context, projectId uuid.UUID) (*entity.ProjectOutputModel, error) {
	project, err := s.projectRepo.GetProjectById(ctx, projectId)
	if err != nil {
		return nil, translate(err, "project not found")
	}

	if err := s.projectRepo.IncrementProjectViews(ctx, projectId); err != nil {
		return nil, Internal(err)
	}
	project.Views++

	return mapProject(project), nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, projectId, clientUserId uuid.UUID, patch *entity.UpdateProjectInput) (*entity.ProjectOutputModel, error) {
	project, err := s.ownedProject(ctx, projectId, clientUserId)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		project.Title = sanitizeText(*patch.Title)
	}
	if patch.Description != nil {
		project.Description = sanitizeText(*patch.Description)
	}
	if patch.Budget != nil {
		if patch.Budget.Max <= patch.Budget.Min {
			return nil, Validation("invalid budget range", map[string]string{
				"budget": "max must be greater than min",
			})
		}
		project.Budget = *patch.Budget
	}
	if patch.Location != nil {
		project.Location = sanitizeText(*patch.Location)
	}
	if patch.Subtype != nil {
		project.Subtype = *patch.Subtype
	}
	if patch.Spec != nil {
		project.Spec = *patch.Spec
	}
	if patch.Timeline != nil {
		project.Timeline = *patch.Timeline
	}
	if patch.Visibility != nil {
		project.Visibility = *patch.Visibility
	}
	if patch.Preferences != nil {
		project.Preferences = *patch.Preferences
	}

	project.LastActivityAt = time.Now().UTC()
	if err := s.projectRepo.UpdateProject(ctx, project); err != nil {
		return nil, translate(err, "project not found")
	}

	return mapProject(project), nil
}

// UpdateProjectStatus is deliberately permissive: the owner may set any known
// status; only bids carry a strict transition table. Every change still lands
// in the history.
func (s *ProjectService) UpdateProjectStatus(ctx context.Context, projectId, clientUserId uuid.UUID, newStatus, reason string) (*entity.ProjectOutputModel, error) {
	project, err := s.ownedProject(ctx, projectId, clientUserId)
	if err != nil {
		return nil, err
	}

	status, err := lifecycle.ParseProjectStatus(newStatus)
	if err != nil {
		return nil, Validation(err.Error(), map[string]string{"status": "unknown project status"})
	}

	now := time.Now().UTC()
	project.Status = status
	project.StatusHistory = appendStatus(project.StatusHistory, string(status), now, sanitizeText(reason))
	project.LastActivityAt = now

	if err := s.projectRepo.UpdateProject(ctx, project); err != nil {
		return nil, translate(err, "project not found")
	}

	return mapProject(project), nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, projectId, clientUserId uuid.UUID) error {
	if _, err := s.ownedProject(ctx, projectId, clientUserId); err != nil {
		return err
	}

	bidIds, vendorIds, err := s.projectRepo.DeleteProjectCascade(ctx, projectId)
	if err != nil {
		return translate(err, "project not found")
	}

	for _, bidId := range bidIds {
		s.cache.Delete(cache.BidKey(bidId))
	}
	for _, vendorId := range vendorIds {
		s.cache.DeleteByPrefix(cache.VendorBidsPrefix(vendorId))
	}
	s.cache.DeleteByPrefix(cache.ProjectBidsPrefix(projectId))
	s.cache.DeleteByPrefix(cache.AnalysisPrefix(projectId))

	return nil
}

func (s *ProjectService) SearchProjects(ctx context.Context, in *entity.ProjectSearchInput, pg *entity.PaginationInput) (*entity.ProjectPage, error) {
	projects, total, err := s.projectRepo.SearchProjects(ctx, in, pg)
	if err != nil {
		return nil, Internal(err)
	}

	return &entity.ProjectPage{
		Items: mapProjects(projects),
		Total: total,
		Page:  pg.Page,
		Limit: pg.Limit,
	}, nil
}

// ownedProject resolves the caller's client profile and loads the project,
// failing Forbidden when the caller does not own it.
func (s *ProjectService) ownedProject(ctx context.Context, projectId, clientUserId uuid.UUID) (*entity.Project, error) {
	client, err := s.profileRepo.GetClientByUserId(ctx, clientUserId)
	if err != nil {
		return nil, translate(err, "client profile not found")
	}

	project, err := s.projectRepo.GetProjectById(ctx, projectId)
	if err != nil {
		return nil, translate(err, "project not found")
	}

	if project.ClientId != client.Id {
		return nil, Forbidden("project belongs to another client")
	}

	return project, nil
}
