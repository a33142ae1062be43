package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"

	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/service"
)

type projectRoutesHandler struct {
	projectService service.Project
	validate       *validator.Validate
}

func newProjectRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *projectRoutesHandler {
	h := &projectRoutesHandler{projectService: services.Project, validate: v}
	outer.POST("/projects", h.PostProject)
	outer.GET("/projects", h.SearchProjects)
	outer.GET("/projects/:projectId", h.GetProject)
	outer.PATCH("/projects/:projectId", h.PatchProject)
	outer.PUT("/projects/:projectId/status", h.UpdateProjectStatus)
	outer.DELETE("/projects/:projectId", h.DeleteProject)

	return h
}

type budgetInput struct {
	Min      float64 `json:"min" validate:"gte=0"`
	Max      float64 `json:"max" validate:"required,gt=0"`
	Currency string  `json:"currency" validate:"required,len=3"`
}

type postProjectInput struct {
	Title       string                    `json:"title" validate:"required,max=200"`
	Description string                    `json:"description" validate:"required,max=5000"`
	Budget      budgetInput               `json:"budget"`
	Location    string                    `json:"location" validate:"required,max=200"`
	Type        string                    `json:"type" validate:"required,max=100"`
	Subtype     string                    `json:"subtype" validate:"max=100"`
	Spec        entity.ProjectSpec        `json:"spec"`
	Timeline    entity.ProjectTimeline    `json:"timeline"`
	Visibility  string                    `json:"visibility" validate:"omitempty,oneof=public private"`
	Preferences entity.ProjectPreferences `json:"preferences"`
}

// /projects
func (h *projectRoutesHandler) PostProject(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	var input postProjectInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{Reason: "Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{Reason: getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	model := &entity.CreateProjectInput{
		ClientUserId: userId,
		Title:        input.Title,
		Description:  input.Description,
		Budget: entity.BudgetRange{
			Min:      input.Budget.Min,
			Max:      input.Budget.Max,
			Currency: input.Budget.Currency,
		},
		Location:    input.Location,
		Type:        input.Type,
		Subtype:     input.Subtype,
		Spec:        input.Spec,
		Timeline:    input.Timeline,
		Visibility:  input.Visibility,
		Preferences: input.Preferences,
	}

	project, err := h.projectService.CreateAndPublishProject(c.Request().Context(), model)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, project)
}

// /projects?type=...&status=...&location=...&q=...&budgetMin=...&budgetMax=...
func (h *projectRoutesHandler) SearchProjects(c echo.Context) error {
	input := &entity.ProjectSearchInput{
		Location: c.QueryParam("location"),
		Query:    c.QueryParam("q"),
	}
	if types := c.QueryParam("type"); types != "" {
		input.Types = strings.Split(types, ",")
	}
	if statuses := c.QueryParam("status"); statuses != "" {
		input.Statuses = strings.Split(statuses, ",")
	}
	if raw := c.QueryParam("budgetMin"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Reason: "budgetMin should be a number"})
		}
		input.BudgetMin = &v
	}
	if raw := c.QueryParam("budgetMax"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Reason: "budgetMax should be a number"})
		}
		input.BudgetMax = &v
	}

	pg := paginationFromQuery(c, defaultSearchLimit)
	page, err := h.projectService.SearchProjects(c.Request().Context(), input, pg)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, page)
}

// /projects/:projectId
func (h *projectRoutesHandler) GetProject(c echo.Context) error {
	projectId, err := parseUuidParam(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	project, err := h.projectService.GetProject(c.Request().Context(), projectId)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, project)
}

type patchProjectInput struct {
	Title       *string                    `json:"title" validate:"omitempty,max=200"`
	Description *string                    `json:"description" validate:"omitempty,max=5000"`
	Budget      *budgetInput               `json:"budget"`
	Location    *string                    `json:"location" validate:"omitempty,max=200"`
	Subtype     *string                    `json:"subtype" validate:"omitempty,max=100"`
	Spec        *entity.ProjectSpec        `json:"spec"`
	Timeline    *entity.ProjectTimeline    `json:"timeline"`
	Visibility  *string                    `json:"visibility" validate:"omitempty,oneof=public private"`
	Preferences *entity.ProjectPreferences `json:"preferences"`
}

// /projects/:projectId
func (h *projectRoutesHandler) PatchProject(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	projectId, err := parseUuidParam(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	var input patchProjectInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{Reason: "Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{Reason: getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	patch := &entity.UpdateProjectInput{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Subtype:     input.Subtype,
		Spec:        input.Spec,
		Timeline:    input.Timeline,
		Visibility:  input.Visibility,
		Preferences: input.Preferences,
	}
	if input.Budget != nil {
		patch.Budget = &entity.BudgetRange{
			Min:      input.Budget.Min,
			Max:      input.Budget.Max,
			Currency: input.Budget.Currency,
		}
	}

	project, err := h.projectService.UpdateProject(c.Request().Context(), projectId, userId, patch)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, project)
}

type projectStatusInput struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

// /projects/:projectId/status
func (h *projectRoutesHandler) UpdateProjectStatus(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	projectId, err := parseUuidParam(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	var input projectStatusInput
	if err := c.Bind(&input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{Reason: "Input data is not formed correctly"}); e != nil {
			return e
		}

		return err
	}

	if err := h.validate.Struct(input); err != nil {
		if e := c.JSON(http.StatusBadRequest, errorResponse{Reason: getAllErrorMessages(err)}); e != nil {
			return e
		}

		return err
	}

	project, err := h.projectService.UpdateProjectStatus(c.Request().Context(), projectId, userId, input.Status, input.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, project)
}

// /projects/:projectId
func (h *projectRoutesHandler) DeleteProject(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	projectId, err := parseUuidParam(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	if err := h.projectService.DeleteProject(c.Request().Context(), projectId, userId); err != nil {
		return writeServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
