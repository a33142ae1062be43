package controller

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo"

	"construction-marketplace-api/internal/entity"
	"construction-marketplace-api/internal/service"
)

type bidRoutesHandler struct {
	bidService service.Bid
	validate   *validator.Validate
}

func newBidRoutesHandler(outer *echo.Group, services *service.Services, v *validator.Validate) *bidRoutesHandler {
	h := &bidRoutesHandler{bidService: services.Bid, validate: v}
	outer.POST("/bids", h.PostBid)
	outer.GET("/bids/:bidId", h.GetBid)
	outer.PATCH("/bids/:bidId", h.PatchBid)
	outer.DELETE("/bids/:bidId", h.DeleteBid)
	outer.PUT("/bids/:bidId/select", h.SelectBid)
	outer.PUT("/bids/:bidId/reject", h.RejectBid)
	outer.PUT("/bids/:bidId/withdraw", h.WithdrawBid)
	outer.POST("/bids/:bidId/negotiate", h.NegotiateBid)
	outer.GET("/bids/:bidId/analysis", h.GetBidAnalysis)
	outer.GET("/projects/:projectId/bids", h.GetProjectBids)
	outer.GET("/vendors/:vendorId/bids", h.GetVendorBids)
	outer.POST("/projects/bids/batch", h.GetProjectBidsBatch)

	return h
}

type postBidInput struct {
	ProjectId    string                `json:"projectId" validate:"required,uuid"`
	TotalCost    float64               `json:"totalCost" validate:"required,gt=0"`
	Currency     string                `json:"currency" validate:"omitempty,len=3"`
	Breakdown    *entity.CostBreakdown `json:"breakdown"`
	StartDate    time.Time             `json:"startDate" validate:"required"`
	DurationDays int                   `json:"durationDays" validate:"required,gt=0"`
	Milestones   []entity.Milestone    `json:"milestones"`
	Proposal     string                `json:"proposal" validate:"max=2000"`
	Team         []entity.TeamMember   `json:"team"`
}

// /bids
func (h *bidRoutesHandler) PostBid(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	var input postBidInput
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

	projectId, err := uuid.Parse(input.ProjectId)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: "projectId should be a valid uuid"})
	}

	model := &entity.SubmitBidInput{
		TotalCost:    input.TotalCost,
		Currency:     input.Currency,
		Breakdown:    input.Breakdown,
		StartDate:    input.StartDate,
		DurationDays: input.DurationDays,
		Milestones:   input.Milestones,
		Proposal:     input.Proposal,
		Team:         input.Team,
	}

	bid, err := h.bidService.SubmitBid(c.Request().Context(), projectId, userId, model)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, bid)
}

// /bids/:bidId
func (h *bidRoutesHandler) GetBid(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	bidId, err := parseUuidParam(c, "bidId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	bid, err := h.bidService.GetBidDetails(c.Request().Context(), bidId, userId)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

type patchBidInput struct {
	TotalCost    *float64              `json:"totalCost" validate:"omitempty,gt=0"`
	Currency     *string               `json:"currency" validate:"omitempty,len=3"`
	Breakdown    *entity.CostBreakdown `json:"breakdown"`
	StartDate    *time.Time            `json:"startDate"`
	DurationDays *int                  `json:"durationDays" validate:"omitempty,gt=0"`
	Milestones   []entity.Milestone    `json:"milestones"`
	Proposal     *string               `json:"proposal" validate:"omitempty,max=2000"`
	Team         []entity.TeamMember   `json:"team"`
}

// /bids/:bidId
func (h *bidRoutesHandler) PatchBid(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	bidId, err := parseUuidParam(c, "bidId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	var input patchBidInput
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

	patch := &entity.UpdateBidInput{
		TotalCost:    input.TotalCost,
		Currency:     input.Currency,
		Breakdown:    input.Breakdown,
		StartDate:    input.StartDate,
		DurationDays: input.DurationDays,
		Milestones:   input.Milestones,
		Proposal:     input.Proposal,
		Team:         input.Team,
	}

	bid, err := h.bidService.UpdateBid(c.Request().Context(), bidId, userId, patch)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

// /bids/:bidId
func (h *bidRoutesHandler) DeleteBid(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	bidId, err := parseUuidParam(c, "bidId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	if err := h.bidService.DeleteBid(c.Request().Context(), bidId, userId); err != nil {
		return writeServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

type selectBidInput struct {
	ProjectId string `json:"projectId" validate:"required,uuid"`
}

// /bids/:bidId/select
func (h *bidRoutesHandler) SelectBid(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	bidId, err := parseUuidParam(c, "bidId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	var input selectBidInput
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

	projectId, err := uuid.Parse(input.ProjectId)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: "projectId should be a valid uuid"})
	}

	bid, err := h.bidService.SelectBid(c.Request().Context(), bidId, projectId, userId)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

type rejectBidInput struct {
	ProjectId string `json:"projectId" validate:"required,uuid"`
	Reason    string `json:"reason" validate:"max=500"`
}

// /bids/:bidId/reject
func (h *bidRoutesHandler) RejectBid(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	bidId, err := parseUuidParam(c, "bidId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	var input rejectBidInput
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

	projectId, err := uuid.Parse(input.ProjectId)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: "projectId should be a valid uuid"})
	}

	bid, err := h.bidService.RejectBid(c.Request().Context(), bidId, projectId, userId, input.Reason)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

// /bids/:bidId/withdraw
func (h *bidRoutesHandler) WithdrawBid(c echo.Context) error {
	userId, err := requesterId(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Reason: err.Error()})
	}

	bidId, err := parseUuidParam(c, "bidId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	bid, err := h.bidService.WithdrawBid(c.Request().Context(), bidId, userId)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

type negotiateBidInput struct {
	Initiator string                  `json:"initiator" validate:"required,oneof=client vendor"`
	Type      string                  `json:"type" validate:"required,oneof=cost timeline scope other"`
	Original  entity.NegotiationValue `json:"originalValue"`
	Proposed  entity.NegotiationValue `json:"proposedValue"`
	Message   string                  `json:"message" validate:"max=2000"`
}

// /bids/:bidId/negotiate
func (h *bidRoutesHandler) NegotiateBid(c echo.Context) error {
	bidId, err := parseUuidParam(c, "bidId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	var input negotiateBidInput
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

	model := &entity.NegotiationInput{
		Type:     entity.NegotiationType(input.Type),
		Original: input.Original,
		Proposed: input.Proposed,
		Message:  input.Message,
	}

	bid, err := h.bidService.NegotiateBid(c.Request().Context(), bidId, input.Initiator, model)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bid)
}

// /bids/:bidId/analysis
func (h *bidRoutesHandler) GetBidAnalysis(c echo.Context) error {
	bidId, err := parseUuidParam(c, "bidId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	analysis, err := h.bidService.GetCompetitiveAnalysis(c.Request().Context(), bidId)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, analysis)
}

// /projects/:projectId/bids
func (h *bidRoutesHandler) GetProjectBids(c echo.Context) error {
	projectId, err := parseUuidParam(c, "projectId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	page, err := h.bidService.GetProjectBids(c.Request().Context(), projectId, paginationFromQuery(c, defaultListLimit))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, page)
}

// /vendors/:vendorId/bids
func (h *bidRoutesHandler) GetVendorBids(c echo.Context) error {
	vendorId, err := parseUuidParam(c, "vendorId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Reason: err.Error()})
	}

	page, err := h.bidService.GetVendorBids(c.Request().Context(), vendorId, paginationFromQuery(c, defaultListLimit))
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, page)
}

type batchBidsInput struct {
	ProjectIds []string `json:"projectIds" validate:"required,min=1,dive,uuid"`
}

// /projects/bids/batch
func (h *bidRoutesHandler) GetProjectBidsBatch(c echo.Context) error {
	var input batchBidsInput
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

	ids := make([]uuid.UUID, 0, len(input.ProjectIds))
	for _, raw := range input.ProjectIds {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Reason: "projectIds should contain valid uuids"})
		}
		ids = append(ids, id)
	}

	bids, err := h.bidService.GetMultipleProjectBids(c.Request().Context(), ids)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, bids)
}
