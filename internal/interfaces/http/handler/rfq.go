package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	procurementapp "github.com/procura/backend/internal/application/procurement"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/interfaces/http/dto"
)

// RfqHandler handles bidding round API endpoints
type RfqHandler struct {
	BaseHandler
	rfqService        *procurementapp.RfqService
	finalizeService   *procurementapp.FinalizeService
	comparisonService *procurementapp.ComparisonService
}

// NewRfqHandler creates a new RfqHandler
func NewRfqHandler(
	rfqService *procurementapp.RfqService,
	finalizeService *procurementapp.FinalizeService,
	comparisonService *procurementapp.ComparisonService,
) *RfqHandler {
	return &RfqHandler{
		rfqService:        rfqService,
		finalizeService:   finalizeService,
		comparisonService: comparisonService,
	}
}

// RegisterRoutes registers bidding round routes
func (h *RfqHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rfqs := rg.Group("/procurement/rfqs")
	{
		rfqs.POST("", h.Create)
		rfqs.GET("", h.List)
		rfqs.GET("/:id", h.GetByID)
		rfqs.POST("/:id/items", h.AddLineItem)
		rfqs.POST("/:id/participants", h.AddParticipant)
		rfqs.POST("/:id/publish", h.Publish)
		rfqs.POST("/:id/cancel", h.Cancel)
		rfqs.POST("/:id/participants/:participantId/view", h.RecordView)
		rfqs.POST("/:id/participants/:participantId/offer", h.SubmitOffer)
		rfqs.GET("/:id/comparison", h.GetComparison)
		rfqs.GET("/:id/suggested-allocation", h.SuggestAllocation)
		rfqs.POST("/:id/finalize/single", h.FinalizeSingleWinner)
		rfqs.POST("/:id/finalize/split", h.FinalizeSplitWinners)
	}
}

// Create opens a new bidding round in draft
func (h *RfqHandler) Create(c *gin.Context) {
	var req procurementapp.CreateRfqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rfq, err := h.rfqService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, rfq)
}

// GetByID retrieves a bidding round with its full graph
func (h *RfqHandler) GetByID(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	rfq, err := h.rfqService.GetByID(c.Request.Context(), rfqID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rfq)
}

// List retrieves a paginated list of bidding rounds
func (h *RfqHandler) List(c *gin.Context) {
	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var status *procurement.RfqStatus
	if raw := c.Query("status"); raw != "" {
		parsed := procurement.RfqStatus(strings.ToUpper(raw))
		if !parsed.IsValid() {
			h.BadRequest(c, "Invalid status filter")
			return
		}
		status = &parsed
	}

	result, err := h.rfqService.List(c.Request.Context(), toFilter(listReq), status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// AddLineItem adds a line item to a draft round
func (h *RfqHandler) AddLineItem(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	var req procurementapp.AddLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rfq, err := h.rfqService.AddLineItem(c.Request.Context(), rfqID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rfq)
}

// AddParticipant invites a supplier into a draft round
func (h *RfqHandler) AddParticipant(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	var req procurementapp.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rfq, err := h.rfqService.AddParticipant(c.Request.Context(), rfqID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rfq)
}

// Publish opens a draft round for bidding
func (h *RfqHandler) Publish(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	rfq, err := h.rfqService.Publish(c.Request.Context(), rfqID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rfq)
}

// Cancel cancels a round before completion
func (h *RfqHandler) Cancel(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	var req procurementapp.CancelRfqRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rfq, err := h.rfqService.Cancel(c.Request.Context(), rfqID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, rfq)
}

// RecordView marks a participant as having viewed an active round
func (h *RfqHandler) RecordView(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	participantID, err := uuid.Parse(c.Param("participantId"))
	if err != nil {
		h.BadRequest(c, "Invalid participant ID format")
		return
	}

	if err := h.rfqService.RecordView(c.Request.Context(), rfqID, participantID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// SubmitOffer records a participant's priced response. The participant is
// addressed by the URL path; any participant_id in the body is ignored.
func (h *RfqHandler) SubmitOffer(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	participantID, err := uuid.Parse(c.Param("participantId"))
	if err != nil {
		h.BadRequest(c, "Invalid participant ID format")
		return
	}

	var req procurementapp.SubmitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ParticipantID = participantID

	offer, err := h.rfqService.SubmitOffer(c.Request.Context(), rfqID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, offer)
}

// GetComparison returns the side-by-side offer matrix for a round
func (h *RfqHandler) GetComparison(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	comparison, err := h.comparisonService.GetComparison(c.Request.Context(), rfqID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, comparison)
}

// SuggestAllocation returns the cheapest-first line item mapping
func (h *RfqHandler) SuggestAllocation(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	suggestion, err := h.comparisonService.SuggestAllocation(c.Request.Context(), rfqID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, suggestion)
}

// FinalizeSingleWinner awards every line item to one offer and creates the order
func (h *RfqHandler) FinalizeSingleWinner(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	var req procurementapp.FinalizeSingleWinnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	operatorID, err := getOperatorID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identity required to finalize")
		return
	}
	req.FinalizedBy = operatorID

	result, err := h.finalizeService.FinalizeSingleWinner(c.Request.Context(), rfqID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// FinalizeSplitWinners awards line items across offers, one order per winner
func (h *RfqHandler) FinalizeSplitWinners(c *gin.Context) {
	rfqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid RFQ ID format")
		return
	}

	var req procurementapp.FinalizeSplitWinnersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	operatorID, err := getOperatorID(c)
	if err != nil {
		h.Unauthorized(c, "Operator identity required to finalize")
		return
	}
	req.FinalizedBy = operatorID

	result, err := h.finalizeService.FinalizeSplitWinners(c.Request.Context(), rfqID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// toFilter converts list query parameters to a repository filter
func toFilter(req dto.ListRequest) shared.Filter {
	filter := shared.DefaultFilter()
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	filter.Search = req.Search
	return filter
}
