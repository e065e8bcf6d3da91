package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	tradeapp "github.com/procura/backend/internal/application/trade"
	"github.com/procura/backend/internal/interfaces/http/dto"
)

// PurchaseOrderHandler handles purchase order API endpoints. Orders are
// created exclusively by finalizing a bidding round; these routes read and
// manage the materialized results.
type PurchaseOrderHandler struct {
	BaseHandler
	orderService *tradeapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService *tradeapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

// RegisterRoutes registers purchase order routes
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/trade/purchase-orders")
	{
		orders.GET("", h.List)
		orders.GET("/:id", h.GetByID)
		orders.GET("/number/:orderNumber", h.GetByOrderNumber)
		orders.POST("/:id/confirm", h.Confirm)
		orders.POST("/:id/cancel", h.Cancel)
	}
}

// GetByID retrieves a purchase order by ID
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByOrderNumber retrieves a purchase order by its order number
func (h *PurchaseOrderHandler) GetByOrderNumber(c *gin.Context) {
	orderNumber := c.Param("orderNumber")
	if orderNumber == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	order, err := h.orderService.GetByOrderNumber(c.Request.Context(), orderNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// List retrieves a paginated list of purchase orders. Optional query filters:
// supplier_id and source_rfq_id (the latter returns the unpaginated award set).
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	if raw := c.Query("source_rfq_id"); raw != "" {
		rfqID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid source RFQ ID format")
			return
		}
		orders, err := h.orderService.ListBySourceRfq(c.Request.Context(), rfqID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, orders)
		return
	}

	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var supplierID *uuid.UUID
	if raw := c.Query("supplier_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid supplier ID format")
			return
		}
		supplierID = &parsed
	}

	result, err := h.orderService.List(c.Request.Context(), toFilter(listReq), supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Confirm moves an order to CONFIRMED
func (h *PurchaseOrderHandler) Confirm(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.Confirm(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Cancel cancels a not-yet-confirmed order
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req tradeapp.CancelPurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}
