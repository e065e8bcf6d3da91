package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	partnerapp "github.com/procura/backend/internal/application/partner"
	"github.com/procura/backend/internal/interfaces/http/dto"
)

// SupplierHandler handles supplier directory API endpoints
type SupplierHandler struct {
	BaseHandler
	supplierService *partnerapp.SupplierService
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(supplierService *partnerapp.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

// RegisterRoutes registers supplier directory routes
func (h *SupplierHandler) RegisterRoutes(rg *gin.RouterGroup) {
	suppliers := rg.Group("/partners/suppliers")
	{
		suppliers.POST("", h.Create)
		suppliers.GET("", h.List)
		suppliers.GET("/:id", h.GetByID)
		suppliers.PUT("/:id", h.Update)
		suppliers.POST("/:id/activate", h.Activate)
		suppliers.POST("/:id/deactivate", h.Deactivate)
	}
}

// Create registers a new supplier
func (h *SupplierHandler) Create(c *gin.Context) {
	var req partnerapp.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	supplier, err := h.supplierService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, supplier)
}

// GetByID retrieves a supplier by ID
func (h *SupplierHandler) GetByID(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID format")
		return
	}

	supplier, err := h.supplierService.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, supplier)
}

// List retrieves a paginated list of suppliers
func (h *SupplierHandler) List(c *gin.Context) {
	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	activeOnly := c.Query("active_only") == "true"

	result, err := h.supplierService.List(c.Request.Context(), toFilter(listReq), activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update changes a supplier's directory fields
func (h *SupplierHandler) Update(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID format")
		return
	}

	var req partnerapp.UpdateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	supplier, err := h.supplierService.Update(c.Request.Context(), supplierID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, supplier)
}

// Activate marks a supplier as eligible for new bidding rounds
func (h *SupplierHandler) Activate(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID format")
		return
	}

	supplier, err := h.supplierService.Activate(c.Request.Context(), supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, supplier)
}

// Deactivate excludes a supplier from new bidding rounds
func (h *SupplierHandler) Deactivate(c *gin.Context) {
	supplierID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID format")
		return
	}

	supplier, err := h.supplierService.Deactivate(c.Request.Context(), supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, supplier)
}
