package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/trade"
)

// CancelPurchaseOrderRequest represents a request to cancel an order
type CancelPurchaseOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// PurchaseOrderItemResponse represents an order line item in API responses
type PurchaseOrderItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	RfqLineItemID uuid.UUID       `json:"rfq_line_item_id"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
	Brand         string          `json:"brand,omitempty"`
	Remark        string          `json:"remark,omitempty"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID            uuid.UUID                   `json:"id"`
	OrderNumber   string                      `json:"order_number"`
	SupplierID    uuid.UUID                   `json:"supplier_id"`
	SupplierName  string                      `json:"supplier_name"`
	SourceRfqID   uuid.UUID                   `json:"source_rfq_id"`
	SourceOfferID uuid.UUID                   `json:"source_offer_id"`
	Status        string                      `json:"status"`
	Currency      string                      `json:"currency"`
	TotalAmount   decimal.Decimal             `json:"total_amount"`
	OrderDate     time.Time                   `json:"order_date"`
	Remark        string                      `json:"remark,omitempty"`
	Items         []PurchaseOrderItemResponse `json:"items"`
	ItemCount     int                         `json:"item_count"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	Version       int                         `json:"version"`
}

// PurchaseOrderListResponse is a paginated list of purchase orders
type PurchaseOrderListResponse struct {
	Items      []PurchaseOrderResponse `json:"items"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalPages int                     `json:"total_pages"`
}

// ToPurchaseOrderResponse converts a domain order to its response
func ToPurchaseOrderResponse(order *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(order.Items))
	for idx := range order.Items {
		item := &order.Items[idx]
		items = append(items, PurchaseOrderItemResponse{
			ID:            item.ID,
			RfqLineItemID: item.RfqLineItemID,
			Name:          item.Name,
			Quantity:      item.Quantity,
			Unit:          item.Unit,
			UnitPrice:     item.UnitPrice,
			Amount:        item.Amount,
			Brand:         item.Brand,
			Remark:        item.Remark,
		})
	}
	return PurchaseOrderResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		SupplierID:    order.SupplierID,
		SupplierName:  order.SupplierName,
		SourceRfqID:   order.SourceRfqID,
		SourceOfferID: order.SourceOfferID,
		Status:        order.Status.String(),
		Currency:      order.Currency.String(),
		TotalAmount:   order.TotalAmount,
		OrderDate:     order.OrderDate,
		Remark:        order.Remark,
		Items:         items,
		ItemCount:     order.ItemCount(),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Version:       order.Version,
	}
}
