package procurement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/trade"
)

// AuditEntry is one immutable audit trail record
type AuditEntry struct {
	Action      string
	AggregateID uuid.UUID
	Reference   string
	Detail      map[string]any
	OccurredAt  time.Time
}

// AuditRecorder persists audit trail records. Recording is best-effort:
// a failing recorder never affects the operation that produced the entry.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditTrailHandler writes one audit record per created order and one per
// round completion or cancellation.
type AuditTrailHandler struct {
	recorder AuditRecorder
	logger   *zap.Logger
}

// NewAuditTrailHandler creates a new audit trail handler
func NewAuditTrailHandler(recorder AuditRecorder, logger *zap.Logger) *AuditTrailHandler {
	return &AuditTrailHandler{
		recorder: recorder,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditTrailHandler) EventTypes() []string {
	return []string{
		procurement.EventTypeRfqFinalized,
		procurement.EventTypeRfqCancelled,
		trade.EventTypePurchaseOrderCreated,
	}
}

// Handle writes the audit records for a single event
func (h *AuditTrailHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var entries []AuditEntry

	switch e := event.(type) {
	case *procurement.RfqFinalizedEvent:
		entries = append(entries, AuditEntry{
			Action:      "rfq.completed",
			AggregateID: e.RfqID,
			Reference:   e.Code,
			Detail: map[string]any{
				"order_count":  len(e.Orders),
				"finalized_by": e.FinalizedBy.String(),
			},
			OccurredAt: e.OccurredAt(),
		})
	case *procurement.RfqCancelledEvent:
		entries = append(entries, AuditEntry{
			Action:      "rfq.cancelled",
			AggregateID: e.RfqID,
			Reference:   e.Code,
			Detail: map[string]any{
				"reason": e.Reason,
			},
			OccurredAt: e.OccurredAt(),
		})
	case *trade.PurchaseOrderCreatedEvent:
		entries = append(entries, AuditEntry{
			Action:      "order.created",
			AggregateID: e.AggregateID(),
			Reference:   e.OrderNumber,
			Detail: map[string]any{
				"supplier_id":   e.SupplierID.String(),
				"source_rfq_id": e.SourceRfqID.String(),
				"total_amount":  e.TotalAmount.String(),
				"currency":      e.Currency,
			},
			OccurredAt: e.OccurredAt(),
		})
	default:
		return nil
	}

	for _, entry := range entries {
		if err := h.recorder.Record(ctx, entry); err != nil {
			h.logger.Warn("audit record dropped",
				zap.String("action", entry.Action),
				zap.String("aggregate_id", entry.AggregateID.String()),
				zap.Error(err))
		}
	}
	return nil
}
