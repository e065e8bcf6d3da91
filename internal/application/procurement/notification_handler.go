package procurement

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// Notification is an outbound message to an external channel
type Notification struct {
	Topic   string
	Subject string
	Body    string
	Meta    map[string]string
}

// NotificationDispatcher delivers notifications to external channels (mail,
// webhooks). Delivery is best-effort and happens after the triggering
// transaction has committed.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, notification Notification) error
}

// FinalizeNotificationHandler notifies collaborators when a round is awarded
// or published. Delivery failures are logged and swallowed; they can never
// undo a committed award.
type FinalizeNotificationHandler struct {
	dispatcher NotificationDispatcher
	logger     *zap.Logger
}

// NewFinalizeNotificationHandler creates a new notification handler
func NewFinalizeNotificationHandler(dispatcher NotificationDispatcher, logger *zap.Logger) *FinalizeNotificationHandler {
	return &FinalizeNotificationHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *FinalizeNotificationHandler) EventTypes() []string {
	return []string{
		procurement.EventTypeRfqPublished,
		procurement.EventTypeRfqFinalized,
	}
}

// Handle dispatches notifications for a single event
func (h *FinalizeNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var notifications []Notification

	switch e := event.(type) {
	case *procurement.RfqPublishedEvent:
		notifications = append(notifications, Notification{
			Topic:   "rfq.published",
			Subject: fmt.Sprintf("Bidding round %s is open", e.Code),
			Body:    fmt.Sprintf("%s: %d line items, %d suppliers invited", e.Title, e.LineItemCount, e.ParticipantCount),
			Meta:    map[string]string{"rfq_id": e.RfqID.String()},
		})
	case *procurement.RfqFinalizedEvent:
		notifications = append(notifications, Notification{
			Topic:   "rfq.finalized",
			Subject: fmt.Sprintf("Bidding round %s has been awarded", e.Code),
			Body:    fmt.Sprintf("%d order(s) created", len(e.Orders)),
			Meta:    map[string]string{"rfq_id": e.RfqID.String()},
		})
		for _, order := range e.Orders {
			notifications = append(notifications, Notification{
				Topic:   "order.created",
				Subject: fmt.Sprintf("Order %s created for %s", order.OrderNumber, order.SupplierName),
				Body:    fmt.Sprintf("%d item(s), total %s", order.ItemCount, order.TotalAmount.String()),
				Meta: map[string]string{
					"order_id":    order.OrderID.String(),
					"supplier_id": order.SupplierID.String(),
				},
			})
		}
	default:
		return nil
	}

	for _, n := range notifications {
		if err := h.dispatcher.Dispatch(ctx, n); err != nil {
			h.logger.Warn("notification delivery failed",
				zap.String("topic", n.Topic),
				zap.String("subject", n.Subject),
				zap.Error(err))
		}
	}
	return nil
}
