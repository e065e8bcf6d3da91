package telemetry

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks the sourcing funnel: rounds published, offers
// received, rounds finalized and orders materialized from awards.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	rfqPublishedTotal   *Counter
	offerSubmittedTotal *Counter
	rfqFinalizedTotal   *Counter
	orderCreatedTotal   *Counter
	orderAmountTotal    *FloatCounter
	ordersPerFinalize   *Histogram
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, fmt.Errorf("meter cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  meter,
		logger: logger,
	}

	var err error
	bm.rfqPublishedTotal, err = NewCounter(
		meter,
		"procura_rfq_published_total",
		"Total number of bidding rounds opened",
		"{rounds}",
	)
	if err != nil {
		return nil, err
	}

	bm.offerSubmittedTotal, err = NewCounter(
		meter,
		"procura_offer_submitted_total",
		"Total number of supplier offers received",
		"{offers}",
	)
	if err != nil {
		return nil, err
	}

	bm.rfqFinalizedTotal, err = NewCounter(
		meter,
		"procura_rfq_finalized_total",
		"Total number of bidding rounds finalized",
		"{rounds}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderCreatedTotal, err = NewCounter(
		meter,
		"procura_order_created_total",
		"Total number of purchase orders materialized from awards",
		"{orders}",
	)
	if err != nil {
		return nil, err
	}

	bm.orderAmountTotal, err = NewFloatCounter(
		meter,
		"procura_order_amount_total",
		"Total awarded order amount",
		"{amount}",
	)
	if err != nil {
		return nil, err
	}

	bm.ordersPerFinalize, err = NewHistogram(meter, HistogramOpts{
		Name:        "procura_orders_per_finalize",
		Description: "Distribution of orders created per finalize",
		Unit:        "{orders}",
		Boundaries:  []float64{1, 2, 3, 5, 8, 13},
	})
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordRfqPublished records a round being opened for bidding.
func (bm *BusinessMetrics) RecordRfqPublished(ctx context.Context) {
	bm.rfqPublishedTotal.Inc(ctx)
}

// RecordOfferSubmitted records a supplier offer being received.
func (bm *BusinessMetrics) RecordOfferSubmitted(ctx context.Context) {
	bm.offerSubmittedTotal.Inc(ctx)
}

// RecordOrderCreated records a purchase order materialized from an award.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, amount decimal.Decimal) {
	bm.orderCreatedTotal.Inc(ctx)

	f, _ := amount.Float64()
	bm.orderAmountTotal.Add(ctx, f)
}

// RecordRfqFinalized records a completed finalize and the number of orders
// it produced.
func (bm *BusinessMetrics) RecordRfqFinalized(ctx context.Context, orderCount int) {
	bm.rfqFinalizedTotal.Inc(ctx)
	bm.ordersPerFinalize.Record(ctx, float64(orderCount))
}
