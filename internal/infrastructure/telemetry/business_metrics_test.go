package telemetry_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/infrastructure/telemetry"
)

func TestNewBusinessMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	bm, err := telemetry.NewBusinessMetrics(meter, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, bm)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(nil, zap.NewNop())
	require.Error(t, err)
	assert.Nil(t, bm)
}

func TestBusinessMetrics_Record(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(meter, nil)
	require.NoError(t, err)

	ctx := context.Background()

	// recording must never panic, even against a no-op meter
	bm.RecordRfqPublished(ctx)
	bm.RecordOfferSubmitted(ctx)
	bm.RecordOrderCreated(ctx, decimal.NewFromFloat(1999.90))
	bm.RecordRfqFinalized(ctx, 3)
}

func TestMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled: false,
	}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(context.Background()))
	assert.NoError(t, mp.Shutdown(context.Background()))
}
