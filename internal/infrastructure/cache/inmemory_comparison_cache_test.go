package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procura/backend/internal/domain/procurement"
)

func testComparison(t *testing.T) *procurement.Comparison {
	rfq, err := procurement.NewRfq("RFQ-2026-00001", "Cache test", nil)
	require.NoError(t, err)
	_, err = rfq.AddLineItem("Laptop", "pcs", decimal.NewFromInt(5))
	require.NoError(t, err)
	_, err = rfq.AddParticipant(uuid.New(), "Acme", "")
	require.NoError(t, err)
	require.NoError(t, rfq.Publish())

	comparison, err := procurement.BuildComparison(rfq)
	require.NoError(t, err)
	return comparison
}

func TestInMemoryComparisonCache_SetGet(t *testing.T) {
	c := NewInMemoryComparisonCache(time.Minute)
	ctx := context.Background()
	comparison := testComparison(t)

	got, err := c.Get(ctx, comparison.RfqID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, comparison))

	got, err = c.Get(ctx, comparison.RfqID)
	require.NoError(t, err)
	assert.Same(t, comparison, got)
}

func TestInMemoryComparisonCache_Expiry(t *testing.T) {
	c := NewInMemoryComparisonCache(time.Minute)
	ctx := context.Background()
	comparison := testComparison(t)

	require.NoError(t, c.Set(ctx, comparison))
	c.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	got, err := c.Get(ctx, comparison.RfqID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, c.Len())
}

func TestInMemoryComparisonCache_Invalidate(t *testing.T) {
	c := NewInMemoryComparisonCache(time.Minute)
	ctx := context.Background()
	comparison := testComparison(t)

	require.NoError(t, c.Set(ctx, comparison))
	require.NoError(t, c.Invalidate(ctx, comparison.RfqID))

	got, err := c.Get(ctx, comparison.RfqID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInMemoryComparisonCache_DefaultTTL(t *testing.T) {
	c := NewInMemoryComparisonCache(0)
	assert.Equal(t, defaultComparisonTTL, c.ttl)
}
