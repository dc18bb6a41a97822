package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/cache"
	"budgeteer/internal/core"
	"budgeteer/internal/store"
	"budgeteer/internal/store/memory"
	"budgeteer/internal/store/storetest"
)

type countingBackend struct {
	store.Backend
	loads   int
	failing bool
}

func (c *countingBackend) LoadMonth(ctx context.Context, userID, month string) (store.MonthDocument, error) {
	c.loads++
	return c.Backend.LoadMonth(ctx, userID, month)
}

func (c *countingBackend) UpsertMonth(ctx context.Context, doc store.MonthDocument) error {
	if c.failing {
		return errors.New("disk full")
	}
	return c.Backend.UpsertMonth(ctx, doc)
}

func newCached() (*CachingBackend, *countingBackend) {
	inner := &countingBackend{Backend: memory.New()}
	return NewCachingBackend(inner, cache.NewLRUCache[store.MonthDocument](8, time.Hour)), inner
}

func TestCachingBackendContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend { b, _ := newCached(); return b })
}

func TestLoadMonthIsCached(t *testing.T) {
	ctx := context.Background()
	b, inner := newCached()
	doc := store.MonthDocument{UserID: "u1", Month: "2025-01", Data: store.MonthData{Categories: []store.CategoryDocument{
		{Name: "Bills", CategoryItems: []store.ItemDocument{{Name: "Rent", Assigned: core.Dollars(5)}}},
	}}}
	require.NoError(t, b.UpsertMonth(ctx, doc))

	got, err := b.LoadMonth(ctx, "u1", "2025-01")
	require.NoError(t, err)
	got.Data.Categories[0].CategoryItems[0].Assigned = core.Dollars(99)

	again, err := b.LoadMonth(ctx, "u1", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(5), again.Data.Categories[0].CategoryItems[0].Assigned)
	assert.Zero(t, inner.loads, "served from the write-through cache")

	_, err = b.LoadMonth(ctx, "u1", "2025-02")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 1, inner.loads)
}

func TestFailedUpsertInvalidates(t *testing.T) {
	ctx := context.Background()
	b, inner := newCached()
	require.NoError(t, b.UpsertMonth(ctx, store.MonthDocument{UserID: "u1", Month: "2025-01", ReadyToAssign: core.Dollars(1)}))

	inner.failing = true
	require.Error(t, b.UpsertMonth(ctx, store.MonthDocument{UserID: "u1", Month: "2025-01", ReadyToAssign: core.Dollars(2)}))

	got, err := b.LoadMonth(ctx, "u1", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(1), got.ReadyToAssign)
	assert.Equal(t, 1, inner.loads)
}

func TestWriteBatchRefreshesCache(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	b := NewCachingBackend(inner, cache.NewLRUCache[store.MonthDocument](8, time.Hour))
	require.NoError(t, b.UpsertMonth(ctx, store.MonthDocument{UserID: "u1", Month: "2025-01", ReadyToAssign: core.Dollars(1)}))

	require.NoError(t, b.WriteBatch(ctx, store.Batch{
		UserID: "u1",
		Months: []store.MonthDocument{{UserID: "u1", Month: "2025-01", ReadyToAssign: core.Dollars(7)}},
	}))
	got, err := b.LoadMonth(ctx, "u1", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(7), got.ReadyToAssign)
}

func TestWriteBatchFallsBackToSingleWrites(t *testing.T) {
	ctx := context.Background()
	b, inner := newCached()
	inner.failing = true
	err := b.WriteBatch(ctx, store.Batch{
		UserID: "u1",
		Months: []store.MonthDocument{{UserID: "u1", Month: "2025-01"}},
	})
	require.Error(t, err)

	inner.failing = false
	require.NoError(t, b.WriteBatch(ctx, store.Batch{
		UserID: "u1",
		Months: []store.MonthDocument{{UserID: "u1", Month: "2025-01", ReadyToAssign: core.Dollars(3)}},
	}))
	got, err := b.LoadMonth(ctx, "u1", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(3), got.ReadyToAssign)
	assert.Zero(t, inner.loads)
}
