// Package adapters decorates store backends.
package adapters

import (
	"context"

	"budgeteer/internal/cache"
	"budgeteer/internal/store"
)

// CachingBackend serves LoadMonth from an LRU cache and keeps it current on
// writes. Everything else goes straight to the wrapped backend.
type CachingBackend struct {
	store.Backend
	months cache.Cache[store.MonthDocument]
}

// NewCachingBackend wraps b with a month document cache.
func NewCachingBackend(b store.Backend, months cache.Cache[store.MonthDocument]) *CachingBackend {
	return &CachingBackend{Backend: b, months: months}
}

func monthKey(userID, month string) string { return userID + "\x00" + month }

func (c *CachingBackend) LoadMonth(ctx context.Context, userID, month string) (store.MonthDocument, error) {
	if doc, ok := c.months.Get(monthKey(userID, month)); ok {
		return doc.Clone(), nil
	}
	doc, err := c.Backend.LoadMonth(ctx, userID, month)
	if err != nil {
		return store.MonthDocument{}, err
	}
	c.months.Set(monthKey(userID, month), doc.Clone())
	return doc, nil
}

func (c *CachingBackend) LoadMonths(ctx context.Context, userID string) ([]store.MonthDocument, error) {
	docs, err := c.Backend.LoadMonths(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		c.months.Set(monthKey(userID, doc.Month), doc.Clone())
	}
	return docs, nil
}

func (c *CachingBackend) UpsertMonth(ctx context.Context, doc store.MonthDocument) error {
	key := monthKey(doc.UserID, doc.Month)
	if err := c.Backend.UpsertMonth(ctx, doc); err != nil {
		c.months.Delete(key)
		return err
	}
	c.months.Set(key, doc.Clone())
	return nil
}

// WriteBatch forwards b to the wrapped backend, atomically when it
// supports batches, and refreshes the cached months afterwards.
func (c *CachingBackend) WriteBatch(ctx context.Context, b store.Batch) error {
	bw, ok := c.Backend.(store.BatchWriter)
	if !ok {
		return store.WriteEach(ctx, c, b)
	}
	if err := bw.WriteBatch(ctx, b); err != nil {
		for _, doc := range b.Months {
			c.months.Delete(monthKey(doc.UserID, doc.Month))
		}
		return err
	}
	for _, doc := range b.Months {
		c.months.Set(monthKey(doc.UserID, doc.Month), doc.Clone())
	}
	return nil
}

var (
	_ store.Backend     = (*CachingBackend)(nil)
	_ store.BatchWriter = (*CachingBackend)(nil)
)
