// Package memory is an in-process document store. Documents are kept in
// encoded form so callers never share slices with the store.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"budgeteer/internal/store"
)

// Store is a store.Backend held in process memory.
type Store struct {
	mu       sync.Mutex
	months   map[string]map[string][]byte // user -> month -> document
	accounts map[string]map[string]store.AccountRecord
	txns     map[string]map[string]store.TransactionRecord
}

// New returns an empty store.
func New() *Store {
	return &Store{
		months:   make(map[string]map[string][]byte),
		accounts: make(map[string]map[string]store.AccountRecord),
		txns:     make(map[string]map[string]store.TransactionRecord),
	}
}

func (s *Store) LoadMonth(_ context.Context, userID, month string) (store.MonthDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.months[userID][month]
	if !ok {
		return store.MonthDocument{}, fmt.Errorf("month %s: %w", month, store.ErrNotFound)
	}
	var doc store.MonthDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return store.MonthDocument{}, fmt.Errorf("decode month %s: %w", month, err)
	}
	return doc, nil
}

func (s *Store) LoadMonths(ctx context.Context, userID string) ([]store.MonthDocument, error) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.months[userID]))
	for k := range s.months[userID] {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	sort.Strings(keys)
	out := make([]store.MonthDocument, 0, len(keys))
	for _, k := range keys {
		doc, err := s.LoadMonth(ctx, userID, k)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *Store) UpsertMonth(_ context.Context, doc store.MonthDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode month %s: %w", doc.Month, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.months[doc.UserID] == nil {
		s.months[doc.UserID] = make(map[string][]byte)
	}
	s.months[doc.UserID][doc.Month] = raw
	return nil
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]store.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AccountRecord, 0, len(s.accounts[userID]))
	for _, a := range s.accounts[userID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpsertAccount(_ context.Context, rec store.AccountRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accounts[rec.UserID] == nil {
		s.accounts[rec.UserID] = make(map[string]store.AccountRecord)
	}
	s.accounts[rec.UserID][rec.ID] = rec
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts[userID], id)
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]store.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.TransactionRecord, 0, len(s.txns[userID]))
	for _, t := range s.txns[userID] {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpsertTransaction(_ context.Context, rec store.TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.txns[rec.UserID] == nil {
		s.txns[rec.UserID] = make(map[string]store.TransactionRecord)
	}
	s.txns[rec.UserID][rec.ID] = rec
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.txns[userID], id)
	return nil
}

// WriteBatch applies b under one lock, so readers never see half of it.
func (s *Store) WriteBatch(_ context.Context, b store.Batch) error {
	raws := make([][]byte, len(b.Months))
	for i, doc := range b.Months {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode month %s: %w", doc.Month, err)
		}
		raws[i] = raw
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range b.Months {
		if s.months[doc.UserID] == nil {
			s.months[doc.UserID] = make(map[string][]byte)
		}
		s.months[doc.UserID][doc.Month] = raws[i]
	}
	for _, rec := range b.Accounts {
		if s.accounts[rec.UserID] == nil {
			s.accounts[rec.UserID] = make(map[string]store.AccountRecord)
		}
		s.accounts[rec.UserID][rec.ID] = rec
	}
	for _, rec := range b.Transactions {
		if s.txns[rec.UserID] == nil {
			s.txns[rec.UserID] = make(map[string]store.TransactionRecord)
		}
		s.txns[rec.UserID][rec.ID] = rec
	}
	for _, id := range b.RemovedTransactions {
		delete(s.txns[b.UserID], id)
	}
	for _, id := range b.RemovedAccounts {
		delete(s.accounts[b.UserID], id)
	}
	return nil
}

func (s *Store) Close() error { return nil }

var (
	_ store.Backend     = (*Store)(nil)
	_ store.BatchWriter = (*Store)(nil)
)
