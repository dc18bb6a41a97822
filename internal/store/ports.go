// Package store defines the persistence ports of the budget engine and the
// document shapes exchanged with them. The engine treats storage as a
// key-value document store keyed by user and month.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups of a single record.
var ErrNotFound = errors.New("record not found")

// Ports for outbound adapters.
type (
	MonthStore interface {
		// LoadMonth returns the document stored for (userID, month).
		LoadMonth(ctx context.Context, userID, month string) (MonthDocument, error)
		// LoadMonths returns every month document of the user, oldest first.
		LoadMonths(ctx context.Context, userID string) ([]MonthDocument, error)
		// UpsertMonth writes the document keyed on (user_id, month).
		UpsertMonth(ctx context.Context, doc MonthDocument) error
	}

	AccountStore interface {
		ListAccounts(ctx context.Context, userID string) ([]AccountRecord, error)
		UpsertAccount(ctx context.Context, rec AccountRecord) error
		DeleteAccount(ctx context.Context, userID, id string) error
	}

	TransactionStore interface {
		ListTransactions(ctx context.Context, userID string) ([]TransactionRecord, error)
		UpsertTransaction(ctx context.Context, rec TransactionRecord) error
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	// Backend is everything a budget session needs from storage.
	Backend interface {
		MonthStore
		AccountStore
		TransactionStore
		Close() error
	}
)
