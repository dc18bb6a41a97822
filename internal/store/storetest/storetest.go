// Package storetest holds the behaviour every store.Backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/core"
	"budgeteer/internal/store"
)

func monthDoc(user, month string, assigned int64) store.MonthDocument {
	return store.MonthDocument{
		UserID: user,
		Month:  month,
		Data: store.MonthData{Categories: []store.CategoryDocument{{
			ID:   "g1",
			Name: "Bills",
			CategoryItems: []store.ItemDocument{{
				ID:        "i1",
				Name:      "Rent",
				Assigned:  core.Dollars(assigned),
				Available: core.Dollars(assigned),
			}},
		}}},
		AssignableMoney: core.Dollars(1000),
		ReadyToAssign:   core.Dollars(1000 - assigned),
		UpdatedAt:       time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// Run exercises a backend created fresh by newBackend.
func Run(t *testing.T, newBackend func(t *testing.T) store.Backend) {
	t.Run("months upsert by user and month", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)

		_, err := b.LoadMonth(ctx, "u1", "2025-01")
		require.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, b.UpsertMonth(ctx, monthDoc("u1", "2025-02", 100)))
		require.NoError(t, b.UpsertMonth(ctx, monthDoc("u1", "2025-01", 100)))
		require.NoError(t, b.UpsertMonth(ctx, monthDoc("u1", "2025-01", 250)))
		require.NoError(t, b.UpsertMonth(ctx, monthDoc("u2", "2025-01", 5)))

		doc, err := b.LoadMonth(ctx, "u1", "2025-01")
		require.NoError(t, err)
		assert.Equal(t, monthDoc("u1", "2025-01", 250), doc)

		docs, err := b.LoadMonths(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "2025-01", docs[0].Month)
		assert.Equal(t, "2025-02", docs[1].Month)
	})

	t.Run("accounts", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		checking := store.AccountRecord{ID: "a1", UserID: "u1", Name: "Checking", Type: "debit", Balance: core.Dollars(10), CreatedAt: created}
		visa := store.AccountRecord{ID: "a2", UserID: "u1", Name: "Visa", Issuer: "Bank", Type: "credit", CreatedAt: created.Add(time.Hour)}

		require.NoError(t, b.UpsertAccount(ctx, visa))
		require.NoError(t, b.UpsertAccount(ctx, checking))
		checking.Balance = core.Dollars(20)
		require.NoError(t, b.UpsertAccount(ctx, checking))

		got, err := b.ListAccounts(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []store.AccountRecord{checking, visa}, got)

		require.NoError(t, b.DeleteAccount(ctx, "u1", "a2"))
		got, err = b.ListAccounts(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []store.AccountRecord{checking}, got)

		got, err = b.ListAccounts(ctx, "u2")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("transactions", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		out := store.TransactionRecord{
			ID: "t2", UserID: "u1", AccountID: "a1", Date: "2025-01-05",
			Payee: "Transfer : Savings", Amount: core.Dollars(-30), Kind: "transfer", MirrorID: "m1",
		}
		in := out
		in.ID, in.AccountID, in.Payee, in.Amount = "t3", "a2", "Transfer : Checking", core.Dollars(30)
		rent := store.TransactionRecord{
			ID: "t1", UserID: "u1", AccountID: "a1", Date: "2025-01-03", Payee: "Landlord",
			CategoryGroup: "Bills", CategoryItem: "Rent", Amount: core.Cents(-50012), Kind: "regular", Memo: "jan",
		}
		for _, rec := range []store.TransactionRecord{out, in, rent} {
			require.NoError(t, b.UpsertTransaction(ctx, rec))
		}

		got, err := b.ListTransactions(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []store.TransactionRecord{rent, out, in}, got)

		require.NoError(t, b.DeleteTransaction(ctx, "u1", "t2"))
		require.NoError(t, b.DeleteTransaction(ctx, "u1", "t3"))
		require.NoError(t, b.DeleteTransaction(ctx, "u1", "missing"))
		got, err = b.ListTransactions(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []store.TransactionRecord{rent}, got)
	})
	t.Run("batch", func(t *testing.T) {
		ctx := context.Background()
		b := newBackend(t)
		write := func(batch store.Batch) error {
			if bw, ok := b.(store.BatchWriter); ok {
				return bw.WriteBatch(ctx, batch)
			}
			return store.WriteEach(ctx, b, batch)
		}
		created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		checking := store.AccountRecord{ID: "a1", UserID: "u1", Name: "Checking", Type: "debit", CreatedAt: created}
		out := store.TransactionRecord{
			ID: "t1", UserID: "u1", AccountID: "a1", Date: "2025-01-05",
			Payee: "Transfer : Savings", Amount: core.Dollars(-30), Kind: "transfer", MirrorID: "m1",
		}
		in := out
		in.ID, in.AccountID, in.Payee, in.Amount = "t2", "a2", "Transfer : Checking", core.Dollars(30)

		require.NoError(t, write(store.Batch{
			UserID:       "u1",
			Months:       []store.MonthDocument{monthDoc("u1", "2025-01", 100)},
			Accounts:     []store.AccountRecord{checking},
			Transactions: []store.TransactionRecord{out, in},
		}))
		doc, err := b.LoadMonth(ctx, "u1", "2025-01")
		require.NoError(t, err)
		assert.Equal(t, monthDoc("u1", "2025-01", 100), doc)
		txns, err := b.ListTransactions(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []store.TransactionRecord{out, in}, txns)

		require.NoError(t, write(store.Batch{
			UserID:              "u1",
			RemovedAccounts:     []string{"a1"},
			RemovedTransactions: []string{"t1", "t2"},
		}))
		txns, err = b.ListTransactions(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, txns)
		accounts, err := b.ListAccounts(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})
}
