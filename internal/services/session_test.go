package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/amqp"
	"budgeteer/internal/budget"
	"budgeteer/internal/core"
	"budgeteer/internal/store"
	"budgeteer/internal/store/memory"
)

var (
	jan = core.MustMonth("2025-01")
	feb = core.MustMonth("2025-02")
)

func open(t *testing.T, b store.Backend, opts ...SessionOption) *Session {
	t.Helper()
	clock := budget.WithClock(func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) })
	s, err := Open(context.Background(), b, "u1", append(opts, WithEngineOptions(clock))...)
	require.NoError(t, err)
	return s
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.MonthChangedMessage
	err  error
}

func (p *recordingPublisher) PublishMonthChanged(_ context.Context, msg *amqp.MonthChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

type flakyStore struct {
	store.Backend
	fail bool
}

func (f *flakyStore) UpsertMonth(ctx context.Context, doc store.MonthDocument) error {
	if f.fail {
		return errors.New("database is locked")
	}
	return f.Backend.UpsertMonth(ctx, doc)
}

type batchStore struct {
	*memory.Store
	batches []store.Batch
	fail    bool
}

func (b *batchStore) WriteBatch(ctx context.Context, batch store.Batch) error {
	if b.fail {
		return errors.New("database is locked")
	}
	b.batches = append(b.batches, batch)
	return b.Store.WriteBatch(ctx, batch)
}

// seed builds a small budget through the session: income, rent and a
// transfer to savings.
func seed(t *testing.T, s *Session) (checking, savings core.AccountID) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Do(ctx, "seed", func(e *budget.Engine) error {
		var err error
		if checking, err = e.CreateAccount("Checking", core.Debit, core.Money{}); err != nil {
			return err
		}
		if savings, err = e.CreateAccount("Savings", core.Debit, core.Money{}); err != nil {
			return err
		}
		g, err := e.CreateGroup(jan, "Bills")
		if err != nil {
			return err
		}
		rent, err := e.CreateItem(jan, g, "Rent")
		if err != nil {
			return err
		}
		if _, err := e.PostTransaction(budget.TransactionInput{
			AccountID: checking, Date: core.NewDate(2025, 1, 1), Payee: "Employer",
			Group: core.ReadyToAssign, Amount: core.Dollars(3000),
		}); err != nil {
			return err
		}
		if err := e.SetAssigned(jan, rent, core.Dollars(1200)); err != nil {
			return err
		}
		if _, err := e.PostTransaction(budget.TransactionInput{
			AccountID: checking, Date: core.NewDate(2025, 2, 3), Payee: "Landlord",
			Group: "Bills", Item: "Rent", Amount: core.Dollars(-1100),
		}); err != nil {
			return err
		}
		_, err = e.Transfer(checking, savings, core.NewDate(2025, 2, 4), core.Dollars(500), "")
		return err
	}))
	return checking, savings
}

func TestSessionRoundTrip(t *testing.T) {
	b := memory.New()
	pub := &recordingPublisher{}

	s := open(t, b, WithPublisher(pub))
	seed(t, s)

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "u1", pub.msgs[0].UserID)
	assert.Equal(t, "seed", pub.msgs[0].Kind)
	assert.Equal(t, []string{"2025-01", "2025-02"}, pub.msgs[0].Months)

	reopened := open(t, b)
	for _, m := range []core.Month{jan, feb} {
		assert.Equal(t, s.Engine().Summary(m), reopened.Engine().Summary(m), m.String())
	}
	assert.Equal(t, s.Engine().Accounts(), reopened.Engine().Accounts())
	assert.False(t, reopened.Engine().CanUndo(), "history is per session")
}

func TestSessionPersistsDeletions(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	s := open(t, b)
	checking, _ := seed(t, s)

	transfers := s.Engine().Transactions(func(tx core.Transaction) bool {
		return tx.AccountID == checking && tx.IsMirrored()
	})
	require.Len(t, transfers, 1)
	require.NoError(t, s.Do(ctx, "delete-transactions", func(e *budget.Engine) error {
		return e.DeleteTransactions(transfers[0].ID)
	}))

	recs, err := b.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	require.NoError(t, s.Do(ctx, "undo", func(e *budget.Engine) error {
		_, err := e.Undo()
		return err
	}))
	recs, err = b.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, recs, 4)
}

func TestSessionRequeuesFailedCommit(t *testing.T) {
	ctx := context.Background()
	b := &flakyStore{Backend: memory.New()}
	s := open(t, b)
	seed(t, s)

	b.fail = true
	err := s.Do(ctx, "set-assigned", func(e *budget.Engine) error {
		it := e.Month(jan).Lookup("Bills", "Rent")
		return e.SetAssigned(jan, it.ID, core.Dollars(1000))
	})
	require.Error(t, err)

	doc, err := b.LoadMonth(ctx, "u1", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(1800), doc.ReadyToAssign, "stale until the retry")

	b.fail = false
	require.NoError(t, s.Commit(ctx, "retry"))
	doc, err = b.LoadMonth(ctx, "u1", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, core.Dollars(2000), doc.ReadyToAssign)
}

func TestSessionOperationErrorStillCommitsReads(t *testing.T) {
	ctx := context.Background()
	b := memory.New()
	s := open(t, b)
	seed(t, s)

	err := s.Do(ctx, "create-group", func(e *budget.Engine) error {
		e.Month(core.MustMonth("2025-04"))
		_, err := e.CreateGroup(jan, "Bills")
		return err
	})
	require.ErrorIs(t, err, core.ErrDuplicateName)

	docs, err := b.LoadMonths(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, docs, 4)
}

func TestPublishFailureDoesNotFailCommit(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("circuit breaker is open")}
	s := open(t, memory.New(), WithPublisher(pub))
	seed(t, s)
	assert.Len(t, pub.msgs, 1)
}

func TestCommitWritesOneBatch(t *testing.T) {
	ctx := context.Background()
	b := &batchStore{Store: memory.New()}
	s := open(t, b)
	checking, savings := seed(t, s)
	require.Len(t, b.batches, 1)

	b.fail = true
	err := s.Do(ctx, "transfer", func(e *budget.Engine) error {
		_, err := e.Transfer(checking, savings, core.NewDate(2025, 2, 9), core.Dollars(20), "")
		return err
	})
	require.Error(t, err)
	recs, err := b.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, recs, 4, "neither leg is stored")

	b.fail = false
	require.NoError(t, s.Commit(ctx, "retry"))
	require.Len(t, b.batches, 2)
	legs := b.batches[1].Transactions
	require.Len(t, legs, 2)
	assert.Equal(t, legs[0].MirrorID, legs[1].MirrorID)
	recs, err = b.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, recs, 6)
}

func TestPairLegsKeepsMirrorsTogether(t *testing.T) {
	recs := []store.TransactionRecord{
		{ID: "t1", MirrorID: "m1"},
		{ID: "t2"},
		{ID: "t3", MirrorID: "m2"},
		{ID: "t4", MirrorID: "m1"},
		{ID: "t5", MirrorID: "m2"},
	}
	groups := pairLegs(recs)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"t1", "t4"}, []string{groups[0][0].ID, groups[0][1].ID})
	assert.Equal(t, "t2", groups[1][0].ID)
	assert.Equal(t, []string{"t3", "t5"}, []string{groups[2][0].ID, groups[2][1].ID})
}
