package budget

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"budgeteer/internal/core"
	"budgeteer/internal/history"
)

var (
	dec = core.MustMonth("2024-12")
	jan = core.MustMonth("2025-01")
	feb = core.MustMonth("2025-02")
	mar = core.MustMonth("2025-03")
)

type fixture struct {
	t        *testing.T
	e        *Engine
	checking core.AccountID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := 0
	e := NewEngine(NewLedger(), history.New[Op](),
		WithIDs(func() string { n++; return fmt.Sprintf("id-%03d", n) }),
		WithClock(func() time.Time { return time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC) }),
	)
	checking, err := e.CreateAccount("Checking", core.Debit, core.Money{})
	require.NoError(t, err)
	return &fixture{t: t, e: e, checking: checking}
}

func (f *fixture) group(m core.Month, name string) core.GroupID {
	f.t.Helper()
	id, err := f.e.CreateGroup(m, name)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) item(m core.Month, g core.GroupID, name string) core.ItemID {
	f.t.Helper()
	id, err := f.e.CreateItem(m, g, name)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) assign(m core.Month, id core.ItemID, dollars int64) {
	f.t.Helper()
	require.NoError(f.t, f.e.SetAssigned(m, id, core.Dollars(dollars)))
}

func (f *fixture) income(m core.Month, dollars int64) core.TxID {
	f.t.Helper()
	id, err := f.e.PostTransaction(TransactionInput{
		AccountID: f.checking,
		Date:      core.NewDate(m.Year(), int(m.Month()), 1),
		Payee:     "Employer",
		Group:     core.ReadyToAssign,
		Amount:    core.Dollars(dollars),
	})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) spend(m core.Month, account core.AccountID, group, item string, dollars int64) core.TxID {
	f.t.Helper()
	id, err := f.e.PostTransaction(TransactionInput{
		AccountID: account,
		Date:      core.NewDate(m.Year(), int(m.Month()), 10),
		Payee:     "Shop",
		Group:     group,
		Item:      item,
		Amount:    core.Dollars(-dollars),
	})
	require.NoError(f.t, err)
	return id
}

func (f *fixture) itemIn(m core.Month, id core.ItemID) *Item {
	f.t.Helper()
	it, _ := f.e.Month(m).Item(id)
	require.NotNil(f.t, it, "item %s in %s", id, m)
	return it
}

func (f *fixture) rta(m core.Month) core.Money {
	return f.e.ReadyToAssign(m)
}

// checkInvariants verifies the ledger-wide laws after an operation.
func (f *fixture) checkInvariants() {
	f.t.Helper()
	l := f.e.ledger
	var prevRTA core.Money
	for _, m := range l.Months() {
		mb := l.months[m]
		require.NoError(f.t, mb.ComputeErr)

		var assigned, income core.Money
		activity := make(map[core.ItemID]core.Money)
		for id := range l.byMonth[m] {
			tx := l.txns[id]
			if tx.IsIncome() {
				income = income.Add(tx.Amount)
			} else if tx.Kind != core.Transfer && tx.Categorized() {
				if it := mb.Lookup(tx.Group, tx.Item); it != nil {
					activity[it.ID] = activity[it.ID].Add(tx.Amount)
				}
			}
		}
		mb.each(func(_ *Group, it *Item) {
			require.Equal(f.t, it.CarryIn.Add(it.Assigned).Add(it.Activity), it.Available, "%s %s", m, it.Name)
			require.Equal(f.t, activity[it.ID], it.Activity, "%s %s activity", m, it.Name)
			assigned = assigned.Add(it.Assigned)
		})
		require.Equal(f.t, prevRTA.Add(income).Sub(assigned), mb.ReadyToAssign, "RTA of %s", m)
		prevRTA = mb.ReadyToAssign
	}

	balances := make(map[core.AccountID]core.Money)
	for _, tx := range l.txns {
		balances[tx.AccountID] = balances[tx.AccountID].Add(tx.Amount)
	}
	for _, a := range l.Accounts() {
		require.Equal(f.t, balances[a.ID], a.Balance, "balance of %s", a.Name)
	}
	require.NoError(f.t, l.CheckMirrors())
}
