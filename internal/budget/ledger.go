package budget

import (
	"sort"

	"budgeteer/internal/core"
)

// Ledger holds the complete budget state of one user. Materialised months
// always form one contiguous range that covers every transaction date.
//
// A Ledger is not safe for concurrent use; the Engine serialises access.
type Ledger struct {
	months      map[core.Month]*MonthBudget
	first, last core.Month

	accounts     map[core.AccountID]*core.Account
	accountOrder []core.AccountID

	txns    map[core.TxID]core.Transaction
	byMonth map[core.Month]map[core.TxID]struct{}
	mirrors map[string][]core.TxID

	dirty tracker
}

// ChangeSet lists what changed since the last call to Ledger.Changes.
// Account and transaction IDs may refer to records that no longer exist;
// those were removed.
type ChangeSet struct {
	Months       []core.Month
	Accounts     []core.AccountID
	Transactions []core.TxID
}

// Empty reports whether nothing changed.
func (c ChangeSet) Empty() bool {
	return len(c.Months) == 0 && len(c.Accounts) == 0 && len(c.Transactions) == 0
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		months:   make(map[core.Month]*MonthBudget),
		accounts: make(map[core.AccountID]*core.Account),
		txns:     make(map[core.TxID]core.Transaction),
		byMonth:  make(map[core.Month]map[core.TxID]struct{}),
		mirrors:  make(map[string][]core.TxID),
		dirty:    newTracker(),
	}
}

// Range returns the first and last materialised months. Both are zero when
// no month exists yet.
func (l *Ledger) Range() (first, last core.Month) {
	return l.first, l.last
}

// Months returns every materialised month key in order.
func (l *Ledger) Months() []core.Month {
	if l.first.IsZero() {
		return nil
	}
	var out []core.Month
	for m := l.first; !m.After(l.last); m = m.Next() {
		out = append(out, m)
	}
	return out
}

// Materialized returns a copy of m without materialising it.
func (l *Ledger) Materialized(m core.Month) (*MonthBudget, bool) {
	mb, ok := l.months[m]
	if !ok {
		return nil, false
	}
	return mb.Clone(), true
}

// ensureMonth materialises m and every month between it and the existing
// range. New months copy the structure of their neighbour with zero
// assigned, and the affected range is recomputed.
func (l *Ledger) ensureMonth(m core.Month) *MonthBudget {
	if mb, ok := l.months[m]; ok {
		return mb
	}

	if l.first.IsZero() {
		mb := &MonthBudget{Month: m}
		pg := mb.paymentGroup()
		for _, id := range l.accountOrder {
			if a := l.accounts[id]; a.Type == core.Credit {
				pg.Items = append(pg.Items, newPaymentItem(a))
			}
		}
		l.months[m] = mb
		l.first, l.last = m, m
		l.recalc(m)
		return mb
	}

	if m.After(l.last) {
		from := l.last.Next()
		for k := from; !k.After(m); k = k.Next() {
			l.months[k] = &MonthBudget{Month: k, Groups: deriveStructure(l.months[k.Prev()].Groups)}
		}
		l.last = m
		l.recalc(from)
		return l.months[m]
	}

	for k := l.first.Prev(); !k.Before(m); k = k.Prev() {
		l.months[k] = &MonthBudget{Month: k, Groups: deriveStructure(l.months[k.Next()].Groups)}
	}
	l.first = m
	l.recalc(m)
	return l.months[m]
}

// Account returns a copy of the account.
func (l *Ledger) Account(id core.AccountID) (core.Account, bool) {
	a, ok := l.accounts[id]
	if !ok {
		return core.Account{}, false
	}
	return *a, true
}

// Accounts returns every account in creation order.
func (l *Ledger) Accounts() []core.Account {
	out := make([]core.Account, 0, len(l.accountOrder))
	for _, id := range l.accountOrder {
		out = append(out, *l.accounts[id])
	}
	return out
}

func (l *Ledger) accountByName(name string) *core.Account {
	for _, id := range l.accountOrder {
		if a := l.accounts[id]; a.Name == name {
			return a
		}
	}
	return nil
}

// Transaction returns the transaction with the given ID.
func (l *Ledger) Transaction(id core.TxID) (core.Transaction, bool) {
	tx, ok := l.txns[id]
	return tx, ok
}

// Transactions returns the transactions matching filter, ordered by date
// then ID. A nil filter matches everything.
func (l *Ledger) Transactions(filter func(core.Transaction) bool) []core.Transaction {
	out := make([]core.Transaction, 0, len(l.txns))
	for _, tx := range l.txns {
		if filter == nil || filter(tx) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Mirror returns the other leg of a mirrored transaction.
func (l *Ledger) Mirror(tx core.Transaction) (core.Transaction, error) {
	if !tx.IsMirrored() {
		return core.Transaction{}, core.ErrNotFound
	}
	legs := l.mirrors[tx.MirrorID]
	if len(legs) != 2 {
		return core.Transaction{}, core.ErrMirrorIntegrity
	}
	other := legs[0]
	if other == tx.ID {
		other = legs[1]
	}
	o, ok := l.txns[other]
	if !ok {
		return core.Transaction{}, core.ErrMirrorIntegrity
	}
	return o, nil
}

func (l *Ledger) insertTx(tx core.Transaction) {
	l.txns[tx.ID] = tx
	m := tx.Month()
	if l.byMonth[m] == nil {
		l.byMonth[m] = make(map[core.TxID]struct{})
	}
	l.byMonth[m][tx.ID] = struct{}{}
	if tx.IsMirrored() {
		l.mirrors[tx.MirrorID] = append(l.mirrors[tx.MirrorID], tx.ID)
	}
	if a := l.accounts[tx.AccountID]; a != nil {
		a.Balance = a.Balance.Add(tx.Amount)
		l.markAccount(a.ID)
	}
	l.markTx(tx.ID)
}

func (l *Ledger) deleteTx(id core.TxID) {
	tx, ok := l.txns[id]
	if !ok {
		return
	}
	delete(l.txns, id)
	delete(l.byMonth[tx.Month()], id)
	if tx.IsMirrored() {
		legs := l.mirrors[tx.MirrorID]
		for i, leg := range legs {
			if leg == id {
				legs = append(legs[:i], legs[i+1:]...)
				break
			}
		}
		if len(legs) == 0 {
			delete(l.mirrors, tx.MirrorID)
		} else {
			l.mirrors[tx.MirrorID] = legs
		}
	}
	if a := l.accounts[tx.AccountID]; a != nil {
		a.Balance = a.Balance.Sub(tx.Amount)
		l.markAccount(a.ID)
	}
	l.markTx(id)
}

// recategorize moves the transactions of month m off one category onto
// another, recording their previous categories in into. An empty oldItem
// matches every item of oldGroup and keeps item names.
func (l *Ledger) recategorize(m core.Month, oldGroup, oldItem, newGroup, newItem string, into map[core.TxID]txCategory) {
	for id := range l.byMonth[m] {
		tx := l.txns[id]
		if tx.Group != oldGroup || (oldItem != "" && tx.Item != oldItem) {
			continue
		}
		if _, seen := into[id]; !seen {
			into[id] = txCategory{Group: tx.Group, Item: tx.Item}
		}
		tx.Group = newGroup
		if oldItem != "" {
			tx.Item = newItem
		}
		l.txns[id] = tx
		l.markTx(id)
	}
}

func (l *Ledger) markMonth(m core.Month)        { l.dirty.months[m] = struct{}{} }
func (l *Ledger) markAccount(id core.AccountID) { l.dirty.accounts[id] = struct{}{} }
func (l *Ledger) markTx(id core.TxID)           { l.dirty.txns[id] = struct{}{} }

// Changes returns and resets the set of changed records.
func (l *Ledger) Changes() ChangeSet {
	var c ChangeSet
	for m := range l.dirty.months {
		c.Months = append(c.Months, m)
	}
	for id := range l.dirty.accounts {
		c.Accounts = append(c.Accounts, id)
	}
	for id := range l.dirty.txns {
		c.Transactions = append(c.Transactions, id)
	}
	l.dirty = newTracker()
	sort.Slice(c.Months, func(i, j int) bool { return c.Months[i].Before(c.Months[j]) })
	sort.Slice(c.Accounts, func(i, j int) bool { return c.Accounts[i] < c.Accounts[j] })
	sort.Slice(c.Transactions, func(i, j int) bool { return c.Transactions[i] < c.Transactions[j] })
	return c
}

type tracker struct {
	months   map[core.Month]struct{}
	accounts map[core.AccountID]struct{}
	txns     map[core.TxID]struct{}
}

func newTracker() tracker {
	return tracker{
		months:   make(map[core.Month]struct{}),
		accounts: make(map[core.AccountID]struct{}),
		txns:     make(map[core.TxID]struct{}),
	}
}
