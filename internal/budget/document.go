package budget

import (
	"fmt"
	"sort"
	"time"

	"budgeteer/internal/core"
	"budgeteer/internal/store"
)

// Export is the persisted form of a ChangeSet. Removed records are listed
// by ID only.
type Export struct {
	Months              []store.MonthDocument
	Accounts            []store.AccountRecord
	RemovedAccounts     []core.AccountID
	Transactions        []store.TransactionRecord
	RemovedTransactions []core.TxID
}

// Batch converts x into a store.Batch for userID.
func (x Export) Batch(userID string) store.Batch {
	b := store.Batch{
		UserID:       userID,
		Months:       x.Months,
		Accounts:     x.Accounts,
		Transactions: x.Transactions,
	}
	for _, id := range x.RemovedAccounts {
		b.RemovedAccounts = append(b.RemovedAccounts, string(id))
	}
	for _, id := range x.RemovedTransactions {
		b.RemovedTransactions = append(b.RemovedTransactions, string(id))
	}
	return b
}

// Empty reports whether x writes nothing.
func (x Export) Empty() bool {
	return len(x.Months) == 0 && len(x.Accounts) == 0 && len(x.RemovedAccounts) == 0 &&
		len(x.Transactions) == 0 && len(x.RemovedTransactions) == 0
}

// Export builds the documents and records of the changes in c.
func (l *Ledger) Export(userID string, c ChangeSet, now time.Time) Export {
	var x Export
	for _, m := range c.Months {
		if mb := l.months[m]; mb != nil {
			doc := Document(userID, mb)
			doc.UpdatedAt = now
			x.Months = append(x.Months, doc)
		}
	}
	for _, id := range c.Accounts {
		if a, ok := l.accounts[id]; ok {
			x.Accounts = append(x.Accounts, AccountRecord(userID, *a))
		} else {
			x.RemovedAccounts = append(x.RemovedAccounts, id)
		}
	}
	for _, id := range c.Transactions {
		if tx, ok := l.txns[id]; ok {
			x.Transactions = append(x.Transactions, TransactionRecord(userID, tx))
		} else {
			x.RemovedTransactions = append(x.RemovedTransactions, id)
		}
	}
	return x
}

// Document returns the month document of mb. assignable_money is what was
// available to assign before this month's assignments.
func Document(userID string, mb *MonthBudget) store.MonthDocument {
	doc := store.MonthDocument{
		UserID:          userID,
		Month:           mb.Month.String(),
		AssignableMoney: mb.ReadyToAssign.Add(mb.Assigned),
		ReadyToAssign:   mb.ReadyToAssign,
		Data:            store.MonthData{Categories: make([]store.CategoryDocument, 0, len(mb.Groups))},
	}
	for _, g := range mb.Groups {
		cd := store.CategoryDocument{
			ID:            string(g.ID),
			Name:          g.Name,
			System:        g.System,
			CategoryItems: make([]store.ItemDocument, 0, len(g.Items)),
		}
		for _, it := range g.Items {
			cd.CategoryItems = append(cd.CategoryItems, store.ItemDocument{
				ID:        string(it.ID),
				Name:      it.Name,
				AccountID: string(it.AccountID),
				Assigned:  it.Assigned,
				Activity:  it.Activity,
				Available: it.Available,
				Absorbs:   absorbedIDs(it.Absorbs),
			})
		}
		doc.Data.Categories = append(doc.Data.Categories, cd)
	}
	return doc
}

func absorbedIDs(ids []core.ItemID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// AccountRecord converts an account to its stored form.
func AccountRecord(userID string, a core.Account) store.AccountRecord {
	return store.AccountRecord{
		ID:        string(a.ID),
		UserID:    userID,
		Name:      a.Name,
		Issuer:    a.Issuer,
		Type:      string(a.Type),
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
	}
}

// TransactionRecord converts a transaction to its stored form.
func TransactionRecord(userID string, tx core.Transaction) store.TransactionRecord {
	return store.TransactionRecord{
		ID:            string(tx.ID),
		UserID:        userID,
		AccountID:     string(tx.AccountID),
		Date:          tx.Date.String(),
		Payee:         tx.Payee,
		CategoryGroup: tx.Group,
		CategoryItem:  tx.Item,
		Amount:        tx.Amount,
		Kind:          string(tx.Kind),
		MirrorID:      tx.MirrorID,
		Memo:          tx.Memo,
	}
}

func transactionOf(rec store.TransactionRecord) (core.Transaction, error) {
	date, err := core.ParseDate(rec.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", rec.ID, err)
	}
	kind := core.TransactionKind(rec.Kind)
	if kind == "" {
		kind = core.Regular
	}
	return core.Transaction{
		ID:        core.TxID(rec.ID),
		AccountID: core.AccountID(rec.AccountID),
		Date:      date,
		Payee:     rec.Payee,
		Group:     rec.CategoryGroup,
		Item:      rec.CategoryItem,
		Amount:    rec.Amount,
		Kind:      kind,
		MirrorID:  rec.MirrorID,
		Memo:      rec.Memo,
	}, nil
}

// Restore rebuilds a ledger from persisted records and recomputes every
// derived value. Persisted activity, available and balances are not
// trusted; gaps between documents are filled by rollover.
func Restore(docs []store.MonthDocument, accounts []store.AccountRecord, txns []store.TransactionRecord) (*Ledger, error) {
	l := NewLedger()

	sorted := append([]store.AccountRecord(nil), accounts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	for _, rec := range sorted {
		a := core.Account{
			ID:        core.AccountID(rec.ID),
			Name:      rec.Name,
			Issuer:    rec.Issuer,
			Type:      core.AccountType(rec.Type),
			CreatedAt: rec.CreatedAt,
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("account %s: %w", rec.ID, err)
		}
		l.accounts[a.ID] = &a
		l.accountOrder = append(l.accountOrder, a.ID)
	}

	type parsed struct {
		month  core.Month
		groups []*Group
	}
	months := make([]parsed, 0, len(docs))
	for _, doc := range docs {
		m, err := core.ParseMonth(doc.Month)
		if err != nil {
			return nil, err
		}
		months = append(months, parsed{month: m, groups: groupsOf(doc)})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].month.Before(months[j].month) })
	for _, p := range months {
		if l.first.IsZero() {
			l.first = p.month
		} else {
			for k := l.last.Next(); k.Before(p.month); k = k.Next() {
				l.months[k] = &MonthBudget{Month: k, Groups: deriveStructure(l.months[k.Prev()].Groups)}
			}
		}
		l.months[p.month] = &MonthBudget{Month: p.month, Groups: p.groups}
		l.last = p.month
	}
	for _, mb := range l.months {
		for _, it := range mb.paymentGroup().Items {
			if it.AccountID != "" {
				continue
			}
			if a := l.accountByName(it.Name); a != nil && a.Type == core.Credit {
				it.ID, it.AccountID = PaymentItemID(a.ID), a.ID
			}
		}
	}
	for _, id := range l.accountOrder {
		if a := l.accounts[id]; a.Type == core.Credit {
			l.syncPaymentItem(a)
		}
	}

	for _, rec := range txns {
		tx, err := transactionOf(rec)
		if err != nil {
			return nil, err
		}
		if _, ok := l.accounts[tx.AccountID]; !ok {
			return nil, fmt.Errorf("transaction %s: account %s: %w", tx.ID, tx.AccountID, core.ErrNotFound)
		}
		l.ensureMonth(tx.Month())
		l.insertTx(tx)
	}

	l.recalc(l.first)
	l.dirty = newTracker()
	return l, nil
}

// groupsOf converts the categories of a document. Documents written
// without IDs get IDs derived from names, so that items still line up
// across months.
func groupsOf(doc store.MonthDocument) []*Group {
	var groups []*Group
	for _, c := range doc.Data.Categories {
		g := &Group{ID: core.GroupID(c.ID), Name: c.Name, System: c.System}
		if c.Name == core.CreditCardPaymentsGroup {
			g.ID, g.System = PaymentGroupID, true
		}
		if g.ID == "" {
			g.ID = core.GroupID("g:" + c.Name)
		}
		for _, d := range c.CategoryItems {
			it := &Item{
				ID:        core.ItemID(d.ID),
				Name:      d.Name,
				AccountID: core.AccountID(d.AccountID),
				Assigned:  d.Assigned,
			}
			for _, id := range d.Absorbs {
				it.Absorbs = append(it.Absorbs, core.ItemID(id))
			}
			if g.System {
				it.System = true
				if it.AccountID != "" {
					it.ID = PaymentItemID(it.AccountID)
				}
			}
			if it.ID == "" {
				it.ID = core.ItemID("i:" + c.Name + "/" + d.Name)
			}
			g.Items = append(g.Items, it)
		}
		if g.System {
			groups = append([]*Group{g}, groups...)
		} else {
			groups = append(groups, g)
		}
	}
	return groups
}
