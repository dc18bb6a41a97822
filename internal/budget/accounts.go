package budget

import (
	"fmt"
	"strings"

	"budgeteer/internal/core"
)

// The credit card payment synchronizer keeps exactly one item in the
// "Credit Card Payments" group of every month for each credit account,
// named after the account. Only the account ops below add, rename or
// remove those items.

func newPaymentItem(a *core.Account) *Item {
	return &Item{ID: PaymentItemID(a.ID), Name: a.Name, System: true, AccountID: a.ID}
}

func (l *Ledger) syncPaymentItem(a *core.Account) {
	for _, mb := range l.months {
		pg := mb.paymentGroup()
		if pg.indexOf(PaymentItemID(a.ID)) < 0 {
			pg.Items = append(pg.Items, newPaymentItem(a))
		}
	}
}

type createAccountOp struct {
	Account core.Account
}

func (createAccountOp) Kind() string { return "create-account" }

func (o createAccountOp) apply(l *Ledger) (Op, error) {
	a := o.Account
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if _, ok := l.accounts[a.ID]; ok {
		return nil, fmt.Errorf("account %s: %w", a.ID, core.ErrDuplicateName)
	}
	if l.accountByName(a.Name) != nil {
		return nil, fmt.Errorf("account %q: %w", a.Name, core.ErrDuplicateName)
	}
	a.Balance = core.Money{}

	l.accounts[a.ID] = &a
	l.accountOrder = append(l.accountOrder, a.ID)
	l.markAccount(a.ID)
	if a.Type == core.Credit {
		l.syncPaymentItem(&a)
		l.recalc(l.first)
	}
	return removeAccountOp{ID: a.ID}, nil
}

// removeAccountOp drops an account without transactions, and its payment
// item from every month.
type removeAccountOp struct {
	ID core.AccountID
}

func (removeAccountOp) Kind() string { return "remove-account" }

func (o removeAccountOp) apply(l *Ledger) (Op, error) {
	a, ok := l.accounts[o.ID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", o.ID, core.ErrNotFound)
	}
	for _, tx := range l.txns {
		if tx.AccountID == o.ID {
			return nil, fmt.Errorf("account %q still has transactions", a.Name)
		}
	}

	inv := restoreAccountOp{Account: *a}
	if a.Type == core.Credit && !l.first.IsZero() {
		inv.Snapshot = l.snapshot(o.Kind(), l.first, nil)
		id := PaymentItemID(a.ID)
		for _, mb := range l.months {
			mb.paymentGroup().remove(id)
		}
	}
	delete(l.accounts, o.ID)
	for i, id := range l.accountOrder {
		if id == o.ID {
			l.accountOrder = append(l.accountOrder[:i], l.accountOrder[i+1:]...)
			break
		}
	}
	l.markAccount(o.ID)
	l.recalc(l.first)
	return inv, nil
}

type restoreAccountOp struct {
	Account  core.Account
	Snapshot snapshotOp // payment item state; zero for debit accounts
}

func (restoreAccountOp) Kind() string { return "restore-account" }

func (o restoreAccountOp) apply(l *Ledger) (Op, error) {
	if _, err := (createAccountOp{Account: o.Account}).apply(l); err != nil {
		return nil, err
	}
	a := l.accounts[o.Account.ID]
	a.CreatedAt = o.Account.CreatedAt
	if o.Snapshot.Months != nil {
		if _, err := o.Snapshot.apply(l); err != nil {
			return nil, err
		}
	}
	return removeAccountOp{ID: o.Account.ID}, nil
}

type renameAccountOp struct {
	ID   core.AccountID
	Name string
}

func (renameAccountOp) Kind() string { return "rename-account" }

func (o renameAccountOp) apply(l *Ledger) (Op, error) {
	a, ok := l.accounts[o.ID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", o.ID, core.ErrNotFound)
	}
	renamed := *a
	renamed.Name = strings.TrimSpace(o.Name)
	if err := renamed.Validate(); err != nil {
		return nil, err
	}
	if other := l.accountByName(renamed.Name); other != nil && other.ID != o.ID {
		return nil, fmt.Errorf("account %q: %w", renamed.Name, core.ErrDuplicateName)
	}

	inv := renameAccountOp{ID: o.ID, Name: a.Name}
	if a.Type == core.Credit {
		id := PaymentItemID(a.ID)
		discard := make(map[core.TxID]txCategory)
		for _, mb := range l.months {
			if it, _ := mb.Item(id); it != nil {
				l.recategorize(mb.Month, core.CreditCardPaymentsGroup, it.Name, core.CreditCardPaymentsGroup, renamed.Name, discard)
				it.Name = renamed.Name
			}
		}
		l.recalc(l.first)
	}
	a.Name = renamed.Name
	l.markAccount(a.ID)
	return inv, nil
}
