package budget

import (
	"errors"
	"fmt"

	"budgeteer/internal/core"
)

// Op is one invertible mutation of a Ledger. apply either changes the
// ledger completely and returns the Op that reverses the change, or fails
// without changing anything.
type Op interface {
	Kind() string
	apply(l *Ledger) (Op, error)
}

// batchOp applies its ops in order as one unit. When one fails, the ops
// already applied are reversed.
type batchOp struct {
	Name string
	Ops  []Op
}

func (b batchOp) Kind() string { return b.Name }

func (b batchOp) apply(l *Ledger) (Op, error) {
	inverses := make([]Op, 0, len(b.Ops))
	for _, op := range b.Ops {
		inv, err := op.apply(l)
		if err != nil {
			if rbErr := rollback(l, inverses); rbErr != nil {
				return nil, errors.Join(err, fmt.Errorf("rollback %s: %w", b.Name, rbErr))
			}
			return nil, err
		}
		inverses = append(inverses, inv)
	}
	reversed := make([]Op, len(inverses))
	for i, inv := range inverses {
		reversed[len(inverses)-1-i] = inv
	}
	return batchOp{Name: b.Name, Ops: reversed}, nil
}

func rollback(l *Ledger, inverses []Op) error {
	var errs []error
	for i := len(inverses) - 1; i >= 0; i-- {
		if _, err := inverses[i].apply(l); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type setAssignedOp struct {
	Month  core.Month
	ItemID core.ItemID
	Amount core.Money
}

func (setAssignedOp) Kind() string { return "set-assigned" }

func (o setAssignedOp) apply(l *Ledger) (Op, error) {
	mb := l.ensureMonth(o.Month)
	it, _ := mb.Item(o.ItemID)
	if it == nil {
		return nil, fmt.Errorf("item %s in %s: %w", o.ItemID, o.Month, core.ErrNotFound)
	}
	inv := setAssignedOp{Month: o.Month, ItemID: o.ItemID, Amount: it.Assigned}
	it.Assigned = o.Amount
	l.recalc(o.Month)
	return inv, nil
}

type txCategory struct {
	Group, Item string
}

// snapshotOp restores the category structure and user state of every month
// from From onwards, and the categories of the listed transactions. It is
// the inverse of every structural edit.
type snapshotOp struct {
	Name   string
	From   core.Month
	Months map[core.Month][]*Group
	Txns   map[core.TxID]txCategory
}

func (s snapshotOp) Kind() string { return s.Name }

func (l *Ledger) snapshot(name string, from core.Month, txns map[core.TxID]txCategory) snapshotOp {
	s := snapshotOp{Name: name, From: from, Months: make(map[core.Month][]*Group), Txns: txns}
	for m := from; !m.After(l.last); m = m.Next() {
		if mb := l.months[m]; mb != nil {
			s.Months[m] = cloneGroups(mb.Groups)
		}
	}
	return s
}

func (s snapshotOp) apply(l *Ledger) (Op, error) {
	current := make(map[core.TxID]txCategory, len(s.Txns))
	for id := range s.Txns {
		if tx, ok := l.txns[id]; ok {
			current[id] = txCategory{Group: tx.Group, Item: tx.Item}
		}
	}
	inv := l.snapshot(s.Name, s.From, current)

	for m := s.From; !m.After(l.last); m = m.Next() {
		mb := l.months[m]
		if groups, ok := s.Months[m]; ok {
			mb.Groups = cloneGroups(groups)
			continue
		}
		// Materialised after the snapshot: follow the previous month.
		if prev := l.months[m.Prev()]; prev != nil {
			mb.Groups = resyncStructure(prev.Groups, mb.Groups)
		}
	}
	for id, cat := range s.Txns {
		if tx, ok := l.txns[id]; ok {
			tx.Group, tx.Item = cat.Group, cat.Item
			l.txns[id] = tx
			l.markTx(id)
		}
	}
	l.recalc(s.From)
	return inv, nil
}

// forward visits month from and every later materialised month.
func (l *Ledger) forward(from core.Month, fn func(*MonthBudget) error) error {
	for m := from; !m.After(l.last); m = m.Next() {
		if err := fn(l.months[m]); err != nil {
			return err
		}
	}
	return nil
}
