package budget

import (
	"errors"
	"fmt"

	"budgeteer/internal/core"
)

// addTxOp posts transactions. Both legs of a mirrored pair are always
// posted by the same addTxOp.
type addTxOp struct {
	Txs []core.Transaction
}

func (addTxOp) Kind() string { return "post-transaction" }

func (o addTxOp) apply(l *Ledger) (Op, error) {
	seen := make(map[core.TxID]bool, len(o.Txs))
	for _, tx := range o.Txs {
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		if _, ok := l.accounts[tx.AccountID]; !ok {
			return nil, fmt.Errorf("account %s: %w", tx.AccountID, core.ErrNotFound)
		}
		if _, ok := l.txns[tx.ID]; ok || seen[tx.ID] {
			return nil, fmt.Errorf("transaction %s already exists", tx.ID)
		}
		seen[tx.ID] = true
	}

	ids := make([]core.TxID, 0, len(o.Txs))
	var from core.Month
	for _, tx := range o.Txs {
		l.ensureMonth(tx.Month())
		l.insertTx(tx)
		ids = append(ids, tx.ID)
		if from.IsZero() || tx.Month().Before(from) {
			from = tx.Month()
		}
	}
	if !from.IsZero() {
		l.recalc(from)
	}
	return removeTxOp{IDs: ids}, nil
}

// removeTxOp deletes transactions. The set must be closed over mirrors:
// deleting one leg of a pair without the other is refused.
type removeTxOp struct {
	IDs []core.TxID
}

func (removeTxOp) Kind() string { return "delete-transactions" }

func (o removeTxOp) apply(l *Ledger) (Op, error) {
	set := make(map[core.TxID]bool, len(o.IDs))
	for _, id := range o.IDs {
		set[id] = true
	}
	removed := make([]core.Transaction, 0, len(o.IDs))
	for _, id := range o.IDs {
		tx, ok := l.txns[id]
		if !ok {
			return nil, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
		}
		if tx.IsMirrored() {
			mirror, err := l.Mirror(tx)
			if err != nil {
				return nil, fmt.Errorf("transaction %s: %w", id, err)
			}
			if !set[mirror.ID] {
				return nil, fmt.Errorf("transaction %s without mirror %s: %w", id, mirror.ID, core.ErrMirrorIntegrity)
			}
		}
		removed = append(removed, tx)
	}

	var from core.Month
	for _, tx := range removed {
		l.deleteTx(tx.ID)
		if from.IsZero() || tx.Month().Before(from) {
			from = tx.Month()
		}
	}
	if !from.IsZero() {
		l.recalc(from)
	}
	return addTxOp{Txs: removed}, nil
}

// withMirrors expands ids with the other leg of every mirrored transaction.
func (l *Ledger) withMirrors(ids []core.TxID) ([]core.TxID, error) {
	seen := make(map[core.TxID]bool, len(ids))
	out := make([]core.TxID, 0, len(ids))
	add := func(id core.TxID) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range ids {
		tx, ok := l.txns[id]
		if !ok {
			return nil, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
		}
		add(id)
		if tx.IsMirrored() {
			mirror, err := l.Mirror(tx)
			if err != nil {
				return nil, fmt.Errorf("transaction %s: %w", id, err)
			}
			add(mirror.ID)
		}
	}
	return out, nil
}

// CheckMirrors returns ErrMirrorIntegrity for every transaction whose pair
// is incomplete or inconsistent.
func (l *Ledger) CheckMirrors() error {
	var errs []error
	for _, tx := range l.Transactions(core.Transaction.IsMirrored) {
		mirror, err := l.Mirror(tx)
		if err != nil {
			errs = append(errs, fmt.Errorf("transaction %s: %w", tx.ID, err))
			continue
		}
		if mirror.AccountID == tx.AccountID || mirror.Amount != tx.Amount.Neg() {
			errs = append(errs, fmt.Errorf("transaction %s and %s do not mirror: %w", tx.ID, mirror.ID, core.ErrMirrorIntegrity))
		}
	}
	return errors.Join(errs...)
}
