package budget

import (
	"fmt"
	"sort"

	"budgeteer/internal/core"
)

// CategoryRow is one imported category assignment. Imported activity and
// available are not stored; the ledger derives them from transactions.
type CategoryRow struct {
	Month    core.Month
	Group    string
	Item     string
	Assigned core.Money
}

// ImportTransactions posts every input as one command.
func (e *Engine) ImportTransactions(inputs []TransactionInput) ([]core.TxID, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var all []core.Transaction
	ids := make([]core.TxID, 0, len(inputs))
	for i, in := range inputs {
		legs, err := e.build(in, core.TxID(e.newID()), "")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		all = append(all, legs...)
		ids = append(ids, legs[0].ID)
	}
	op := batchOp{Name: "import-transactions", Ops: []Op{addTxOp{Txs: all}}}
	if err := e.execute(op); err != nil {
		return nil, err
	}
	return ids, nil
}

// ImportCategories creates missing groups and items and sets the assigned
// amounts, as one command. Rows are applied in month order.
func (e *Engine) ImportCategories(rows []CategoryRow) error {
	if len(rows) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sorted := append([]CategoryRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Month.Before(sorted[j].Month) })

	p := planner{ledger: e.ledger, newID: e.newID, groups: map[string]core.GroupID{}, items: map[[2]string]core.ItemID{}}
	var ops []Op
	for _, r := range sorted {
		gid, op := p.group(r.Month, r.Group)
		if op != nil {
			ops = append(ops, op)
		}
		iid, op := p.item(r.Month, gid, r.Group, r.Item)
		if op != nil {
			ops = append(ops, op)
		}
		ops = append(ops, setAssignedOp{Month: r.Month, ItemID: iid, Amount: r.Assigned})
	}
	return e.execute(batchOp{Name: "import-categories", Ops: ops})
}

// planner resolves imported names to IDs ahead of applying anything, so
// that a redo recreates the same IDs.
type planner struct {
	ledger *Ledger
	newID  func() string
	groups map[string]core.GroupID
	items  map[[2]string]core.ItemID
}

// structureAt returns the month m is or would be materialised from.
func (p planner) structureAt(m core.Month) *MonthBudget {
	l := p.ledger
	switch {
	case l.first.IsZero():
		return nil
	case m.Before(l.first):
		return l.months[l.first]
	case m.After(l.last):
		return l.months[l.last]
	}
	return l.months[m]
}

func (p planner) group(m core.Month, name string) (core.GroupID, Op) {
	if id, ok := p.groups[name]; ok {
		return id, nil
	}
	if mb := p.structureAt(m); mb != nil {
		if g := mb.GroupByName(name); g != nil {
			p.groups[name] = g.ID
			return g.ID, nil
		}
	}
	id := core.GroupID(p.newID())
	for _, mb := range p.ledger.months {
		if g := mb.GroupByName(name); g != nil && !mb.Month.Before(m) {
			id = g.ID
			break
		}
	}
	p.groups[name] = id
	return id, createGroupOp{Month: m, ID: id, Name: name}
}

func (p planner) item(m core.Month, gid core.GroupID, group, name string) (core.ItemID, Op) {
	key := [2]string{group, name}
	if id, ok := p.items[key]; ok {
		return id, nil
	}
	if mb := p.structureAt(m); mb != nil {
		if it := mb.Lookup(group, name); it != nil {
			p.items[key] = it.ID
			return it.ID, nil
		}
	}
	id := core.ItemID(p.newID())
	for _, mb := range p.ledger.months {
		if it := mb.Lookup(group, name); it != nil && !mb.Month.Before(m) {
			id = it.ID
			break
		}
	}
	p.items[key] = id
	return id, createItemOp{Month: m, GroupID: gid, ID: id, Name: name}
}
