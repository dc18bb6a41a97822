package budget

import (
	"fmt"

	"budgeteer/internal/core"
)

// Structural edits start at one month and carry forward to every later
// materialised month. Earlier months keep their structure. Each edit
// validates every affected month before changing any of them, and returns
// a snapshot of the affected range as its inverse.

type createGroupOp struct {
	Month core.Month
	ID    core.GroupID
	Name  string
}

func (createGroupOp) Kind() string { return "create-group" }

func (o createGroupOp) apply(l *Ledger) (Op, error) {
	l.ensureMonth(o.Month)
	if o.Name == core.ReadyToAssign {
		return nil, fmt.Errorf("group %q: %w", o.Name, core.ErrDuplicateName)
	}
	// A later month may already hold the group; it is extended backwards.
	err := l.forward(o.Month, func(mb *MonthBudget) error {
		if mb.Group(o.ID) == nil && mb.GroupByName(o.Name) != nil {
			return fmt.Errorf("group %q in %s: %w", o.Name, mb.Month, core.ErrDuplicateName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mb := l.months[o.Month]; mb.Group(o.ID) != nil {
		return nil, fmt.Errorf("group %s: %w", o.ID, core.ErrDuplicateName)
	}

	snap := l.snapshot(o.Kind(), o.Month, nil)
	_ = l.forward(o.Month, func(mb *MonthBudget) error {
		if mb.Group(o.ID) == nil {
			mb.Groups = append(mb.Groups, &Group{ID: o.ID, Name: o.Name})
		}
		return nil
	})
	l.recalc(o.Month)
	return snap, nil
}

type renameGroupOp struct {
	Month core.Month
	ID    core.GroupID
	Name  string
}

func (renameGroupOp) Kind() string { return "rename-group" }

func (o renameGroupOp) apply(l *Ledger) (Op, error) {
	g := l.ensureMonth(o.Month).Group(o.ID)
	if g == nil {
		return nil, fmt.Errorf("group %s: %w", o.ID, core.ErrNotFound)
	}
	if g.System {
		return nil, fmt.Errorf("group %q: %w", g.Name, core.ErrProtectedGroup)
	}
	if o.Name == core.ReadyToAssign {
		return nil, fmt.Errorf("group %q: %w", o.Name, core.ErrDuplicateName)
	}
	err := l.forward(o.Month, func(mb *MonthBudget) error {
		if other := mb.GroupByName(o.Name); other != nil && other.ID != o.ID {
			return fmt.Errorf("group %q in %s: %w", o.Name, mb.Month, core.ErrDuplicateName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap := l.snapshot(o.Kind(), o.Month, make(map[core.TxID]txCategory))
	_ = l.forward(o.Month, func(mb *MonthBudget) error {
		if g := mb.Group(o.ID); g != nil {
			l.recategorize(mb.Month, g.Name, "", o.Name, "", snap.Txns)
			g.Name = o.Name
		}
		return nil
	})
	l.recalc(o.Month)
	return snap, nil
}

type deleteGroupOp struct {
	Month core.Month
	ID    core.GroupID
}

func (deleteGroupOp) Kind() string { return "delete-group" }

func (o deleteGroupOp) apply(l *Ledger) (Op, error) {
	g := l.ensureMonth(o.Month).Group(o.ID)
	if g == nil {
		return nil, fmt.Errorf("group %s: %w", o.ID, core.ErrNotFound)
	}
	if g.System {
		return nil, fmt.Errorf("group %q: %w", g.Name, core.ErrProtectedGroup)
	}
	err := l.forward(o.Month, func(mb *MonthBudget) error {
		if g := mb.Group(o.ID); g != nil && len(g.Items) > 0 {
			return fmt.Errorf("group %q in %s: %w", g.Name, mb.Month, core.ErrGroupNotEmpty)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap := l.snapshot(o.Kind(), o.Month, nil)
	_ = l.forward(o.Month, func(mb *MonthBudget) error {
		mb.removeGroup(o.ID)
		return nil
	})
	l.recalc(o.Month)
	return snap, nil
}

type createItemOp struct {
	Month   core.Month
	GroupID core.GroupID
	ID      core.ItemID
	Name    string
}

func (createItemOp) Kind() string { return "create-item" }

func (o createItemOp) apply(l *Ledger) (Op, error) {
	g := l.ensureMonth(o.Month).Group(o.GroupID)
	if g == nil {
		return nil, fmt.Errorf("group %s: %w", o.GroupID, core.ErrNotFound)
	}
	if g.System {
		return nil, fmt.Errorf("group %q: %w", g.Name, core.ErrProtectedGroup)
	}
	if it, _ := l.months[o.Month].Item(o.ID); it != nil {
		return nil, fmt.Errorf("item %s: %w", o.ID, core.ErrDuplicateName)
	}
	err := l.forward(o.Month, func(mb *MonthBudget) error {
		if it, _ := mb.Item(o.ID); it != nil {
			return nil
		}
		if g := mb.Group(o.GroupID); g != nil && g.ItemByName(o.Name) != nil {
			return fmt.Errorf("item %q in %s: %w", o.Name, mb.Month, core.ErrDuplicateName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap := l.snapshot(o.Kind(), o.Month, nil)
	_ = l.forward(o.Month, func(mb *MonthBudget) error {
		if it, _ := mb.Item(o.ID); it != nil {
			return nil
		}
		if g := mb.Group(o.GroupID); g != nil {
			g.Items = append(g.Items, &Item{ID: o.ID, Name: o.Name})
		}
		return nil
	})
	l.recalc(o.Month)
	return snap, nil
}

type renameItemOp struct {
	Month core.Month
	ID    core.ItemID
	Name  string
}

func (renameItemOp) Kind() string { return "rename-item" }

func (o renameItemOp) apply(l *Ledger) (Op, error) {
	it, _ := l.ensureMonth(o.Month).Item(o.ID)
	if it == nil {
		return nil, fmt.Errorf("item %s: %w", o.ID, core.ErrNotFound)
	}
	if it.System {
		return nil, fmt.Errorf("item %q: %w", it.Name, core.ErrProtectedItem)
	}
	err := l.forward(o.Month, func(mb *MonthBudget) error {
		_, g := mb.Item(o.ID)
		if g == nil {
			return nil
		}
		if other := g.ItemByName(o.Name); other != nil && other.ID != o.ID {
			return fmt.Errorf("item %q in %s: %w", o.Name, mb.Month, core.ErrDuplicateName)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap := l.snapshot(o.Kind(), o.Month, make(map[core.TxID]txCategory))
	_ = l.forward(o.Month, func(mb *MonthBudget) error {
		if it, g := mb.Item(o.ID); it != nil {
			l.recategorize(mb.Month, g.Name, it.Name, g.Name, o.Name, snap.Txns)
			it.Name = o.Name
		}
		return nil
	})
	l.recalc(o.Month)
	return snap, nil
}

// deleteItemOp removes an item from Month onwards. With a Target, the
// item's assigned money and transactions move to the target, and the target
// absorbs the item's carry from the month before, so that the target's
// available rises by exactly the deleted item's available.
type deleteItemOp struct {
	Month  core.Month
	ID     core.ItemID
	Target core.ItemID
}

func (deleteItemOp) Kind() string { return "delete-item" }

func (o deleteItemOp) apply(l *Ledger) (Op, error) {
	it, _ := l.ensureMonth(o.Month).Item(o.ID)
	if it == nil {
		return nil, fmt.Errorf("item %s: %w", o.ID, core.ErrNotFound)
	}
	if it.System {
		return nil, fmt.Errorf("item %q: %w", it.Name, core.ErrProtectedItem)
	}
	if o.Target == o.ID {
		return nil, fmt.Errorf("item %q cannot absorb itself: %w", it.Name, core.ErrNotFound)
	}

	err := l.forward(o.Month, func(mb *MonthBudget) error {
		it, _ := mb.Item(o.ID)
		if it == nil {
			return nil
		}
		if o.Target == "" {
			if it.holdsMoney() {
				return fmt.Errorf("item %q in %s: %w", it.Name, mb.Month, core.ErrFundsPresent)
			}
			return nil
		}
		target, _ := mb.Item(o.Target)
		if target == nil {
			return fmt.Errorf("target %s in %s: %w", o.Target, mb.Month, core.ErrNotFound)
		}
		if _, err := target.Assigned.CheckedAdd(it.Assigned); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap := l.snapshot(o.Kind(), o.Month, make(map[core.TxID]txCategory))
	_ = l.forward(o.Month, func(mb *MonthBudget) error {
		it, g := mb.Item(o.ID)
		if it == nil {
			return nil
		}
		if o.Target != "" {
			target, tg := mb.Item(o.Target)
			target.Assigned = target.Assigned.Add(it.Assigned)
			target.Absorbs = append(target.Absorbs, it.Absorbs...)
			if mb.Month == o.Month {
				target.Absorbs = append(target.Absorbs, o.ID)
			}
			l.recategorize(mb.Month, g.Name, it.Name, tg.Name, target.Name, snap.Txns)
		}
		g.remove(o.ID)
		return nil
	})
	l.recalc(o.Month)
	return snap, nil
}

// holdsMoney reports whether deleting the item without a target would
// change Ready to Assign or drop spending from the budget.
func (it *Item) holdsMoney() bool {
	return !it.Available.IsZero() || !it.Assigned.IsZero() || !it.Activity.IsZero() || !it.CarryIn.IsZero()
}

// CanDelete reports whether the item may be deleted through the normal
// item-delete path. Payment items never can.
func (mb *MonthBudget) CanDelete(id core.ItemID) bool {
	it, _ := mb.Item(id)
	return it != nil && !it.System
}
