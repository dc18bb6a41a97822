package budget

import (
	"fmt"

	"budgeteer/internal/core"
)

// carryOut is what an item hands to the same item of the next month.
// Cash categories carry only a positive balance; overspending is absorbed.
// Payment items carry their balance at any sign.
func carryOut(it *Item) core.Money {
	if it.System || it.Available.IsPositive() {
		return it.Available
	}
	return core.Money{}
}

// Rollover derives the carry-in of every item of next from the ending state
// of prev and returns the cash overspending of prev that was absorbed.
// It only reads prev, so applying it twice yields the same result.
func Rollover(prev, next *MonthBudget) core.Money {
	var absorbed core.Money
	carry := make(map[core.ItemID]core.Money)
	if prev != nil {
		prev.each(func(_ *Group, it *Item) {
			carry[it.ID] = carryOut(it)
			if !it.System && it.Available.IsNegative() {
				absorbed = absorbed.Sub(it.Available)
			}
		})
	}
	next.each(func(_ *Group, it *Item) {
		in := carry[it.ID]
		for _, id := range it.Absorbs {
			in = in.Add(carry[id])
		}
		it.CarryIn = in
	})
	return absorbed
}

// recalc recomputes every derived value from month from to the end of the
// range, in order, so rollover cascades into later months. Months before
// from are never touched.
func (l *Ledger) recalc(from core.Month) {
	if l.first.IsZero() {
		return
	}
	if from.Before(l.first) {
		from = l.first
	}
	for m := from; !m.After(l.last); m = m.Next() {
		l.compute(l.months[m], l.months[m.Prev()])
		l.markMonth(m)
	}
}

// compute fills the derived fields of mb. On overflow ReadyToAssign keeps
// its previous value and ComputeErr is set.
func (l *Ledger) compute(mb, prev *MonthBudget) {
	mb.ComputeErr = nil
	mb.AbsorbedOverspend = Rollover(prev, mb)

	mb.each(func(_ *Group, it *Item) { it.Activity = core.Money{} })
	var income core.Money
	var err error
	for id := range l.byMonth[mb.Month] {
		tx := l.txns[id]
		switch {
		case tx.IsIncome():
			income, err = accumulate(income, tx.Amount, err)
		case tx.Kind != core.Transfer && tx.Categorized():
			if it := mb.Lookup(tx.Group, tx.Item); it != nil {
				it.Activity, err = accumulate(it.Activity, tx.Amount, err)
			}
		}
	}

	var assigned, activity, available core.Money
	mb.each(func(_ *Group, it *Item) {
		var avail core.Money
		avail, err = accumulate(it.CarryIn, it.Assigned, err)
		avail, err = accumulate(avail, it.Activity, err)
		if err == nil {
			it.Available = avail
		}
		assigned, err = accumulate(assigned, it.Assigned, err)
		activity, err = accumulate(activity, it.Activity, err)
		available, err = accumulate(available, it.Available, err)
	})

	var prevRTA core.Money
	if prev != nil {
		prevRTA = prev.ReadyToAssign
	}
	rta, err := accumulate(prevRTA, income, err)
	if err == nil {
		rta, err = rta.CheckedSub(assigned)
	}
	if err != nil {
		mb.ComputeErr = fmt.Errorf("month %s: %w", mb.Month, err)
		return
	}
	mb.ReadyToAssign = rta
	mb.Income = income
	mb.Assigned = assigned
	mb.Activity = activity
	mb.Available = available
}

// accumulate is CheckedAdd that carries the first error along.
func accumulate(sum, v core.Money, err error) (core.Money, error) {
	if err != nil {
		return sum, err
	}
	return sum.CheckedAdd(v)
}
