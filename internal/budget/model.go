// Package budget is the zero-based budgeting engine.
//
// A Ledger owns the month budgets, accounts and transactions of one user.
// Every mutation is an Op whose application returns the Op that reverses
// it; the Engine applies Ops one at a time and records them on a
// history.Stack so that any mutation can be undone and redone.
//
// Category structure lives in each MonthBudget. Groups and items keep their
// IDs across months, so month N+1 finds the rollover source of an item by
// ID in month N.
package budget

import (
	"fmt"
	"slices"

	"budgeteer/internal/core"
)

const (
	// PaymentGroupID is the fixed ID of the "Credit Card Payments" group.
	PaymentGroupID core.GroupID = "credit-card-payments"

	paymentItemPrefix = "ccp-"
)

// PaymentItemID returns the ID of the payment item paired with a credit account.
func PaymentItemID(account core.AccountID) core.ItemID {
	return core.ItemID(paymentItemPrefix + string(account))
}

// Item is one category item in one month.
//
// Assigned and Absorbs are user state. CarryIn, Activity and Available
// are derived and recomputed by the ledger after every change.
type Item struct {
	ID        core.ItemID
	Name      string
	System    bool
	AccountID core.AccountID // credit account of a payment item

	Assigned core.Money
	// Absorbs lists items deleted onto this one in this month. Their
	// carry-out from the previous month flows into this item's CarryIn.
	Absorbs []core.ItemID

	CarryIn   core.Money
	Activity  core.Money
	Available core.Money
}

// Group is a named set of items within one month.
type Group struct {
	ID     core.GroupID
	Name   string
	System bool
	Items  []*Item
}

// MonthBudget owns every category of one calendar month.
type MonthBudget struct {
	Month  core.Month
	Groups []*Group

	ReadyToAssign     core.Money
	Income            core.Money
	Assigned          core.Money
	Activity          core.Money
	Available         core.Money
	AbsorbedOverspend core.Money

	// ComputeErr is set when a derived value could not be computed; the
	// month then keeps its last known-good ReadyToAssign.
	ComputeErr error
}

func (it *Item) clone() *Item {
	c := *it
	c.Absorbs = slices.Clone(it.Absorbs)
	return &c
}

func (g *Group) clone() *Group {
	c := &Group{ID: g.ID, Name: g.Name, System: g.System, Items: make([]*Item, len(g.Items))}
	for i, it := range g.Items {
		c.Items[i] = it.clone()
	}
	return c
}

// Clone returns a deep copy.
func (mb *MonthBudget) Clone() *MonthBudget {
	c := *mb
	c.Groups = cloneGroups(mb.Groups)
	return &c
}

func cloneGroups(groups []*Group) []*Group {
	out := make([]*Group, len(groups))
	for i, g := range groups {
		out[i] = g.clone()
	}
	return out
}

// Group returns the group with the given ID.
func (mb *MonthBudget) Group(id core.GroupID) *Group {
	for _, g := range mb.Groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// GroupByName returns the group with the given name.
func (mb *MonthBudget) GroupByName(name string) *Group {
	for _, g := range mb.Groups {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Item returns the item with the given ID and the group holding it.
func (mb *MonthBudget) Item(id core.ItemID) (*Item, *Group) {
	for _, g := range mb.Groups {
		for _, it := range g.Items {
			if it.ID == id {
				return it, g
			}
		}
	}
	return nil, nil
}

// Lookup resolves a transaction's group and item names.
func (mb *MonthBudget) Lookup(group, item string) *Item {
	g := mb.GroupByName(group)
	if g == nil {
		return nil
	}
	return g.ItemByName(item)
}

// ItemByName returns the item of g with the given name.
func (g *Group) ItemByName(name string) *Item {
	for _, it := range g.Items {
		if it.Name == name {
			return it
		}
	}
	return nil
}

func (g *Group) indexOf(id core.ItemID) int {
	for i, it := range g.Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (g *Group) remove(id core.ItemID) {
	if i := g.indexOf(id); i >= 0 {
		g.Items = append(g.Items[:i], g.Items[i+1:]...)
	}
}

func (mb *MonthBudget) paymentGroup() *Group {
	g := mb.Group(PaymentGroupID)
	if g == nil {
		g = &Group{ID: PaymentGroupID, Name: core.CreditCardPaymentsGroup, System: true}
		mb.Groups = append([]*Group{g}, mb.Groups...)
	}
	return g
}

func (mb *MonthBudget) removeGroup(id core.GroupID) {
	for i, g := range mb.Groups {
		if g.ID == id {
			mb.Groups = append(mb.Groups[:i], mb.Groups[i+1:]...)
			return
		}
	}
}

// each visits every item of the month in display order.
func (mb *MonthBudget) each(fn func(*Group, *Item)) {
	for _, g := range mb.Groups {
		for _, it := range g.Items {
			fn(g, it)
		}
	}
}

// deriveStructure returns the groups of a fresh month: same groups and items
// as src, with no assigned money and nothing absorbed.
func deriveStructure(src []*Group) []*Group {
	out := make([]*Group, len(src))
	for i, g := range src {
		ng := &Group{ID: g.ID, Name: g.Name, System: g.System, Items: make([]*Item, len(g.Items))}
		for j, it := range g.Items {
			ng.Items[j] = &Item{ID: it.ID, Name: it.Name, System: it.System, AccountID: it.AccountID}
		}
		out[i] = ng
	}
	return out
}

// resyncStructure rebuilds dst's structure after src while keeping the user
// state of items and groups that exist in both.
func resyncStructure(src, dst []*Group) []*Group {
	prev := make(map[core.ItemID]*Item)
	for _, g := range dst {
		for _, it := range g.Items {
			prev[it.ID] = it
		}
	}
	out := deriveStructure(src)
	for _, g := range out {
		for _, it := range g.Items {
			if old, ok := prev[it.ID]; ok {
				it.Assigned = old.Assigned
				it.Absorbs = slices.Clone(old.Absorbs)
			}
		}
	}
	return out
}

func (mb *MonthBudget) String() string {
	return fmt.Sprintf("%s (RTA %s)", mb.Month, mb.ReadyToAssign)
}
