package core

// ItemSummary is the read model of one category item in one month.
type ItemSummary struct {
	ID        ItemID
	Name      string
	System    bool
	CarryIn   Money
	Assigned  Money
	Activity  Money
	Available Money
}

// GroupSummary aggregates the items of one group.
type GroupSummary struct {
	ID        GroupID
	Name      string
	System    bool
	Items     []ItemSummary
	Assigned  Money
	Activity  Money
	Available Money
}

// MonthSummary is a compact overview of one budget month.
type MonthSummary struct {
	Month             Month
	ReadyToAssign     Money
	Income            Money
	Assigned          Money
	Activity          Money
	Available         Money
	AbsorbedOverspend Money // cash overspending of the previous month that did not roll over
	Overspent         []ItemSummary
	Groups            []GroupSummary
	ComputeErr        error
}
