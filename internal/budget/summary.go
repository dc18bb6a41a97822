package budget

import "budgeteer/internal/core"

// Summary returns the read model of the month.
func (mb *MonthBudget) Summary() core.MonthSummary {
	s := core.MonthSummary{
		Month:             mb.Month,
		ReadyToAssign:     mb.ReadyToAssign,
		Income:            mb.Income,
		Assigned:          mb.Assigned,
		Activity:          mb.Activity,
		Available:         mb.Available,
		AbsorbedOverspend: mb.AbsorbedOverspend,
		ComputeErr:        mb.ComputeErr,
	}
	for _, g := range mb.Groups {
		gs := core.GroupSummary{ID: g.ID, Name: g.Name, System: g.System}
		for _, it := range g.Items {
			is := core.ItemSummary{
				ID:        it.ID,
				Name:      it.Name,
				System:    it.System,
				CarryIn:   it.CarryIn,
				Assigned:  it.Assigned,
				Activity:  it.Activity,
				Available: it.Available,
			}
			gs.Items = append(gs.Items, is)
			gs.Assigned = gs.Assigned.Add(it.Assigned)
			gs.Activity = gs.Activity.Add(it.Activity)
			gs.Available = gs.Available.Add(it.Available)
			if !it.System && it.Available.IsNegative() {
				s.Overspent = append(s.Overspent, is)
			}
		}
		s.Groups = append(s.Groups, gs)
	}
	return s
}
