package cli

import (
	"fmt"
	"strings"

	"budgeteer/internal/budget"
	"budgeteer/internal/core"
)

func (a *app) month(args []string, i int) (core.Month, error) {
	if len(args) <= i || args[i] == "" {
		return core.MonthOf(a.now()), nil
	}
	return core.ParseMonth(args[i])
}

// splitRef splits "Group/Item". A bare name is a group.
func splitRef(ref string) (group, item string) {
	group, item, _ = strings.Cut(ref, "/")
	return strings.TrimSpace(group), strings.TrimSpace(item)
}

func findGroup(mb *budget.MonthBudget, name string) (*budget.Group, error) {
	g := mb.GroupByName(name)
	if g == nil {
		return nil, fmt.Errorf("group %q in %s: %w", name, mb.Month, core.ErrNotFound)
	}
	return g, nil
}

func findItem(mb *budget.MonthBudget, ref string) (*budget.Item, error) {
	group, item := splitRef(ref)
	if item == "" {
		return nil, fmt.Errorf("category %q: want Group/Item", ref)
	}
	it := mb.Lookup(group, item)
	if it == nil {
		return nil, fmt.Errorf("category %q in %s: %w", ref, mb.Month, core.ErrNotFound)
	}
	return it, nil
}

func findAccount(e *budget.Engine, ref string) (core.Account, error) {
	for _, acc := range e.Accounts() {
		if acc.Name == ref || string(acc.ID) == ref {
			return acc, nil
		}
	}
	return core.Account{}, fmt.Errorf("account %q: %w", ref, core.ErrNotFound)
}

// findTx resolves a transaction by a unique id prefix.
func findTx(e *budget.Engine, prefix string) (core.TxID, error) {
	matches := e.Transactions(func(tx core.Transaction) bool {
		return strings.HasPrefix(string(tx.ID), prefix)
	})
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("transaction %q: %w", prefix, core.ErrNotFound)
	case 1:
		return matches[0].ID, nil
	}
	return "", fmt.Errorf("transaction %q is ambiguous (%d matches)", prefix, len(matches))
}

func accountNames(e *budget.Engine) map[core.AccountID]string {
	names := make(map[core.AccountID]string)
	for _, acc := range e.Accounts() {
		names[acc.ID] = acc.Name
	}
	return names
}
