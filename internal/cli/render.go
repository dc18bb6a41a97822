package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"budgeteer/internal/core"
)

var (
	bold = color.New(color.Bold)
	red  = color.New(color.FgRed)
	dim  = color.New(color.Faint)
)

func money(m core.Money) string {
	if m.IsNegative() {
		return red.Sprint(m.String())
	}
	return m.String()
}

func printMonth(w io.Writer, s core.MonthSummary) {
	fmt.Fprintf(w, "%s  Ready to Assign %s\n", bold.Sprint(s.Month), bold.Sprint(money(s.ReadyToAssign)))
	if s.ComputeErr != nil {
		fmt.Fprintln(w, red.Sprintf("warning: %v; showing the last computed Ready to Assign", s.ComputeErr))
	}
	if !s.AbsorbedOverspend.IsZero() {
		fmt.Fprintf(w, "Overspent last month: %s\n", money(s.AbsorbedOverspend.Neg()))
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("CATEGORY", "CARRY", "ASSIGNED", "ACTIVITY", "AVAILABLE")
	for _, g := range s.Groups {
		tbl.AddRow(bold.Sprint(g.Name), "", bold.Sprint(money(g.Assigned)), bold.Sprint(money(g.Activity)), bold.Sprint(money(g.Available)))
		for _, it := range g.Items {
			tbl.AddRow("  "+it.Name, money(it.CarryIn), money(it.Assigned), money(it.Activity), money(it.Available))
		}
	}
	tbl.AddRow("", "", money(s.Assigned), money(s.Activity), money(s.Available))
	for i := 1; i < 5; i++ {
		tbl.RightAlign(i)
	}
	fmt.Fprintln(w, tbl)
}

func printAccounts(w io.Writer, accounts []core.Account) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("ACCOUNT", "TYPE", "ISSUER", "BALANCE")
	var total core.Money
	for _, acc := range accounts {
		tbl.AddRow(acc.Name, string(acc.Type), acc.Issuer, money(acc.Balance))
		total = total.Add(acc.Balance)
	}
	tbl.AddRow(dim.Sprint("net worth"), "", "", bold.Sprint(money(total)))
	tbl.RightAlign(3)
	fmt.Fprintln(w, tbl)
}

func printTransactions(w io.Writer, txns []core.Transaction, accounts map[core.AccountID]string) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40
	tbl.AddRow("ID", "DATE", "ACCOUNT", "PAYEE", "CATEGORY", "AMOUNT", "MEMO")
	for _, tx := range txns {
		category := ""
		switch {
		case tx.Kind == core.Transfer:
			category = dim.Sprint("transfer")
		case tx.IsIncome():
			category = core.ReadyToAssign
		case tx.Categorized():
			category = tx.Group + "/" + tx.Item
		}
		tbl.AddRow(shortID(tx.ID), tx.Date.String(), accounts[tx.AccountID], tx.Payee, category, money(tx.Amount), tx.Memo)
	}
	tbl.RightAlign(5)
	fmt.Fprintln(w, tbl)
}

func shortID(id core.TxID) string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}
