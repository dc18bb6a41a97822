// Package csvimport turns CSV files into transaction inputs and category
// rows for the budget engine. Malformed amounts read as zero and missing
// text fields as "Uncategorized"; rows that cannot be placed at all (no
// usable date, month or account) are skipped and reported.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"budgeteer/internal/budget"
	"budgeteer/internal/core"
)

// Skipped describes a row that was not imported. Line is 1-based and
// counts the header.
type Skipped struct {
	Line   int
	Reason string
}

// String renders the row as "line N: reason".
func (s Skipped) String() string { return fmt.Sprintf("line %d: %s", s.Line, s.Reason) }

var (
	transactionColumns = []string{"date", "payee", "group", "item", "amount", "account", "memo"}
	categoryColumns    = []string{"month", "group", "item", "assigned", "activity", "available"}
)

// AccountResolver maps an account name from a row to an account.
type AccountResolver func(name string) (core.AccountID, bool)

type table struct {
	index map[string]int
	rows  [][]string
	lines []int
}

func readTable(r io.Reader, columns []string) (table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var t table
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table{}, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		t.rows = append(t.rows, rec)
		t.lines = append(t.lines, line)
	}
	if len(t.rows) == 0 {
		return table{}, errors.New("read csv: empty file")
	}

	t.index = make(map[string]int)
	for i, name := range t.rows[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		for _, c := range columns {
			if name == c {
				t.index[c] = i
			}
		}
	}
	if len(t.index) > 0 {
		t.rows, t.lines = t.rows[1:], t.lines[1:]
		return t, nil
	}
	// no header: columns in their documented order
	for i, c := range columns {
		t.index[c] = i
	}
	return t, nil
}

func (t table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func orUncategorized(s string) string {
	if s == "" {
		return core.Uncategorized
	}
	return s
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ReadTransactions reads rows of date, payee, group, item, amount, and
// optionally account and memo. Rows without an account column, or naming
// an unknown account, go to fallback when it is set.
func ReadTransactions(r io.Reader, accounts AccountResolver, fallback core.AccountID) ([]budget.TransactionInput, []Skipped, error) {
	t, err := readTable(r, transactionColumns)
	if err != nil {
		return nil, nil, err
	}

	var (
		out     []budget.TransactionInput
		skipped []Skipped
	)
	for i, row := range t.rows {
		line := t.lines[i]
		if blank(row) {
			continue
		}
		date, err := core.ParseDate(t.get(row, "date"))
		if err != nil {
			skipped = append(skipped, Skipped{Line: line, Reason: fmt.Sprintf("date %q: %v", t.get(row, "date"), err)})
			continue
		}

		account := fallback
		if name := t.get(row, "account"); name != "" {
			if id, ok := accounts(name); ok {
				account = id
			}
		}
		if account == "" {
			skipped = append(skipped, Skipped{Line: line, Reason: fmt.Sprintf("unknown account %q", t.get(row, "account"))})
			continue
		}

		in := budget.TransactionInput{
			AccountID: account,
			Date:      date,
			Payee:     orUncategorized(t.get(row, "payee")),
			Group:     orUncategorized(t.get(row, "group")),
			Item:      orUncategorized(t.get(row, "item")),
			Amount:    core.AmountOrZero(t.get(row, "amount")),
			Memo:      t.get(row, "memo"),
		}
		if in.Group == core.ReadyToAssign {
			in.Item = core.ReadyToAssign
		}
		out = append(out, in)
	}
	return out, skipped, nil
}

// ReadCategories reads rows of month, group, item, assigned. Activity and
// available columns are accepted but not imported: both follow from the
// transactions.
func ReadCategories(r io.Reader) ([]budget.CategoryRow, []Skipped, error) {
	t, err := readTable(r, categoryColumns)
	if err != nil {
		return nil, nil, err
	}

	var (
		out     []budget.CategoryRow
		skipped []Skipped
	)
	for i, row := range t.rows {
		line := t.lines[i]
		if blank(row) {
			continue
		}
		m, err := core.ParseMonth(t.get(row, "month"))
		if err != nil {
			skipped = append(skipped, Skipped{Line: line, Reason: fmt.Sprintf("month %q: %v", t.get(row, "month"), err)})
			continue
		}
		group := orUncategorized(t.get(row, "group"))
		if group == core.ReadyToAssign || group == core.CreditCardPaymentsGroup {
			skipped = append(skipped, Skipped{Line: line, Reason: fmt.Sprintf("group %q is managed by the budget", group)})
			continue
		}
		out = append(out, budget.CategoryRow{
			Month:    m,
			Group:    group,
			Item:     orUncategorized(t.get(row, "item")),
			Assigned: core.AmountOrZero(t.get(row, "assigned")),
		})
	}
	return out, skipped, nil
}
