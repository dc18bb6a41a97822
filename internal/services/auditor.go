package services

import (
	"context"
	"errors"
	"fmt"

	"budgeteer/internal/budget"
	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/store"
)

// Finding is one persisted value that disagrees with the recomputed budget.
type Finding struct {
	Month     string
	Group     string
	Item      string
	Field     string
	Persisted core.Money
	Computed  core.Money
	Detail    string
}

// String describes the disagreement in one line.
func (f Finding) String() string {
	if f.Detail != "" {
		return f.Detail
	}
	if f.Item == "" {
		return fmt.Sprintf("%s %s: persisted %s, computed %s", f.Month, f.Field, f.Persisted, f.Computed)
	}
	return fmt.Sprintf("%s %s / %s %s: persisted %s, computed %s",
		f.Month, f.Group, f.Item, f.Field, f.Persisted, f.Computed)
}

// Report is the outcome of one audit of a user's budget.
type Report struct {
	UserID   string
	Months   int
	Findings []Finding
}

// OK reports whether the audit found nothing.
func (r Report) OK() bool { return len(r.Findings) == 0 }

// Auditor reloads a user's persisted budget, recomputes it and compares.
type Auditor struct {
	store  store.Backend
	logger *log.Logger
}

// NewAuditor creates an Auditor reading from b.
func NewAuditor(b store.Backend, logger *log.Logger) *Auditor {
	if logger == nil {
		logger = log.Discard(log.ComponentAuditor)
	}
	return &Auditor{store: b, logger: logger.WithComponent(log.ComponentAuditor)}
}

// Audit checks every persisted month of userID. An error means the budget
// could not be loaded; disagreements are reported as findings.
func (a *Auditor) Audit(ctx context.Context, userID string) (Report, error) {
	snap, err := load(ctx, a.store, userID)
	if err != nil {
		return Report{}, fmt.Errorf("load budget of %s: %w", userID, err)
	}
	report := Report{UserID: userID, Months: len(snap.months)}

	ledger, err := budget.Restore(snap.months, snap.accounts, snap.txns)
	if err != nil {
		return Report{}, fmt.Errorf("restore budget of %s: %w", userID, err)
	}

	if err := ledger.CheckMirrors(); err != nil {
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			for _, e := range joined.Unwrap() {
				report.Findings = append(report.Findings, Finding{Field: "mirror", Detail: e.Error()})
			}
		} else {
			report.Findings = append(report.Findings, Finding{Field: "mirror", Detail: err.Error()})
		}
	}

	for _, doc := range snap.months {
		report.Findings = append(report.Findings, compareMonth(ledger, doc)...)
	}

	a.logger.InfoContext(ctx, "Audit finished",
		log.FieldUserID, userID,
		log.FieldMonths, report.Months,
		log.FieldCount, len(report.Findings))
	return report, nil
}

func compareMonth(l *budget.Ledger, doc store.MonthDocument) []Finding {
	m, err := core.ParseMonth(doc.Month)
	if err != nil {
		return []Finding{{Month: doc.Month, Field: "month", Detail: err.Error()}}
	}
	mb, ok := l.Materialized(m)
	if !ok {
		return nil
	}

	var out []Finding
	if mb.ComputeErr != nil {
		out = append(out, Finding{Month: doc.Month, Field: "compute", Detail: mb.ComputeErr.Error()})
	}
	if doc.ReadyToAssign != mb.ReadyToAssign {
		out = append(out, Finding{Month: doc.Month, Field: "ready_to_assign", Persisted: doc.ReadyToAssign, Computed: mb.ReadyToAssign})
	}

	for _, c := range doc.Data.Categories {
		for _, it := range c.CategoryItems {
			live := mb.Lookup(c.Name, it.Name)
			if live == nil {
				continue
			}
			check := func(field string, persisted, computed core.Money) {
				if persisted != computed {
					out = append(out, Finding{
						Month: doc.Month, Group: c.Name, Item: it.Name, Field: field,
						Persisted: persisted, Computed: computed,
					})
				}
			}
			check("activity", it.Activity, live.Activity)
			check("available", it.Available, live.Available)
		}
	}
	return out
}
