// Package worker reacts to month-changed events.
package worker

import (
	"context"
	"fmt"

	"budgeteer/internal/amqp"
	"budgeteer/internal/log"
	"budgeteer/internal/services"
)

// Auditor is satisfied by *services.Auditor.
type Auditor interface {
	Audit(ctx context.Context, userID string) (services.Report, error)
}

// AuditWorker re-audits a user's persisted budget whenever one of their
// months changes.
type AuditWorker struct {
	auditor Auditor
	logger  *log.Logger
	reports func(services.Report)
}

// NewAuditWorker creates a worker. onReport, if not nil, receives every
// finished report.
func NewAuditWorker(auditor Auditor, logger *log.Logger, onReport func(services.Report)) *AuditWorker {
	if logger == nil {
		logger = log.Discard(log.ComponentWorker)
	}
	return &AuditWorker{
		auditor: auditor,
		logger:  logger.WithComponent(log.ComponentWorker),
		reports: onReport,
	}
}

// HandleMonthChanged audits the user named by msg. Findings are logged and
// acknowledged; only a failure to load the budget is returned, so the
// message is redelivered.
func (w *AuditWorker) HandleMonthChanged(ctx context.Context, msg *amqp.MonthChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing month changed message",
		log.FieldUserID, msg.UserID,
		log.FieldMonths, msg.Months,
		log.FieldOperation, msg.Kind)

	report, err := w.auditor.Audit(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("audit %s: %w", msg.UserID, err)
	}
	w.record(ctx, report)
	return nil
}

// StartupAudit audits each user once, so problems persisted while the
// worker was down are not missed.
func (w *AuditWorker) StartupAudit(ctx context.Context, users []string) error {
	failed := 0
	for _, u := range users {
		report, err := w.auditor.Audit(ctx, u)
		if err != nil {
			w.logger.ErrorContext(ctx, "Startup audit failed", log.FieldUserID, u, log.FieldError, err)
			failed++
			continue
		}
		w.record(ctx, report)
	}
	if failed > 0 {
		return fmt.Errorf("startup audit: %d of %d users failed", failed, len(users))
	}
	return nil
}

func (w *AuditWorker) record(ctx context.Context, report services.Report) {
	for _, f := range report.Findings {
		w.logger.WarnContext(ctx, "Persisted budget disagrees with recomputation",
			log.FieldUserID, report.UserID,
			log.FieldMonth, f.Month,
			log.FieldGroup, f.Group,
			log.FieldItem, f.Item,
			"field", f.Field,
			"detail", f.String())
	}
	if report.OK() {
		w.logger.DebugContext(ctx, "Budget consistent", log.FieldUserID, report.UserID, log.FieldMonths, report.Months)
	}
	if w.reports != nil {
		w.reports(report)
	}
}
