package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"budgeteer/internal/log"
	"budgeteer/internal/services"
)

var errAuditFindings = errors.New("audit found inconsistencies")

func addAudit(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Recompute the stored budget and report values that disagree.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			logger := a.env.Logger
			if logger == nil {
				logger = log.Discard(log.ComponentAuditor)
			}
			report, err := services.NewAuditor(a.env.Backend, logger.WithComponent(log.ComponentAuditor)).
				Audit(cmd.Context(), a.session().UserID())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if report.OK() {
				fmt.Fprintf(w, "%d months consistent.\n", report.Months)
				return nil
			}
			for _, f := range report.Findings {
				fmt.Fprintln(w, red.Sprint(f.String()))
			}
			return fmt.Errorf("%w: %d findings", errAuditFindings, len(report.Findings))
		},
	}
	topLevel.AddCommand(cmd)
}
