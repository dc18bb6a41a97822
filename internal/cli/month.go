package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgeteer/internal/budget"
	"budgeteer/internal/core"
)

func addMonth(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "month [YYYY-MM]",
		Short: "Show the budget of a month, the current one by default.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			m, err := a.month(args, 0)
			if err != nil {
				return err
			}
			var s core.MonthSummary
			if err := a.do(cmd, "view-month", func(e *budget.Engine) error {
				s = e.Summary(m)
				return nil
			}); err != nil {
				return err
			}
			printMonth(cmd.OutOrStdout(), s)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addAssign(topLevel *cobra.Command, a *app) {
	var month string
	cmd := &cobra.Command{
		Use:   "assign GROUP/ITEM AMOUNT",
		Short: "Set the amount assigned to a category. Unparseable amounts assign zero.",
		Example: `  budgeteer assign Bills/Rent 1,200
  budgeteer assign --month 2025-02 "Food/Groceries" '$350.50'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			m, err := a.month([]string{month}, 0)
			if err != nil {
				return err
			}
			var assigned, rta core.Money
			if err := a.do(cmd, "set-assigned", func(e *budget.Engine) error {
				it, err := findItem(e.Month(m), args[0])
				if err != nil {
					return err
				}
				if assigned, err = e.AssignText(m, it.ID, args[1]); err != nil {
					return err
				}
				rta = e.ReadyToAssign(m)
				return nil
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s. Ready to Assign: %s\n", money(assigned), args[0], money(rta))
			return nil
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "budget month (YYYY-MM), defaults to the current month")
	topLevel.AddCommand(cmd)
}

func addMove(topLevel *cobra.Command, a *app) {
	var month string
	cmd := &cobra.Command{
		Use:   "move FROM TO AMOUNT",
		Short: "Move assigned money from one category to another.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			m, err := a.month([]string{month}, 0)
			if err != nil {
				return err
			}
			amount, err := core.ParseAmount(args[2])
			if err != nil {
				return err
			}
			return a.do(cmd, "move-assigned", func(e *budget.Engine) error {
				mb := e.Month(m)
				from, err := findItem(mb, args[0])
				if err != nil {
					return err
				}
				to, err := findItem(mb, args[1])
				if err != nil {
					return err
				}
				return e.MoveAssigned(m, from.ID, to.ID, amount)
			})
		},
	}
	cmd.Flags().StringVarP(&month, "month", "m", "", "budget month (YYYY-MM), defaults to the current month")
	topLevel.AddCommand(cmd)
}
