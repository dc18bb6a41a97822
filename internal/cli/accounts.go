package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgeteer/internal/budget"
	"budgeteer/internal/core"
)

func addAccount(topLevel *cobra.Command, a *app) {
	account := &cobra.Command{
		Use:     "account",
		Aliases: []string{"accounts"},
		Short:   "Manage accounts.",
	}

	var typ, opening, issuer string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create an account. Credit accounts get a payment category.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			t := core.AccountType(typ)
			if !t.IsValid() {
				return fmt.Errorf("type %q: %w", typ, core.ErrInvalidAccountType)
			}
			var balance core.Money
			if opening != "" {
				var err error
				if balance, err = core.ParseAmount(opening); err != nil {
					return err
				}
			}
			return a.do(cmd, "create-account", func(e *budget.Engine) error {
				_, err := e.CreateAccount(args[0], t, balance, budget.WithIssuer(issuer))
				return err
			})
		},
	}
	add.Flags().StringVarP(&typ, "type", "t", string(core.Debit), "account type: debit or credit")
	add.Flags().StringVar(&opening, "opening", "", "opening balance, posted as a starting balance transaction")
	add.Flags().StringVar(&issuer, "issuer", "", "bank or card issuer")

	rename := &cobra.Command{
		Use:   "rename NAME NEW_NAME",
		Short: "Rename an account.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.do(cmd, "rename-account", func(e *budget.Engine) error {
				acc, err := findAccount(e, args[0])
				if err != nil {
					return err
				}
				return e.RenameAccount(acc.ID, args[1])
			})
		},
	}

	rm := &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"delete"},
		Short:   "Delete an account with its transactions.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.do(cmd, "remove-account", func(e *budget.Engine) error {
				acc, err := findAccount(e, args[0])
				if err != nil {
					return err
				}
				return e.RemoveAccount(acc.ID)
			})
		},
	}

	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List accounts and balances.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			printAccounts(cmd.OutOrStdout(), a.engine().Accounts())
			return nil
		},
	}

	account.AddCommand(add, rename, rm, ls)
	topLevel.AddCommand(account)
}
