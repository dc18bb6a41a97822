package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgeteer/internal/budget"
	"budgeteer/internal/core"
)

func (a *app) date(s string) (core.Date, error) {
	if s == "" {
		t := a.now()
		return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return core.ParseDate(s)
}

type txFlags struct {
	account  string
	date     string
	payee    string
	category string
	amount   string
	memo     string
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.account, "account", "a", "", "account name")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVarP(&f.payee, "payee", "p", "", "payee")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", `GROUP/ITEM, or "Ready to Assign" for income`)
	cmd.Flags().StringVar(&f.amount, "amount", "", "signed amount, negative for an outflow")
	cmd.Flags().StringVar(&f.memo, "memo", "", "memo")
}

func addPost(topLevel *cobra.Command, a *app) {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Record a transaction.",
		Example: `  budgeteer post -a Checking -p Employer -c "Ready to Assign" --amount 3,000
  budgeteer post -a Visa -p Grocer -c Food/Groceries --amount -82.15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			date, err := a.date(f.date)
			if err != nil {
				return err
			}
			amount, err := core.ParseAmount(f.amount)
			if err != nil {
				return err
			}
			group, item := splitRef(f.category)
			return a.do(cmd, "post-transaction", func(e *budget.Engine) error {
				acc, err := findAccount(e, f.account)
				if err != nil {
					return err
				}
				id, err := e.PostTransaction(budget.TransactionInput{
					AccountID: acc.ID,
					Date:      date,
					Payee:     f.payee,
					Group:     group,
					Item:      item,
					Amount:    amount,
					Memo:      f.memo,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Posted %s\n", shortID(id))
				return nil
			})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")
	topLevel.AddCommand(cmd)
}

func addTransfer(topLevel *cobra.Command, a *app) {
	var date, memo string
	cmd := &cobra.Command{
		Use:   "transfer FROM TO AMOUNT",
		Short: "Move money between accounts. Paying a card from a debit account uses its payment category.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			d, err := a.date(date)
			if err != nil {
				return err
			}
			amount, err := core.ParseAmount(args[2])
			if err != nil {
				return err
			}
			return a.do(cmd, "transfer", func(e *budget.Engine) error {
				from, err := findAccount(e, args[0])
				if err != nil {
					return err
				}
				to, err := findAccount(e, args[1])
				if err != nil {
					return err
				}
				_, err = e.Transfer(from.ID, to.ID, d, amount, memo)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&memo, "memo", "", "memo")
	topLevel.AddCommand(cmd)
}

func addTx(topLevel *cobra.Command, a *app) {
	tx := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"txn", "transactions"},
		Short:   "List, edit and delete transactions.",
	}

	var month, account string
	ls := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List transactions in date order.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			e := a.engine()
			var filters []func(core.Transaction) bool
			if month != "" {
				m, err := core.ParseMonth(month)
				if err != nil {
					return err
				}
				filters = append(filters, func(tx core.Transaction) bool { return m.Contains(tx.Date) })
			}
			if account != "" {
				acc, err := findAccount(e, account)
				if err != nil {
					return err
				}
				filters = append(filters, func(tx core.Transaction) bool { return tx.AccountID == acc.ID })
			}
			txns := e.Transactions(func(tx core.Transaction) bool {
				for _, keep := range filters {
					if !keep(tx) {
						return false
					}
				}
				return true
			})
			printTransactions(cmd.OutOrStdout(), txns, accountNames(e))
			return nil
		},
	}
	ls.Flags().StringVarP(&month, "month", "m", "", "only this month (YYYY-MM)")
	ls.Flags().StringVarP(&account, "account", "a", "", "only this account")

	var f txFlags
	var transferTo string
	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a transaction; both legs of a transfer follow.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			flags := cmd.Flags()
			return a.do(cmd, "edit-transaction", func(e *budget.Engine) error {
				id, err := findTx(e, args[0])
				if err != nil {
					return err
				}
				in, err := e.Input(id)
				if err != nil {
					return err
				}
				if flags.Changed("account") {
					acc, err := findAccount(e, f.account)
					if err != nil {
						return err
					}
					in.AccountID = acc.ID
				}
				if flags.Changed("transfer") {
					in.TransferAccountID = ""
					if transferTo != "" {
						acc, err := findAccount(e, transferTo)
						if err != nil {
							return err
						}
						in.TransferAccountID = acc.ID
					}
				}
				if flags.Changed("date") {
					if in.Date, err = core.ParseDate(f.date); err != nil {
						return err
					}
				}
				if flags.Changed("amount") {
					if in.Amount, err = core.ParseAmount(f.amount); err != nil {
						return err
					}
				}
				if flags.Changed("payee") {
					in.Payee = f.payee
				}
				if flags.Changed("category") {
					in.Group, in.Item = splitRef(f.category)
				}
				if flags.Changed("memo") {
					in.Memo = f.memo
				}
				return e.EditTransaction(id, in)
			})
		},
	}
	f.register(edit)
	edit.Flags().StringVar(&transferTo, "transfer", "", "turn into a transfer with this account; empty makes it a regular transaction")

	rm := &cobra.Command{
		Use:     "rm ID...",
		Aliases: []string{"delete"},
		Short:   "Delete transactions as one undoable step.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.do(cmd, "delete-transactions", func(e *budget.Engine) error {
				ids := make([]core.TxID, 0, len(args))
				for _, arg := range args {
					id, err := findTx(e, arg)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
				return e.DeleteTransactions(ids...)
			})
		},
	}

	tx.AddCommand(ls, edit, rm)
	topLevel.AddCommand(tx)
}
