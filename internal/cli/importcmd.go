package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"budgeteer/internal/budget"
	"budgeteer/internal/core"
	"budgeteer/internal/csvimport"
)

func addImport(topLevel *cobra.Command, a *app) {
	imp := &cobra.Command{
		Use:   "import",
		Short: "Import transactions or category assignments from CSV.",
	}

	var account string
	txns := &cobra.Command{
		Use:   "transactions FILE",
		Short: "Import date,payee,group,item,amount[,account,memo] rows as one undoable step.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			e := a.engine()
			var fallback core.AccountID
			if account != "" {
				acc, err := findAccount(e, account)
				if err != nil {
					return err
				}
				fallback = acc.ID
			}
			resolve := func(name string) (core.AccountID, bool) {
				acc, err := findAccount(e, name)
				return acc.ID, err == nil
			}
			inputs, skipped, err := csvimport.ReadTransactions(f, resolve, fallback)
			if err != nil {
				return err
			}
			printSkipped(cmd.ErrOrStderr(), args[0], skipped)

			var ids []core.TxID
			if err := a.do(cmd, "import-transactions", func(e *budget.Engine) error {
				ids, err = e.ImportTransactions(inputs)
				return err
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions, skipped %d rows.\n", len(ids), len(skipped))
			return nil
		},
	}
	txns.Flags().StringVarP(&account, "account", "a", "", "account for rows without a known account")

	cats := &cobra.Command{
		Use:   "categories FILE",
		Short: "Import month,group,item,assigned rows as one undoable step.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, skipped, err := csvimport.ReadCategories(f)
			if err != nil {
				return err
			}
			printSkipped(cmd.ErrOrStderr(), args[0], skipped)
			if err := a.do(cmd, "import-categories", func(e *budget.Engine) error {
				return e.ImportCategories(rows)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d category rows, skipped %d rows.\n", len(rows), len(skipped))
			return nil
		},
	}

	imp.AddCommand(txns, cats)
	topLevel.AddCommand(imp)
}

func printSkipped(w io.Writer, file string, skipped []csvimport.Skipped) {
	for _, s := range skipped {
		fmt.Fprintf(w, "%s:%d: skipped: %s\n", file, s.Line, s.Reason)
	}
}
