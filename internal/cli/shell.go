package cli

import (
	"bufio"
	"fmt"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"budgeteer/internal/budget"
)

const prompt = "budgeteer> "

func addShell(topLevel *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively, with undo and redo.",
		Long: `Run budgeteer commands line by line against one session.
Undo and redo walk back and forth through the commands of the session.
Type exit or quit, or send EOF, to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			for {
				fmt.Fprint(out, prompt)
				if !in.Scan() {
					fmt.Fprintln(out)
					return in.Err()
				}
				args, err := shellwords.Parse(in.Text())
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
					continue
				}
				if len(args) == 0 {
					continue
				}
				if args[0] == "exit" || args[0] == "quit" {
					return nil
				}

				line := newTree(a)
				addHistory(line, a)
				line.SilenceUsage = true
				line.SetArgs(args)
				line.SetIn(cmd.InOrStdin())
				line.SetOut(out)
				line.SetErr(cmd.ErrOrStderr())
				if err := line.ExecuteContext(cmd.Context()); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
				}
			}
		},
	}
	topLevel.AddCommand(cmd)
}

func addHistory(topLevel *cobra.Command, a *app) {
	undo := &cobra.Command{
		Use:   "undo",
		Short: "Reverse the last command of the session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			var (
				kind  string
				moved bool
			)
			if err := a.do(cmd, "undo", func(e *budget.Engine) error {
				kind, _ = e.NextUndo()
				var err error
				moved, err = e.Undo()
				return err
			}); err != nil {
				return err
			}
			if !moved {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Undid %s.\n", kind)
			return nil
		},
	}
	redo := &cobra.Command{
		Use:   "redo",
		Short: "Re-apply the last undone command.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			var moved bool
			if err := a.do(cmd, "redo", func(e *budget.Engine) error {
				var err error
				moved, err = e.Redo()
				return err
			}); err != nil {
				return err
			}
			if !moved {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to redo.")
			}
			return nil
		},
	}
	topLevel.AddCommand(undo, redo)
}
