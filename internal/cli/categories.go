package cli

import (
	"github.com/spf13/cobra"

	"budgeteer/internal/budget"
	"budgeteer/internal/core"
)

func monthFlag(cmd *cobra.Command, month *string) {
	cmd.Flags().StringVarP(month, "month", "m", "", "first month affected (YYYY-MM), defaults to the current month")
}

func addGroup(topLevel *cobra.Command, a *app) {
	group := &cobra.Command{
		Use:   "group",
		Short: "Manage category groups. Changes apply from the month onwards.",
	}

	var addMonth string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a category group.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			m, err := a.month([]string{addMonth}, 0)
			if err != nil {
				return err
			}
			return a.do(cmd, "create-group", func(e *budget.Engine) error {
				_, err := e.CreateGroup(m, args[0])
				return err
			})
		},
	}
	monthFlag(add, &addMonth)

	var renameMonth string
	rename := &cobra.Command{
		Use:   "rename NAME NEW_NAME",
		Short: "Rename a category group.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			m, err := a.month([]string{renameMonth}, 0)
			if err != nil {
				return err
			}
			return a.do(cmd, "rename-group", func(e *budget.Engine) error {
				g, err := findGroup(e.Month(m), args[0])
				if err != nil {
					return err
				}
				return e.RenameGroup(m, g.ID, args[1])
			})
		},
	}
	monthFlag(rename, &renameMonth)

	var rmMonth string
	rm := &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"delete"},
		Short:   "Delete an empty category group.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			m, err := a.month([]string{rmMonth}, 0)
			if err != nil {
				return err
			}
			return a.do(cmd, "delete-group", func(e *budget.Engine) error {
				g, err := findGroup(e.Month(m), args[0])
				if err != nil {
					return err
				}
				return e.DeleteGroup(m, g.ID)
			})
		},
	}
	monthFlag(rm, &rmMonth)

	group.AddCommand(add, rename, rm)
	topLevel.AddCommand(group)
}

func addItem(topLevel *cobra.Command, a *app) {
	item := &cobra.Command{
		Use:   "item",
		Short: "Manage category items. Changes apply from the month onwards.",
	}

	var addMonth string
	add := &cobra.Command{
		Use:   "add GROUP NAME",
		Short: "Create a category item in a group.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			m, err := a.month([]string{addMonth}, 0)
			if err != nil {
				return err
			}
			return a.do(cmd, "create-item", func(e *budget.Engine) error {
				g, err := findGroup(e.Month(m), args[0])
				if err != nil {
					return err
				}
				_, err = e.CreateItem(m, g.ID, args[1])
				return err
			})
		},
	}
	monthFlag(add, &addMonth)

	var renameMonth string
	rename := &cobra.Command{
		Use:   "rename GROUP/ITEM NEW_NAME",
		Short: "Rename a category item; its transactions follow.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			m, err := a.month([]string{renameMonth}, 0)
			if err != nil {
				return err
			}
			return a.do(cmd, "rename-item", func(e *budget.Engine) error {
				it, err := findItem(e.Month(m), args[0])
				if err != nil {
					return err
				}
				return e.RenameItem(m, it.ID, args[1])
			})
		},
	}
	monthFlag(rename, &renameMonth)

	var rmMonth, target string
	rm := &cobra.Command{
		Use:     "rm GROUP/ITEM",
		Aliases: []string{"delete"},
		Short:   "Delete a category item. An item holding money needs --to.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			m, err := a.month([]string{rmMonth}, 0)
			if err != nil {
				return err
			}
			return a.do(cmd, "delete-item", func(e *budget.Engine) error {
				mb := e.Month(m)
				it, err := findItem(mb, args[0])
				if err != nil {
					return err
				}
				var to core.ItemID
				if target != "" {
					dst, err := findItem(mb, target)
					if err != nil {
						return err
					}
					to = dst.ID
				}
				return e.DeleteItem(m, it.ID, to)
			})
		},
	}
	monthFlag(rm, &rmMonth)
	rm.Flags().StringVar(&target, "to", "", "category (GROUP/ITEM) that receives the item's money and transactions")

	item.AddCommand(add, rename, rm)
	topLevel.AddCommand(item)
}
