package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/modkeep/modkeep/internal/loadorder"
	"github.com/modkeep/modkeep/internal/mods"
)

func newOrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Inspect and edit the plugin load order",
	}

	cmd.AddCommand(newOrderListCmd())
	cmd.AddCommand(newOrderMoveCmd())
	cmd.AddCommand(newOrderRevertCmd())

	return cmd
}

func newOrderListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the load order as the game reads it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			index := 0
			for _, row := range a.order.Rows() {
				if row.Inert {
					fmt.Fprintf(cmd.OutOrStdout(), "   -  %s (disabled)\n", row.Name)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", index, row.Name)
				index++
			}
			return nil
		},
	}

	return cmd
}

func newOrderMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <plugin> <index>",
		Short: "Move an enabled plugin to a new position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			newIndex, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index: %s", args[1])
			}

			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.engine.Reorder(context.Background(), mods.CategoryPlugin, key, newIndex); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to position %d\n", key, newIndex)
			return nil
		},
	}

	return cmd
}

func newOrderRevertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Restore the default load order",
		Long:  "Replace the whole load order with the shipped game masters, recorded as one undoable action.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.engine.RevertOrder(context.Background(), mods.CategoryPlugin, loadorder.DefaultProtected); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reverted load order to default")
			return nil
		},
	}

	return cmd
}
