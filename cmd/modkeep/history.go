package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newUndoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Undo the most recent action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			desc, err := a.engine.Undo(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Undid: %s\n", desc)
			return nil
		},
	}

	return cmd
}

func newRedoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "redo",
		Short: "Redo the most recently undone action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			desc, err := a.engine.Redo(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Redid: %s\n", desc)
			return nil
		},
	}

	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the recorded actions",
		Long:  "Show the recorded actions in commit order. The marker points at the most recent applied action; entries below it can be redone.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			records := a.engine.History()
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded actions")
				return nil
			}

			cursorAt := -1
			for i, r := range records {
				if r.Applied {
					cursorAt = i
				}
			}
			for i, r := range records {
				marker := " "
				if i == cursorAt {
					marker = ">"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %3d  %s\n", marker, r.Seq, r.Description)
			}
			return nil
		},
	}

	return cmd
}
