package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modkeep/modkeep/internal/mods"
)

func newGroupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group <category> <key> [group-path]",
		Short: "Move an entry to a group",
		Long:  "Move an entry to a slash-separated group path (e.g. Graphics/HD). Omitting the path ungroups it.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCategoryArg(args[0])
			if err != nil {
				return err
			}
			key := args[1]
			group := ""
			if len(args) == 3 {
				group = args[2]
			}

			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.engine.SetGroup(context.Background(), category, key, mods.SplitGroup(group)); err != nil {
				return err
			}

			if group == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Ungrouped %s\n", key)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to group %s\n", key, group)
			}
			return nil
		},
	}

	return cmd
}
