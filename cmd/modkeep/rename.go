package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <category> <key> [name]",
		Short: "Set or clear an entry's display name",
		Long:  "Set the display name shown instead of the file name. Omitting the name clears it.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCategoryArg(args[0])
			if err != nil {
				return err
			}
			key := args[1]
			name := ""
			if len(args) == 3 {
				name = args[2]
			}

			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.engine.Rename(context.Background(), category, key, name); err != nil {
				return err
			}

			if name == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared name of %s\n", key)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", key, name)
			}
			return nil
		},
	}

	return cmd
}
