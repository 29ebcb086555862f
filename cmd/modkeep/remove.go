package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <category> <key>",
		Short: "Delete an entry's files and registry row",
		Long:  "Delete the entry's backing files and forget it. This is permanent: removal never enters the undo history.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCategoryArg(args[0])
			if err != nil {
				return err
			}
			key := args[1]

			if !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Permanently delete %s? This cannot be undone. [y/N]: ", key)
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.engine.Remove(context.Background(), category, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", key)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}
