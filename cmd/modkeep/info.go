package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <category> <key>",
		Short: "Show an entry's metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := parseCategoryArg(args[0])
			if err != nil {
				return err
			}
			key := args[1]

			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			entry, err := a.registry.Get(context.Background(), category, key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key:       %s\n", entry.Key)
			fmt.Fprintf(out, "Name:      %s\n", entry.Name())
			fmt.Fprintf(out, "Category:  %s\n", entry.Category)
			if group := entry.Group(); group != "" {
				fmt.Fprintf(out, "Group:     %s\n", group)
			}
			status := "disabled"
			if entry.Enabled {
				status = "enabled"
			}
			fmt.Fprintf(out, "Status:    %s\n", status)
			if entry.Location != "" {
				fmt.Fprintf(out, "Location:  %s\n", entry.Location)
			}
			if entry.OrderIndex != nil {
				fmt.Fprintf(out, "Order:     %d\n", *entry.OrderIndex)
			}
			if entry.RememberedIndex != nil {
				fmt.Fprintf(out, "Remembered order: %d\n", *entry.RememberedIndex)
			}
			if entry.Protected {
				fmt.Fprintln(out, "Protected: yes")
			}
			fmt.Fprintf(out, "Added:     %s\n", entry.CreatedAt.Format(time.RFC3339))
			return nil
		},
	}

	return cmd
}
