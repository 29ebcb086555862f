package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newEnableCmd() *cobra.Command {
	var preserve bool

	cmd := &cobra.Command{
		Use:   "enable <category> <key>...",
		Short: "Enable one or more mod entries",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, args, true, preserve)
		},
	}

	cmd.Flags().BoolVar(&preserve, "preserve-position", true, "Re-insert plugins at their remembered load-order slot")

	return cmd
}

func newDisableCmd() *cobra.Command {
	var preserve bool

	cmd := &cobra.Command{
		Use:   "disable <category> <key>...",
		Short: "Disable one or more mod entries",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, args, false, preserve)
		},
	}

	cmd.Flags().BoolVar(&preserve, "preserve-position", true, "Keep the load-order slot so other plugins do not shift")

	return cmd
}

func runToggle(cmd *cobra.Command, args []string, enable, preserve bool) error {
	category, err := parseCategoryArg(args[0])
	if err != nil {
		return err
	}
	keys := args[1:]

	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	verb := "Disabled"
	if enable {
		verb = "Enabled"
	}

	if len(keys) == 1 {
		if err := a.engine.Toggle(ctx, category, keys[0], enable, preserve); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, keys[0])
		return nil
	}

	if err := a.engine.BulkToggle(ctx, category, keys, enable, preserve); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d entries\n", verb, len(keys))
	return nil
}
