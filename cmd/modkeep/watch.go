package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modkeep/modkeep/internal/mods"
	"github.com/modkeep/modkeep/internal/scanner"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Report external changes to the mod directories",
		Long:  "Watch the category directories and report files changed outside modkeep. Drift is only reported; run 'modkeep scan' to fold it into the registry.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := scanner.NewWatcher(a.gameDir, a.log, func(category mods.Category, path string) {
				fmt.Fprintf(cmd.OutOrStdout(), "drift: %s %s\n", category, path)
			})

			fmt.Fprintln(cmd.OutOrStdout(), "Watching for external changes (Ctrl-C to stop)")
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	return cmd
}
