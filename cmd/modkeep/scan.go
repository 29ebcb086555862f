package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modkeep/modkeep/internal/scanner"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [category]",
		Short: "Reconcile the registry with the files on disk",
		Long:  "Walk the mod directories, register files the registry does not know, drop rows whose files vanished, and record moved files. Never touches the files themselves.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rebuild, _ := cmd.Flags().GetBool("rebuild")

			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			s := scanner.New(a.registry, a.store, a.order, a.log)
			ctx := context.Background()

			if rebuild {
				if len(args) == 1 {
					return fmt.Errorf("--rebuild re-scans every category and cannot be limited to one")
				}
				if err := a.registry.Reset(ctx); err != nil {
					return err
				}
			}

			var reports []scanner.Report
			if len(args) == 1 {
				category, err := parseCategoryArg(args[0])
				if err != nil {
					return err
				}
				report, err := s.Reconcile(ctx, category)
				if err != nil {
					return err
				}
				reports = []scanner.Report{report}
			} else {
				reports, err = s.ReconcileAll(ctx)
				if err != nil {
					return err
				}
			}

			changed := false
			for _, report := range reports {
				if report.Empty() {
					continue
				}
				changed = true
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d added, %d removed, %d moved, %d drifted\n",
					report.Category, len(report.Added), len(report.Removed), len(report.Moved), len(report.Drifted))
				for _, key := range report.Added {
					fmt.Fprintf(cmd.OutOrStdout(), "  + %s\n", key)
				}
				for _, key := range report.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", key)
				}
				for _, key := range report.Moved {
					fmt.Fprintf(cmd.OutOrStdout(), "  ~ %s\n", key)
				}
				for _, key := range report.Drifted {
					fmt.Fprintf(cmd.OutOrStdout(), "  ! %s\n", key)
				}
			}
			if !changed {
				fmt.Fprintln(cmd.OutOrStdout(), "Registry already matches the files on disk")
			}
			return nil
		},
	}

	cmd.Flags().Bool("rebuild", false, "Drop the registry and re-register everything from disk")

	return cmd
}
