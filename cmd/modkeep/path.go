package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modkeep/modkeep/internal/config"
)

func newPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Configure the game installation path",
	}

	cmd.AddCommand(newPathSetCmd())
	cmd.AddCommand(newPathShowCmd())

	return cmd
}

func newPathSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <dir>",
		Short: "Save the game installation directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SaveGameDir(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Game path set to %s\n", args[0])
			return nil
		},
	}

	return cmd
}

func newPathShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configured game installation directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gameDir, err := config.GetGameDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), gameDir)
			return nil
		},
	}

	return cmd
}
