package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/modkeep/modkeep/internal/mods"
)

func newListCmd() *cobra.Command {
	var (
		format       string
		enabledOnly  bool
		disabledOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list [category]",
		Short: "List managed mod entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			categories := mods.All()
			if len(args) == 1 {
				category, err := parseCategoryArg(args[0])
				if err != nil {
					return err
				}
				categories = []mods.Category{category}
			}
			if enabledOnly && disabledOnly {
				return fmt.Errorf("--enabled and --disabled are mutually exclusive")
			}

			a, cleanup, err := newApp()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			var entries []mods.Entry
			for _, category := range categories {
				list, err := a.registry.List(ctx, category)
				if err != nil {
					return err
				}
				for _, e := range list {
					if enabledOnly && !e.Enabled {
						continue
					}
					if disabledOnly && e.Enabled {
						continue
					}
					entries = append(entries, e)
				}
			}

			switch format {
			case "json":
				return listJSON(cmd, entries)
			case "table":
				listTable(cmd, entries)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "Show enabled entries only")
	cmd.Flags().BoolVar(&disabledOnly, "disabled", false, "Show disabled entries only")

	return cmd
}

type listOutputEntry struct {
	Category   string `json:"category"`
	Key        string `json:"key"`
	Name       string `json:"name"`
	Group      string `json:"group,omitempty"`
	Enabled    bool   `json:"enabled"`
	Location   string `json:"location,omitempty"`
	OrderIndex *int64 `json:"order_index,omitempty"`
	Protected  bool   `json:"protected,omitempty"`
	Created    string `json:"created"`
}

func listJSON(cmd *cobra.Command, entries []mods.Entry) error {
	output := make([]listOutputEntry, 0, len(entries))
	for _, e := range entries {
		output = append(output, listOutputEntry{
			Category:   string(e.Category),
			Key:        e.Key,
			Name:       e.Name(),
			Group:      e.Group(),
			Enabled:    e.Enabled,
			Location:   e.Location,
			OrderIndex: e.OrderIndex,
			Protected:  e.Protected,
			Created:    e.CreatedAt.Format(time.RFC3339),
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

func listTable(cmd *cobra.Command, entries []mods.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	// Leave the fixed columns their natural width and give the name
	// whatever remains; go-pretty's WidthMax mishandles wide runes, so
	// names are truncated up front with runewidth.
	nameWidth := getTerminalWidth() - 60
	if nameWidth < 16 {
		nameWidth = 16
	}

	t.AppendHeader(table.Row{"Category", "Key", "Name", "Group", "Status", "Order"})
	for _, e := range entries {
		status := "disabled"
		if e.Enabled {
			status = "enabled"
		}
		if e.Protected {
			status += " *"
		}
		orderCol := ""
		if e.OrderIndex != nil {
			orderCol = fmt.Sprintf("%d", *e.OrderIndex)
		}
		t.AppendRow(table.Row{
			string(e.Category),
			e.Key,
			runewidth.Truncate(e.Name(), nameWidth, "..."),
			e.Group(),
			status,
			orderCol,
		})
	}
	t.Render()
}
