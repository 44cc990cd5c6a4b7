package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/OpenTraceLab/kisch/pkg/kicad/hierarchy"
	"github.com/spf13/cobra"
)

var (
	sheetsJobs     int
	sheetsMaxDepth int
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets <root_schematic>",
	Short: "Show the sheet hierarchy",
	Long: `Load a root schematic and every sheet below it and print the tree.

Sheets that cannot be read or parsed are reported in place; the rest of the
hierarchy is still shown. The command fails if any sheet failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runSheets,
}

func init() {
	rootCmd.AddCommand(sheetsCmd)

	defaults := hierarchy.DefaultConfig()
	sheetsCmd.Flags().IntVarP(&sheetsJobs, "jobs", "j", defaults.Concurrency, "sibling sheets loaded in parallel")
	sheetsCmd.Flags().IntVar(&sheetsMaxDepth, "max-depth", defaults.MaxDepth, "deepest sheet level to load")
}

func runSheets(cmd *cobra.Command, args []string) error {
	cfg := hierarchy.DefaultConfig()
	cfg.Concurrency = sheetsJobs
	cfg.MaxDepth = sheetsMaxDepth

	root := args[0]
	loader, err := hierarchy.NewLoader(hierarchy.FSProvider{Root: filepath.Dir(root)}, cfg, newLogger(cmd))
	if err != nil {
		return err
	}

	tree, err := loader.Load(cmd.Context(), filepath.Base(root))
	if err != nil {
		return fmt.Errorf("error loading hierarchy: %w", err)
	}

	out := cmd.OutOrStdout()
	tree.Walk(func(n *hierarchy.Node, depth int) {
		indent := strings.Repeat("  ", depth)
		switch {
		case n.Err != nil:
			fmt.Fprintf(out, "%s%s: ERROR %v\n", indent, n.Name, n.Err)
		case n.Sheet == nil:
			fmt.Fprintf(out, "%s%s (%d components)\n", indent, n.Name, len(n.Schematic.Components()))
		default:
			fmt.Fprintf(out, "%s%s [%s] (%d components)\n", indent, n.Name, n.Sheet.Name, len(n.Schematic.Components()))
		}
	})

	if failed := tree.Errors(); len(failed) > 0 {
		return fmt.Errorf("%d sheet(s) failed to load", len(failed))
	}
	return nil
}
