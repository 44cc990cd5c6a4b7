package cmd

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/kisch/pkg/kicad/fplibtable"
	"github.com/OpenTraceLab/kisch/pkg/kicad/schematic"
	"github.com/spf13/cobra"
)

var fplibCheck []string

var fplibCmd = &cobra.Command{
	Use:   "fplib <fp-lib-table>",
	Short: "Show a footprint library table",
	Long: `List the libraries of a KiCad fp-lib-table with their expanded URIs.

With --check, every footprint field of the given schematics must name a
library in the table.`,
	Args: cobra.ExactArgs(1),
	RunE: runFplib,
}

func init() {
	rootCmd.AddCommand(fplibCmd)
	fplibCmd.Flags().StringSliceVar(&fplibCheck, "check", nil, "schematic files whose footprints are checked")
}

func runFplib(cmd *cobra.Command, args []string) error {
	table, err := fplibtable.ParseFile(args[0])
	if err != nil {
		return fmt.Errorf("error parsing library table: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Libraries: %d\n", len(table.Libs))
	for _, lib := range table.Libs {
		uri, err := lib.ExpandedURI()
		if err != nil {
			uri = fmt.Sprintf("%s (%v)", lib.URI, err)
		}
		fmt.Fprintf(out, "  %s [%s] %s\n", lib.Name, lib.Type, uri)
	}

	if len(fplibCheck) == 0 {
		return nil
	}

	missing := 0
	for _, filename := range fplibCheck {
		sch, err := schematic.ParseFile(filename)
		if err != nil {
			return fmt.Errorf("error parsing schematic: %w", err)
		}

		for _, ref := range unknownFootprints(table, sch) {
			fmt.Fprintf(out, "%s: %s\n", filename, ref)
			missing++
		}
	}

	if missing > 0 {
		return fmt.Errorf("%d footprint(s) refer to unknown libraries", missing)
	}
	fmt.Fprintln(out, "All footprint libraries found")
	return nil
}

// unknownFootprints lists components whose footprint library is not in
// the table, as "REF lib:footprint".
func unknownFootprints(table *fplibtable.Table, sch *schematic.Schematic) []string {
	var out []string
	for _, c := range sch.Components() {
		fp := c.Footprint()
		if fp == "" {
			continue
		}
		lib, _, ok := fplibtable.Footprint(fp)
		if !ok {
			out = append(out, fmt.Sprintf("%s %s (no library)", c.Reference, fp))
			continue
		}
		if _, found := table.Lookup(lib); !found {
			out = append(out, fmt.Sprintf("%s %s", c.Reference, fp))
		}
	}
	sort.Strings(out)
	return out
}
