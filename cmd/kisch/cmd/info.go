package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/OpenTraceLab/kisch/pkg/kicad/schematic"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <schematic_file> [reference]",
	Short: "Show schematic information",
	Long: `Display information about a KiCad legacy schematic file.

Without reference argument: shows schematic summary
With reference argument: shows details for that specific component`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]
	sch, err := schematic.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("error parsing schematic: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(args) >= 2 {
		return showComponentDetails(out, sch, args[1])
	}

	showSummary(out, sch, filename)
	return nil
}

func showSummary(out io.Writer, sch *schematic.Schematic, filename string) {
	fmt.Fprintf(out, "Schematic: %s\n", filename)
	fmt.Fprintf(out, "Version: %d\n", sch.Version)

	d := sch.Description
	fmt.Fprintf(out, "Paper: %s (%d x %d)", d.PaperSize, d.Width, d.Height)
	if d.Portrait {
		fmt.Fprint(out, " portrait")
	}
	fmt.Fprintln(out)
	if d.SheetCount > 0 {
		fmt.Fprintf(out, "Sheet: %d of %d\n", d.SheetNumber, d.SheetCount)
	}
	fmt.Fprintln(out)

	// Title block
	if d.Title != "" || d.Revision != "" {
		fmt.Fprintln(out, "Title Block:")
		if d.Title != "" {
			fmt.Fprintf(out, "  Title: %s\n", d.Title)
		}
		if d.Date != "" {
			fmt.Fprintf(out, "  Date: %s\n", d.Date)
		}
		if d.Revision != "" {
			fmt.Fprintf(out, "  Revision: %s\n", d.Revision)
		}
		if d.Company != "" {
			fmt.Fprintf(out, "  Company: %s\n", d.Company)
		}
		for i, c := range d.Comments {
			if c != "" {
				fmt.Fprintf(out, "  Comment%d: %s\n", i+1, c)
			}
		}
		fmt.Fprintln(out)
	}

	// Statistics
	unparsed := make(map[string]int)
	for _, e := range sch.Elements {
		if u, ok := e.(*schematic.Unparsed); ok {
			key := u.Keyword
			if key == "" {
				key = "(free lines)"
			}
			unparsed[key]++
		}
	}

	fmt.Fprintln(out, "Statistics:")
	fmt.Fprintf(out, "  Components: %d\n", len(sch.Components()))
	fmt.Fprintf(out, "  Sheets: %d\n", len(sch.Sheets()))
	for _, key := range sortedKeys(unparsed) {
		fmt.Fprintf(out, "  %s: %d\n", key, unparsed[key])
	}
	fmt.Fprintln(out)

	// Component list
	refs := sch.GetAllReferences()
	if len(refs) > 0 {
		fmt.Fprintln(out, "Components:")

		// Group by reference prefix
		byPrefix := make(map[string][]string)
		for _, ref := range refs {
			prefix := getRefPrefix(ref)
			byPrefix[prefix] = append(byPrefix[prefix], ref)
		}

		for _, prefix := range sortedKeys(byPrefix) {
			refs := byPrefix[prefix]
			sort.Strings(refs)
			fmt.Fprintf(out, "  %s: %s\n", prefix, strings.Join(refs, ", "))
		}
		fmt.Fprintln(out)
	}

	// Hierarchical sheets
	if sheets := sch.Sheets(); len(sheets) > 0 {
		fmt.Fprintln(out, "Hierarchical Sheets:")
		for _, sheet := range sheets {
			fmt.Fprintf(out, "  %s (%s)\n", sheet.Name, sheet.File)
			if len(sheet.Labels) > 0 {
				var names []string
				for _, l := range sheet.Labels {
					names = append(names, fmt.Sprintf("%s[%s]", l.Name, l.Form))
				}
				fmt.Fprintf(out, "    Pins: %s\n", strings.Join(names, ", "))
			}
		}
	}
}

func showComponentDetails(out io.Writer, sch *schematic.Schematic, ref string) error {
	c := sch.Component(ref)
	if c == nil {
		return fmt.Errorf("component '%s' not found", ref)
	}

	fmt.Fprintf(out, "Component: %s\n", ref)
	fmt.Fprintf(out, "Library: %s\n", c.Name)
	fmt.Fprintf(out, "Position: (%d, %d)\n", c.Position.X, c.Position.Y)

	orientation, mirrored, err := c.Rotation.Decode()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rotation: %d°", orientation.Degrees())
	if mirrored {
		fmt.Fprint(out, " (mirrored)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Unit: %d\n", c.Unit)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Fields:")
	for _, idx := range c.Fields.Indices() {
		f := c.Fields[idx]
		name := fieldName(idx, f)
		hidden := ""
		if !f.Visible {
			hidden = " (hidden)"
		}
		fmt.Fprintf(out, "  %d %s: %s%s\n", idx, name, f.Value, hidden)
	}

	return nil
}

func fieldName(idx int, f schematic.ComponentField) string {
	switch idx {
	case schematic.FieldReference:
		return "Reference"
	case schematic.FieldValue:
		return "Value"
	case schematic.FieldFootprint:
		return "Footprint"
	case schematic.FieldDatasheet:
		return "Datasheet"
	}
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("Field%d", idx)
}

func getRefPrefix(ref string) string {
	// Extract prefix (letters before numbers)
	for i, c := range ref {
		if c >= '0' && c <= '9' {
			return ref[:i]
		}
	}
	return ref
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
