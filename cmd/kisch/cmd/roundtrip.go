package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/OpenTraceLab/kisch/pkg/kicad/legacy/blocks"
	"github.com/OpenTraceLab/kisch/pkg/kicad/schematic"
	"github.com/spf13/cobra"
)

var roundtripRegenerate bool

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip <schematic_file>...",
	Short: "Check that schematics are rewritten without changes",
	Long: `Parse each file, serialize it again and compare the result with the
original bytes.

With --regenerate every component, sheet and title block is rebuilt from its
parsed fields instead of reusing the original text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoundtrip,
}

func init() {
	rootCmd.AddCommand(roundtripCmd)
	roundtripCmd.Flags().BoolVar(&roundtripRegenerate, "regenerate", false, "regenerate every parsed block")
}

func runRoundtrip(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)
	out := cmd.OutOrStdout()

	failed := 0
	for _, filename := range args {
		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		original := string(data)

		sch, err := schematic.Parse(original, filename)
		if err != nil {
			fmt.Fprintf(out, "%s: ERROR %v\n", filename, err)
			failed++
			continue
		}

		if roundtripRegenerate {
			markAllDirty(sch)
		}

		written := sch.Serialize()
		if written == original {
			fmt.Fprintf(out, "%s: ok\n", filename)
			continue
		}

		failed++
		line, want, got := firstDifference(original, written)
		fmt.Fprintf(out, "%s: differs at line %d\n  - %q\n  + %q\n", filename, line, want, got)
		logger.Debug("round trip mismatch", "file", filename, "original", len(original), "written", len(written))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) did not round trip", failed, len(args))
	}
	return nil
}

func markAllDirty(sch *schematic.Schematic) {
	if sch.Description != nil {
		sch.Description.MarkDirty()
	}
	for _, e := range sch.Elements {
		switch e := e.(type) {
		case *schematic.Component:
			e.MarkDirty()
		case *schematic.Sheet:
			e.MarkDirty()
		}
	}
}

// firstDifference returns the first 1-based line where a and b differ
func firstDifference(a, b string) (int, string, string) {
	al, bl := blocks.SplitLines(a), blocks.SplitLines(b)
	for i := 0; i < len(al) || i < len(bl); i++ {
		var x, y string
		if i < len(al) {
			x = al[i]
		}
		if i < len(bl) {
			y = bl[i]
		}
		if x != y {
			return i + 1, strings.TrimRight(x, "\r\n"), strings.TrimRight(y, "\r\n")
		}
	}
	return 0, "", ""
}
