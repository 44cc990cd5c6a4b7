package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "kisch",
	Short: "kisch - KiCad legacy schematic tools",
	Long: `kisch reads and edits KiCad legacy schematic files (.sch) without
disturbing anything it does not change:
  - inspect components, sheets and title blocks
  - load whole sheet hierarchies
  - diff and apply component field updates
  - check footprint library tables

Examples:
  kisch info board.sch                 # Show schematic summary
  kisch info board.sch R1              # Show one component
  kisch sheets board.sch               # Show the sheet hierarchy
  kisch fields apply board.sch bom.yaml
  kisch roundtrip *.sch                # Check lossless rewrite`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger returns the logger for commands: debug level with --verbose,
// warnings only otherwise.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
