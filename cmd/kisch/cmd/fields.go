package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/OpenTraceLab/kisch/pkg/kicad/schematic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	fieldsPrune  bool
	fieldsOutput string
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Component field updates",
	Long: `Diff and apply component field updates read from a YAML file mapping
references to field index and value:

  R1:
    1: 20k
    4: "0805"
    5:
      value: Yageo
      name: Manufacturer
  C3:
    1: 100n

A field is a value or a value/name pair; names are kept for user fields.
Every unit of a multi-unit part is updated.

Listed fields are set and other fields are left alone. With --prune, user
fields (index 4 and up) that are not listed are removed. Built-in fields
0-3 are never removed; set them to "" to blank them.`,
}

var fieldsDiffCmd = &cobra.Command{
	Use:   "diff <schematic_file> <updates.yaml>",
	Short: "Show the field changes an update file would make",
	Args:  cobra.ExactArgs(2),
	RunE:  runFieldsDiff,
}

var fieldsApplyCmd = &cobra.Command{
	Use:   "apply <schematic_file> <updates.yaml>",
	Short: "Apply an update file to a schematic",
	Long: `Apply field updates and write the schematic back. Only the changed
component blocks are rewritten; every other byte is kept.`,
	Args: cobra.ExactArgs(2),
	RunE: runFieldsApply,
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
	fieldsCmd.AddCommand(fieldsDiffCmd)
	fieldsCmd.AddCommand(fieldsApplyCmd)

	fieldsCmd.PersistentFlags().BoolVar(&fieldsPrune, "prune", false, "remove user fields not listed")
	fieldsApplyCmd.Flags().StringVarP(&fieldsOutput, "output", "o", "", "output file (default: overwrite input)")
}

// FieldSpec is one field entry of an update file. It is either a bare
// value or a mapping with value and name; the name only applies to user
// fields.
type FieldSpec struct {
	Value string `yaml:"value"`
	Name  string `yaml:"name"`
}

// UnmarshalYAML accepts both "1: 20k" and "5: {value: Yageo, name: Mfr}"
func (f *FieldSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&f.Value)
	}
	type plain FieldSpec
	return node.Decode((*plain)(f))
}

// UpdateFile is the YAML update document: reference -> index -> field
type UpdateFile map[string]map[int]FieldSpec

func loadUpdateFile(filename string) (UpdateFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read update file: %w", err)
	}

	var updates UpdateFile
	if err := yaml.Unmarshal(data, &updates); err != nil {
		return nil, fmt.Errorf("failed to parse update file %s: %w", filename, err)
	}
	return updates, nil
}

// desiredFields builds the desired field set for c from the fields listed
// for it.
func desiredFields(c *schematic.Component, specs map[int]FieldSpec, prune bool) map[int]schematic.ComponentField {
	desired := make(map[int]schematic.ComponentField, len(c.Fields)+len(specs))
	for idx, f := range c.Fields {
		if !prune || schematic.IsBuiltinField(idx) {
			desired[idx] = schematic.ComponentField{Value: f.Value}
		}
	}
	for idx, spec := range specs {
		desired[idx] = schematic.ComponentField{Value: spec.Value, Name: spec.Name}
	}
	return desired
}

// componentPlan is the pending updates for one $Comp block
type componentPlan struct {
	label     string // Reference, with the unit for multi-unit parts
	component *schematic.Component
	updates   []schematic.FieldUpdate
}

// planUpdates computes the updates for every unit of every reference in
// the file, ordered by reference. It fails if a reference is not in the
// schematic.
func planUpdates(sch *schematic.Schematic, file UpdateFile, prune bool) ([]componentPlan, error) {
	refs := make([]string, 0, len(file))
	for ref := range file {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	var plan []componentPlan
	for _, ref := range refs {
		units := sch.Units(ref)
		if len(units) == 0 {
			return nil, fmt.Errorf("component '%s' not found", ref)
		}

		for _, c := range units {
			updates := schematic.Diff(c, desiredFields(c, file[ref], prune))
			if len(updates) == 0 {
				continue
			}
			label := ref
			if len(units) > 1 {
				label = fmt.Sprintf("%s (unit %d)", ref, c.Unit)
			}
			plan = append(plan, componentPlan{label: label, component: c, updates: updates})
		}
	}
	return plan, nil
}

func printPlan(out io.Writer, plan []componentPlan) {
	for _, p := range plan {
		fmt.Fprintf(out, "%s:\n", p.label)
		for _, u := range p.updates {
			fmt.Fprintf(out, "  %s\n", u)
		}
	}
}

func loadPlan(args []string) (*schematic.Schematic, []componentPlan, error) {
	sch, err := schematic.ParseFile(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing schematic: %w", err)
	}

	file, err := loadUpdateFile(args[1])
	if err != nil {
		return nil, nil, err
	}

	plan, err := planUpdates(sch, file, fieldsPrune)
	if err != nil {
		return nil, nil, err
	}
	return sch, plan, nil
}

func runFieldsDiff(cmd *cobra.Command, args []string) error {
	_, plan, err := loadPlan(args)
	if err != nil {
		return err
	}

	if len(plan) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No changes")
		return nil
	}
	printPlan(cmd.OutOrStdout(), plan)
	return nil
}

func runFieldsApply(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	sch, plan, err := loadPlan(args)
	if err != nil {
		return err
	}

	for _, p := range plan {
		if err := p.component.Apply(p.updates); err != nil {
			return err
		}
		logger.Debug("component updated", "component", p.label, "updates", len(p.updates))
	}

	output := fieldsOutput
	if output == "" {
		output = args[0]
	}
	if err := os.WriteFile(output, []byte(sch.Serialize()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	printPlan(cmd.OutOrStdout(), plan)
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %d component(s) in %s\n", len(plan), output)
	return nil
}
