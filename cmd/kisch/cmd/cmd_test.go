package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdataDir = "../../../testdata/legacy"

// execute runs the root command with fresh flag values
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	verbose = false
	fieldsPrune = false
	fieldsOutput = ""
	roundtripRegenerate = false
	fplibCheck = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func copyTestdata(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(testdataDir, name))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), filepath.Base(name))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestInfoCommand(t *testing.T) {
	out, err := execute(t, "info", filepath.Join(testdataDir, "root.sch"))
	require.NoError(t, err)

	assert.Contains(t, out, "Paper: A4 (11693 x 8268)")
	assert.Contains(t, out, "Components: 2")
	assert.Contains(t, out, "  J: J1")
	assert.Contains(t, out, "  Power (power.sch)")
	assert.Contains(t, out, "Pins: TX[output], RX[input]")
}

func TestInfoComponent(t *testing.T) {
	out, err := execute(t, "info", filepath.Join(testdataDir, "root.sch"), "R1")
	require.NoError(t, err)

	assert.Contains(t, out, "Rotation: 270°")
	assert.Contains(t, out, "4 MPN: RC0603FR-0733RL (hidden)")

	_, err = execute(t, "info", filepath.Join(testdataDir, "root.sch"), "R99")
	assert.Error(t, err)
}

func TestSheetsCommand(t *testing.T) {
	out, err := execute(t, "sheets", filepath.Join(testdataDir, "root.sch"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "root.sch (2 components)", lines[0])
	assert.Equal(t, "  power.sch [Power] (2 components)", lines[1])
	assert.Contains(t, lines[2], "[UART] (1 components)")
}

func TestFieldsApplyCommand(t *testing.T) {
	path := copyTestdata(t, "root.sch")
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	updates := filepath.Join(t.TempDir(), "updates.yaml")
	require.NoError(t, os.WriteFile(updates, []byte("R1:\n  1: \"47\"\n  5: Yageo\n"), 0o644))

	out, err := execute(t, "fields", "diff", path, updates)
	require.NoError(t, err)
	assert.Contains(t, out, `Changed(1: "33" -> "47")`)
	assert.Contains(t, out, `Added(5: "Yageo")`)

	_, err = execute(t, "fields", "apply", path, updates)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	want := strings.Replace(string(original),
		"F 1 \"33\" V 2384 1800 50  0000 C CNN\n",
		"F 1 \"47\" V 2384 1800 50  0000 C CNN\n", 1)
	want = strings.Replace(want,
		"F 4 \"RC0603FR-0733RL\" H 2500 1800 50  0001 C CNN \"MPN\"\n",
		"F 4 \"RC0603FR-0733RL\" H 2500 1800 50  0001 C CNN \"MPN\"\nF 5 \"Yageo\" H 2500 1800 50  0001 C CNN\n", 1)
	assert.Equal(t, want, string(got))

	out, err = execute(t, "fields", "diff", path, updates)
	require.NoError(t, err)
	assert.Contains(t, out, "No changes")
}

func TestFieldsPrune(t *testing.T) {
	path := copyTestdata(t, "root.sch")
	updates := filepath.Join(t.TempDir(), "updates.yaml")
	require.NoError(t, os.WriteFile(updates, []byte("R1:\n  1: \"33\"\n"), 0o644))

	out, err := execute(t, "fields", "diff", "--prune", path, updates)
	require.NoError(t, err)
	assert.Contains(t, out, `Removed(4: "RC0603FR-0733RL")`)
}

func TestFieldsUnknownReference(t *testing.T) {
	path := copyTestdata(t, "root.sch")
	updates := filepath.Join(t.TempDir(), "updates.yaml")
	require.NoError(t, os.WriteFile(updates, []byte("R42:\n  1: 1k\n"), 0o644))

	_, err := execute(t, "fields", "apply", path, updates)
	assert.ErrorContains(t, err, "R42")
}

const dualOpamp = `EESchema Schematic File Version 4
$Descr A4 11693 8268
$EndDescr
$Comp
L Amplifier_Operational:LM358 U1
U 1 1 5E7A2001
P 3000 2000
F 0 "U1" H 3000 2367 50  0000 C CNN
F 1 "LM358" H 3000 2276 50  0000 C CNN
	1    3000 2000
	1    0    0    -1
$EndComp
$Comp
L Amplifier_Operational:LM358 U1
U 2 1 5E7A2002
P 4000 2000
F 0 "U1" H 4000 2367 50  0000 C CNN
F 1 "LM358" H 4000 2276 50  0000 C CNN
	2    4000 2000
	1    0    0    -1
$EndComp
$EndSCHEMATC
`

func TestFieldsApplyAllUnits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opamp.sch")
	require.NoError(t, os.WriteFile(path, []byte(dualOpamp), 0o644))

	updates := filepath.Join(t.TempDir(), "updates.yaml")
	require.NoError(t, os.WriteFile(updates, []byte("U1:\n  1: TL072\n"), 0o644))

	out, err := execute(t, "fields", "apply", path, updates)
	require.NoError(t, err)
	assert.Contains(t, out, "U1 (unit 1):")
	assert.Contains(t, out, "U1 (unit 2):")
	assert.Contains(t, out, "Updated 2 component(s)")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want := strings.ReplaceAll(dualOpamp, `F 1 "LM358"`, `F 1 "TL072"`)
	assert.Equal(t, want, string(got))
}

func TestFieldsApplyNamedField(t *testing.T) {
	path := copyTestdata(t, "root.sch")
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	updates := filepath.Join(t.TempDir(), "updates.yaml")
	doc := "R1:\n  4:\n    value: RC0603FR-0733RL\n    name: PartNumber\n  5:\n    value: Yageo\n    name: Manufacturer\n"
	require.NoError(t, os.WriteFile(updates, []byte(doc), 0o644))

	out, err := execute(t, "fields", "diff", path, updates)
	require.NoError(t, err)
	assert.Contains(t, out, `name "MPN" -> "PartNumber"`)
	assert.Contains(t, out, `Added(5 Manufacturer: "Yageo")`)

	_, err = execute(t, "fields", "apply", path, updates)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	want := strings.Replace(string(original),
		"F 4 \"RC0603FR-0733RL\" H 2500 1800 50  0001 C CNN \"MPN\"\n",
		"F 4 \"RC0603FR-0733RL\" H 2500 1800 50  0001 C CNN \"PartNumber\"\nF 5 \"Yageo\" H 2500 1800 50  0001 C CNN \"Manufacturer\"\n", 1)
	assert.Equal(t, want, string(got))
}

func TestRoundtripCommand(t *testing.T) {
	files := []string{
		filepath.Join(testdataDir, "root.sch"),
		filepath.Join(testdataDir, "power.sch"),
		filepath.Join(testdataDir, "io", "uart.sch"),
	}

	out, err := execute(t, append([]string{"roundtrip"}, files...)...)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, ": ok"))

	out, err = execute(t, append([]string{"roundtrip", "--regenerate"}, files...)...)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, ": ok"))
}

func TestFirstDifference(t *testing.T) {
	line, a, b := firstDifference("a\nb\nc\n", "a\nx\nc\n")
	assert.Equal(t, 2, line)
	assert.Equal(t, "b", a)
	assert.Equal(t, "x", b)

	line, _, _ = firstDifference("a\n", "a\n")
	assert.Equal(t, 0, line)
}

func TestFplibCommand(t *testing.T) {
	t.Setenv("KICAD6_FOOTPRINT_DIR", "/usr/share/kicad/footprints")

	table := filepath.Join(testdataDir, "fp-lib-table")
	out, err := execute(t, "fplib", table)
	require.NoError(t, err)
	assert.Contains(t, out, "Libraries: 3")
	assert.Contains(t, out, "Resistor_SMD [KiCad] /usr/share/kicad/footprints/Resistor_SMD.pretty")

	out, err = execute(t, "fplib", table, "--check", filepath.Join(testdataDir, "power.sch"))
	assert.Error(t, err)
	assert.Contains(t, out, "U1 Package_TO_SOT_SMD:SOT-23-5")

	_, err = execute(t, "fplib", table, "--check", filepath.Join(testdataDir, "root.sch"))
	assert.NoError(t, err)
}
