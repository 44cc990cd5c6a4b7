// Package fplibtable reads and writes KiCad footprint library tables
// (fp-lib-table files), which map library nicknames such as those used in
// component footprint fields to library locations.
package fplibtable

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/OpenTraceLab/kisch/pkg/kicad/sexp/kicadsexp"
	"github.com/chewxy/sexp"
)

// FileName is the name KiCad gives library tables on disk
const FileName = "fp-lib-table"

// ErrUndefinedVariable is returned when a URI refers to an unset variable
var ErrUndefinedVariable = errors.New("undefined environment variable")

// Lib is one library row
type Lib struct {
	Name    string // Nickname used in footprint references ("Resistor_SMD")
	Type    string // Plugin type ("KiCad", "Legacy", ...)
	URI     string // Location, may contain ${VAR} references
	Options string
	Descr   string
}

// Table is a parsed library table
type Table struct {
	Libs []Lib
}

// ParseFile reads and parses a library table
func ParseFile(filename string) (*Table, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	t, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}

// Parse parses the text of a library table. Rows other than (lib ...),
// such as (version N), are ignored.
func Parse(text string) (*Table, error) {
	exprs, err := kicadsexp.ParseString(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}

	if len(exprs) == 0 || exprs[0].IsLeaf() {
		return nil, errors.New("expected (fp_lib_table ...)")
	}

	root := exprs[0]
	if key := kicadsexp.Key(root); key != "fp_lib_table" {
		return nil, fmt.Errorf("expected fp_lib_table, got %q", key)
	}

	t := &Table{}
	for i, item := range kicadsexp.FindAllNodes(root, "lib") {
		lib, err := parseLib(item)
		if err != nil {
			return nil, fmt.Errorf("lib %d: %w", i+1, err)
		}
		t.Libs = append(t.Libs, lib)
	}

	return t, nil
}

func parseLib(s sexp.Sexp) (Lib, error) {
	var lib Lib
	lib.Name, _ = kicadsexp.GetString(s, "name")
	lib.Type, _ = kicadsexp.GetString(s, "type")
	lib.URI, _ = kicadsexp.GetString(s, "uri")
	lib.Options, _ = kicadsexp.GetString(s, "options")
	lib.Descr, _ = kicadsexp.GetString(s, "descr")

	if lib.Name == "" {
		return lib, errors.New("missing name")
	}
	if lib.URI == "" {
		return lib, fmt.Errorf("%s: missing uri", lib.Name)
	}
	return lib, nil
}

// Lookup returns the library with the given nickname
func (t *Table) Lookup(name string) (Lib, bool) {
	for _, lib := range t.Libs {
		if lib.Name == name {
			return lib, true
		}
	}
	return Lib{}, false
}

// Names returns the library nicknames in sorted order
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.Libs))
	for _, lib := range t.Libs {
		names = append(names, lib.Name)
	}
	sort.Strings(names)
	return names
}

// String returns the table in the layout KiCad writes
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString("(fp_lib_table\n")
	for _, lib := range t.Libs {
		fmt.Fprintf(&b, "  (lib (name %s)(type %s)(uri %s)(options %s)(descr %s))\n",
			kicadsexp.Quote(lib.Name), kicadsexp.Quote(lib.Type), kicadsexp.Quote(lib.URI),
			kicadsexp.Quote(lib.Options), kicadsexp.Quote(lib.Descr))
	}
	b.WriteString(")\n")
	return b.String()
}

// ExpandedURI returns the URI with ${VAR} and $VAR references replaced from
// the environment.
func (l Lib) ExpandedURI() (string, error) {
	return l.ExpandURI(os.LookupEnv)
}

// ExpandURI is ExpandedURI with a caller supplied lookup
func (l Lib) ExpandURI(lookup func(string) (string, bool)) (string, error) {
	var missing []string
	uri := os.Expand(l.URI, func(name string) string {
		value, ok := lookup(name)
		if !ok {
			missing = append(missing, name)
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("lib %s: %w: %s", l.Name, ErrUndefinedVariable, strings.Join(missing, ", "))
	}
	return uri, nil
}

// Footprint splits a footprint field value "Lib:Footprint" into its
// library nickname and footprint name.
func Footprint(value string) (lib, name string, ok bool) {
	lib, name, ok = strings.Cut(value, ":")
	if !ok || lib == "" || name == "" {
		return "", "", false
	}
	return lib, name, true
}
