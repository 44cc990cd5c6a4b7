// Package schematic provides lossless parsing and field editing for legacy
// KiCad schematic files (.sch, "EESchema Schematic File Version N").
//
// A parsed Schematic keeps every element in document order together with
// its raw text. Serializing an untouched schematic reproduces the input
// byte for byte; elements edited through the field update engine are
// regenerated, reusing the raw text of every line that did not change.
package schematic

import (
	"sort"
)

// Position is a point in schematic units (mils)
type Position struct {
	X int
	Y int
}

// Size is a width and height in schematic units (mils)
type Size struct {
	Width  int
	Height int
}

// Schematic represents a complete legacy KiCad schematic file
type Schematic struct {
	Filename    string       // Source file name, empty when parsed from memory
	Version     int          // Format version from the header line, 0 if absent
	Preamble    *Unparsed    // Lines before $Descr (header, EELAYER, LIBS)
	Description *Description // The $Descr block
	Elements    []Element    // Everything after $Descr, in document order
}

// Element is one top level item of a schematic: *Component, *Sheet or
// *Unparsed. The set is closed.
type Element interface {
	isElement()
}

func (*Component) isElement() {}
func (*Sheet) isElement()     {}
func (*Unparsed) isElement()  {}

// Unparsed is a fragment kept verbatim (wires, text, bitmaps, free lines)
type Unparsed struct {
	Keyword string // Marker keyword, empty for lines outside any block
	Text    string // Raw text including line terminators
	Line    int    // 1-based line of the first line
}

// Description is the $Descr header block
type Description struct {
	PaperSize   string   // Paper name (e.g. "A4", "User")
	Width       int      // Page width in mils
	Height      int      // Page height in mils
	Portrait    bool     // Portrait orientation flag
	Encoding    string   // Text encoding (e.g. "utf-8")
	SheetNumber int      // This sheet's number
	SheetCount  int      // Total number of sheets
	Title       string   // Title block title
	Date        string   // Title block date
	Revision    string   // Title block revision
	Company     string   // Title block company
	Comments    []string // Comment1..CommentN
	Extra       []string // Unrecognized lines, kept raw
	Line        int      // 1-based line of $Descr

	raw   string
	dirty bool
	eol   string
}

// MarkDirty makes the serializer regenerate the block from its fields
func (d *Description) MarkDirty() { d.dirty = true }

// Dirty reports whether the block changed since it was parsed
func (d *Description) Dirty() bool { return d.dirty }

// Orientation is a component rotation in 90 degree steps
type Orientation int

const (
	R0 Orientation = iota
	R90
	R180
	R270
)

func (o Orientation) String() string {
	switch o {
	case R0:
		return "R0"
	case R90:
		return "R90"
	case R180:
		return "R180"
	case R270:
		return "R270"
	}
	return "R?"
}

// Degrees returns the rotation angle in degrees
func (o Orientation) Degrees() int {
	return int(o) * 90
}

// HJustify is the horizontal alignment of field text
type HJustify int

const (
	HCenter HJustify = iota
	HLeft
	HRight
)

// VJustify is the vertical alignment of field text
type VJustify int

const (
	VCenter VJustify = iota
	VTop
	VBottom
)

// Justify holds horizontal and vertical text alignment
type Justify struct {
	H HJustify
	V VJustify
}

// Component is a placed symbol ($Comp block)
type Component struct {
	Name      string            // Library symbol name (e.g. "Device:R")
	Reference string            // Reference designator (e.g. "R1")
	Unit      int               // Unit number for multi-unit parts
	Convert   int               // De Morgan alternate (1 = normal)
	Timestamp string            // Hex time stamp identifying the instance
	Position  Position          // Anchor position
	Rotation  ComponentRotation // Placement transform
	Fields    FieldMap          // Fields by index
	Extra     []string          // Unrecognized lines (AR paths etc.), kept raw
	Line      int               // 1-based line of $Comp

	raw   string
	dirty bool
	eol   string
	lines []compLine
	orig  compSnapshot
	// raw field records by index, with the value they decoded to
	origFields map[int]rawField
}

// MarkDirty makes the serializer regenerate the block from its fields
func (c *Component) MarkDirty() { c.dirty = true }

// Dirty reports whether the component changed since it was parsed
func (c *Component) Dirty() bool { return c.dirty }

// Value returns the value field (index 1)
func (c *Component) Value() string { return c.Fields[FieldValue].Value }

// Footprint returns the footprint field (index 2)
func (c *Component) Footprint() string { return c.Fields[FieldFootprint].Value }

// Datasheet returns the datasheet field (index 3)
func (c *Component) Datasheet() string { return c.Fields[FieldDatasheet].Value }

// Built-in field indices. Indices from FirstUserField on are user defined.
const (
	FieldReference = 0
	FieldValue     = 1
	FieldFootprint = 2
	FieldDatasheet = 3
	FirstUserField = 4
)

// IsBuiltinField reports whether index is one of the four built-in fields
func IsBuiltinField(index int) bool {
	return index >= FieldReference && index < FirstUserField
}

// ComponentField is one text field of a component
type ComponentField struct {
	Value    string   // Field text
	Position Position // Text anchor
	Vertical bool     // Text drawn vertically
	Size     int      // Text size in mils
	Visible  bool     // Shown on the sheet
	Justify  Justify  // Text alignment
	Italic   bool     // Italic text
	Bold     bool     // Bold text
	Name     string   // Field name, user fields only
}

// FieldMap maps field indices to fields. Indices may be sparse.
type FieldMap map[int]ComponentField

// Indices returns the field indices in ascending order
func (m FieldMap) Indices() []int {
	idx := make([]int, 0, len(m))
	for i := range m {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Clone returns a copy of the map
func (m FieldMap) Clone() FieldMap {
	out := make(FieldMap, len(m))
	for i, f := range m {
		out[i] = f
	}
	return out
}

// ByName returns the user field with the given name
func (m FieldMap) ByName(name string) (int, ComponentField, bool) {
	for _, i := range m.Indices() {
		if i >= FirstUserField && m[i].Name == name {
			return i, m[i], true
		}
	}
	return 0, ComponentField{}, false
}

// LabelForm is the electrical type of a sheet port label
type LabelForm int

const (
	FormInput LabelForm = iota
	FormOutput
	FormBidirectional
	FormTriState
	FormPassive
	FormUnspecified
)

func (f LabelForm) String() string {
	switch f {
	case FormInput:
		return "input"
	case FormOutput:
		return "output"
	case FormBidirectional:
		return "bidirectional"
	case FormTriState:
		return "tri_state"
	case FormPassive:
		return "passive"
	case FormUnspecified:
		return "unspecified"
	}
	return "unknown"
}

// LabelSide is the edge of the sheet symbol a label sits on
type LabelSide int

const (
	SideLeft LabelSide = iota
	SideRight
	SideTop
	SideBottom
)

func (s LabelSide) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	}
	return "unknown"
}

// Sheet is a hierarchical sheet reference ($Sheet block)
type Sheet struct {
	Timestamp string       // Hex time stamp identifying the sheet
	Position  Position     // Top-left corner of the sheet symbol
	Size      Size         // Symbol size
	Name      string       // Sheet name (F0)
	NameSize  int          // Sheet name text size
	File      string       // Child file name as written (F1)
	FileSize  int          // File name text size
	Labels    []SheetLabel // Port labels in document order
	Extra     []string     // Unrecognized lines, kept raw
	Line      int          // 1-based line of $Sheet

	raw        string
	dirty      bool
	eol        string
	lines      []sheetLine
	orig       sheetSnapshot
	origLabels []rawLabel
}

// MarkDirty makes the serializer regenerate the block from its fields
func (s *Sheet) MarkDirty() { s.dirty = true }

// Dirty reports whether the sheet changed since it was parsed
func (s *Sheet) Dirty() bool { return s.dirty }

// SheetLabel is a hierarchical port on a sheet symbol
type SheetLabel struct {
	Name     string    // Label text
	Number   int       // Field number, orders the pins (2, 3, ...)
	Form     LabelForm // Electrical type
	Side     LabelSide // Edge of the sheet symbol
	Position Position  // Anchor on the symbol edge
	Size     int       // Text size in mils
}

// Components returns all components in document order
func (s *Schematic) Components() []*Component {
	var out []*Component
	for _, e := range s.Elements {
		if c, ok := e.(*Component); ok {
			out = append(out, c)
		}
	}
	return out
}

// Sheets returns all sheets in document order
func (s *Schematic) Sheets() []*Sheet {
	var out []*Sheet
	for _, e := range s.Elements {
		if sh, ok := e.(*Sheet); ok {
			out = append(out, sh)
		}
	}
	return out
}

// Component returns the first component with the given reference
func (s *Schematic) Component(ref string) *Component {
	for _, c := range s.Components() {
		if c.Reference == ref {
			return c
		}
	}
	return nil
}

// Units returns every component with the given reference in document
// order. Multi-unit parts have one $Comp block per placed unit.
func (s *Schematic) Units(ref string) []*Component {
	var out []*Component
	for _, c := range s.Components() {
		if c.Reference == ref {
			out = append(out, c)
		}
	}
	return out
}

// RemoveElement deletes the element at index i
func (s *Schematic) RemoveElement(i int) {
	if i < 0 || i >= len(s.Elements) {
		return
	}
	s.Elements = append(s.Elements[:i], s.Elements[i+1:]...)
}

// GetAllReferences returns all reference designators in document order
func (s *Schematic) GetAllReferences() []string {
	var refs []string
	for _, c := range s.Components() {
		if c.Reference != "" {
			refs = append(refs, c.Reference)
		}
	}
	return refs
}

// GetLabels returns the distinct port label names of all sheets
func (s *Schematic) GetLabels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, sh := range s.Sheets() {
		for _, l := range sh.Labels {
			if !seen[l.Name] {
				seen[l.Name] = true
				labels = append(labels, l.Name)
			}
		}
	}
	return labels
}
