package schematic

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/kisch/pkg/kicad/legacy/blocks"
	"github.com/OpenTraceLab/kisch/pkg/kicad/legacy/record"
)

// Supported "EESchema Schematic File Version N" header versions
const (
	MinSupportedVersion = 1
	MaxSupportedVersion = 4
)

const headerPrefix = "EESchema Schematic File Version"

// defaultFieldSize is the text size KiCad gives new fields
const defaultFieldSize = 50

// ParseFile reads and parses a legacy schematic file
func ParseFile(filename string) (*Schematic, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(string(data), filename)
}

// ParseFileForSheet parses the file a sheet refers to. path is the file
// field as written in the parent and is resolved against ctx first.
func ParseFileForSheet(path string, ctx SheetContext) (*Schematic, error) {
	return ParseFile(resolveSheetPath(path, ctx))
}

// ParseReader reads all of r and parses it
func ParseReader(r io.Reader, filename string) (*Schematic, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read schematic: %w", err)
	}
	return Parse(string(data), filename)
}

// ParseString parses text without a source file name
func ParseString(text string) (*Schematic, error) {
	return Parse(text, "")
}

// Parse parses a legacy schematic held in memory. filename is recorded on
// the result and used to resolve child sheet paths; it may be empty.
func Parse(text, filename string) (*Schematic, error) {
	spans, err := blocks.Scan(text)
	if err != nil {
		var se *blocks.SyntaxError
		if errors.As(err, &se) {
			return nil, &SyntaxError{File: filename, Line: se.Line, Detail: se.Detail}
		}
		return nil, err
	}

	sch := &Schematic{Filename: filename}
	p := &parser{file: filename}

	for _, span := range spans {
		if sch.Description == nil {
			switch {
			case span.Keyword == "Descr":
				sch.Description, err = p.parseDescription(span)
				if err != nil {
					return nil, err
				}
			case !span.IsBlock():
				sch.Preamble = &Unparsed{Text: span.Text, Line: span.StartLine}
				if sch.Version, err = p.parseVersion(span); err != nil {
					return nil, err
				}
			default:
				return nil, p.errorf(span.StartLine, "$%s block before $Descr", span.Keyword)
			}
			continue
		}

		el, err := p.classify(span)
		if err != nil {
			return nil, err
		}
		sch.Elements = append(sch.Elements, el)
	}

	if sch.Description == nil {
		return nil, p.errorf(1, "missing $Descr block")
	}

	return sch, nil
}

// parser carries per-document state for error reporting only
type parser struct {
	file string
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &SyntaxError{File: p.file, Line: line, Detail: fmt.Sprintf(format, args...)}
}

// parseVersion reads the header line of the preamble, if there is one
func (p *parser) parseVersion(span blocks.Span) (int, error) {
	lines := span.Lines()
	first := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(first, headerPrefix) {
		return 0, nil
	}

	ver, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(first, headerPrefix)))
	if err != nil {
		return 0, p.errorf(span.StartLine, "bad header line %q", first)
	}
	if ver < MinSupportedVersion || ver > MaxSupportedVersion {
		return 0, &UnsupportedVersionError{File: p.file, Version: ver}
	}
	return ver, nil
}

// classify turns a span after $Descr into an element
func (p *parser) classify(span blocks.Span) (Element, error) {
	switch span.Keyword {
	case "Comp":
		return p.parseComponent(span)
	case "Sheet":
		return p.parseSheet(span)
	case "Descr":
		return nil, p.errorf(span.StartLine, "duplicate $Descr block")
	}
	return &Unparsed{Keyword: span.Keyword, Text: span.Text, Line: span.StartLine}, nil
}

// parseDescription parses the $Descr header block
func (p *parser) parseDescription(span blocks.Span) (*Description, error) {
	lines := span.Lines()
	d := &Description{
		Line: span.StartLine,
		raw:  span.Text,
		eol:  detectEOL(span.Text),
	}

	// $Descr <paper> <width> <height> [portrait]
	words := record.Fields(lines[0])
	if len(words) < 4 {
		return nil, p.errorf(span.StartLine, "$Descr needs paper size, width and height")
	}
	dims, err := record.Ints(words[2], words[3])
	if err != nil {
		return nil, p.errorf(span.StartLine, "$Descr: %v", err)
	}
	d.PaperSize, d.Width, d.Height = words[1], dims[0], dims[1]
	d.Portrait = len(words) > 4 && words[4] == "portrait"

	for i := 1; i < len(lines)-1; i++ {
		line := trimEOL(lines[i])
		key, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		rest = strings.TrimSpace(rest)

		switch {
		case key == "encoding":
			d.Encoding = rest
		case key == "Sheet":
			nums, err := record.Ints(record.Fields(rest)...)
			if err != nil || len(nums) != 2 {
				return nil, p.errorf(span.StartLine+i, "bad Sheet line %q", line)
			}
			d.SheetNumber, d.SheetCount = nums[0], nums[1]
		case key == "Title":
			d.Title = record.Unquote(rest)
		case key == "Date":
			d.Date = record.Unquote(rest)
		case key == "Rev":
			d.Revision = record.Unquote(rest)
		case key == "Comp":
			d.Company = record.Unquote(rest)
		case strings.HasPrefix(key, "Comment"):
			n, err := strconv.Atoi(strings.TrimPrefix(key, "Comment"))
			if err != nil || n < 1 {
				d.Extra = append(d.Extra, line)
				continue
			}
			for len(d.Comments) < n {
				d.Comments = append(d.Comments, "")
			}
			d.Comments[n-1] = record.Unquote(rest)
		default:
			d.Extra = append(d.Extra, line)
		}
	}

	return d, nil
}

// Line kinds inside a $Comp or $Sheet block, kept so regeneration can
// write lines back in their original order.
type lineKind int

const (
	lineMarker lineKind = iota
	lineLib
	lineUnit
	linePos
	lineField
	lineUnitPos
	lineMatrix
	lineSize
	lineTimestamp
	lineName
	lineFile
	lineLabel
	lineExtra
)

type compLine struct {
	kind lineKind
	raw  string
}

// compSnapshot is what the component's single-valued lines decoded to
type compSnapshot struct {
	name, ref     string
	unit, convert int
	timestamp     string
	pos           Position
	rotation      ComponentRotation
}

// rawField is a field record and the value it decoded to. An empty raw
// marks a built-in field that was absent from the file.
type rawField struct {
	raw   string
	value ComponentField
}

// parseComponent parses a $Comp block
func (p *parser) parseComponent(span blocks.Span) (*Component, error) {
	lines := span.Lines()
	c := &Component{
		Unit:       1,
		Convert:    1,
		Fields:     FieldMap{},
		Line:       span.StartLine,
		raw:        span.Text,
		eol:        detectEOL(span.Text),
		origFields: map[int]rawField{},
	}

	var seenLib, seenPos, seenMatrix bool
	for i, line := range lines {
		lineNo := span.StartLine + i
		if i == 0 || i == len(lines)-1 {
			c.lines = append(c.lines, compLine{kind: lineMarker, raw: line})
			continue
		}

		words := record.Fields(line)
		kind := lineExtra
		switch {
		case len(words) == 0:
			c.Extra = append(c.Extra, trimEOL(line))

		case words[0] == "L":
			if len(words) != 3 {
				return nil, p.errorf(lineNo, "L line needs library name and reference")
			}
			c.Name, c.Reference = words[1], words[2]
			seenLib = true
			kind = lineLib

		case words[0] == "U":
			if len(words) != 4 {
				return nil, p.errorf(lineNo, "U line needs unit, convert and time stamp")
			}
			nums, err := record.Ints(words[1], words[2])
			if err != nil {
				return nil, p.errorf(lineNo, "U line: %v", err)
			}
			c.Unit, c.Convert, c.Timestamp = nums[0], nums[1], words[3]
			kind = lineUnit

		case words[0] == "P":
			if len(words) != 3 {
				return nil, p.errorf(lineNo, "P line needs x and y")
			}
			nums, err := record.Ints(words[1], words[2])
			if err != nil {
				return nil, p.errorf(lineNo, "P line: %v", err)
			}
			c.Position = Position{X: nums[0], Y: nums[1]}
			seenPos = true
			kind = linePos

		case words[0] == "F":
			idx, field, err := decodeComponentField(line)
			if err != nil {
				return nil, p.errorf(lineNo, "%v", err)
			}
			if _, dup := c.Fields[idx]; dup {
				return nil, p.errorf(lineNo, "duplicate field index %d", idx)
			}
			c.Fields[idx] = field
			c.origFields[idx] = rawField{raw: line, value: field}
			kind = lineField

		case isNumeric(words[0]):
			nums, err := record.Ints(words...)
			if err != nil {
				return nil, p.errorf(lineNo, "%v", err)
			}
			switch len(nums) {
			case 3:
				kind = lineUnitPos
			case 4:
				c.Rotation = ComponentRotation{A: nums[0], B: nums[1], C: nums[2], D: nums[3]}
				if _, _, err := c.Rotation.Decode(); err != nil {
					return nil, p.errorf(lineNo, "%v", err)
				}
				seenMatrix = true
				kind = lineMatrix
			default:
				return nil, p.errorf(lineNo, "unexpected numeric record %q", trimEOL(line))
			}

		default:
			c.Extra = append(c.Extra, trimEOL(line))
		}

		c.lines = append(c.lines, compLine{kind: kind, raw: line})
	}

	switch {
	case !seenLib:
		return nil, p.errorf(span.StartLine, "component has no L line")
	case !seenPos:
		return nil, p.errorf(span.StartLine, "component %s has no P line", c.Reference)
	case !seenMatrix:
		return nil, p.errorf(span.StartLine, "component %s has no rotation matrix", c.Reference)
	}

	// Built-in fields always exist
	for idx := FieldReference; idx < FirstUserField; idx++ {
		if _, ok := c.Fields[idx]; ok {
			continue
		}
		field := ComponentField{Position: c.Position, Size: defaultFieldSize}
		if idx == FieldReference {
			field.Value = c.Reference
		}
		c.Fields[idx] = field
		c.origFields[idx] = rawField{value: field}
	}

	c.orig.name, c.orig.ref = c.Name, c.Reference
	c.orig.unit, c.orig.convert, c.orig.timestamp = c.Unit, c.Convert, c.Timestamp
	c.orig.pos = c.Position
	c.orig.rotation = c.Rotation

	return c, nil
}

// decodeComponentField decodes an "F n ..." record
func decodeComponentField(line string) (int, ComponentField, error) {
	rec, err := record.ParseComponentField(line)
	if err != nil {
		return 0, ComponentField{}, err
	}

	nums, err := record.Ints(rec.Index, rec.X, rec.Y, rec.Size, rec.Flags)
	if err != nil {
		return 0, ComponentField{}, fmt.Errorf("field record: %w", err)
	}
	if nums[0] < 0 {
		return 0, ComponentField{}, fmt.Errorf("negative field index %d", nums[0])
	}

	f := ComponentField{
		Value:    record.Unquote(rec.Text),
		Position: Position{X: nums[1], Y: nums[2]},
		Vertical: rec.Orientation == "V",
		Size:     nums[3],
		Visible:  nums[4] == 0,
	}
	if rec.Name != nil {
		f.Name = record.Unquote(*rec.Name)
	}

	switch rec.HJustify {
	case "", "C":
		f.Justify.H = HCenter
	case "L":
		f.Justify.H = HLeft
	case "R":
		f.Justify.H = HRight
	default:
		return 0, ComponentField{}, fmt.Errorf("unknown horizontal justification %q", rec.HJustify)
	}

	if rec.Style != "" {
		if len(rec.Style) != 3 {
			return 0, ComponentField{}, fmt.Errorf("bad field style %q", rec.Style)
		}
		switch rec.Style[0] {
		case 'C':
			f.Justify.V = VCenter
		case 'T':
			f.Justify.V = VTop
		case 'B':
			f.Justify.V = VBottom
		default:
			return 0, ComponentField{}, fmt.Errorf("unknown vertical justification %q", rec.Style[:1])
		}
		f.Italic = rec.Style[1] == 'I'
		f.Bold = rec.Style[2] == 'B'
	}

	return nums[0], f, nil
}

type sheetLine = compLine

type sheetSnapshot struct {
	pos       Position
	size      Size
	timestamp string
	name      string
	nameSize  int
	file      string
	fileSize  int
}

type rawLabel struct {
	raw   string
	label SheetLabel
}

var labelForms = map[string]LabelForm{
	"I": FormInput,
	"O": FormOutput,
	"B": FormBidirectional,
	"T": FormTriState,
	"P": FormPassive,
	"U": FormUnspecified,
}

var labelSides = map[string]LabelSide{
	"L": SideLeft,
	"R": SideRight,
	"T": SideTop,
	"B": SideBottom,
}

// parseSheet parses a $Sheet block
func (p *parser) parseSheet(span blocks.Span) (*Sheet, error) {
	lines := span.Lines()
	s := &Sheet{
		Line: span.StartLine,
		raw:  span.Text,
		eol:  detectEOL(span.Text),
	}

	var seenSize, seenFile bool
	seen := map[int]bool{}
	for i, line := range lines {
		lineNo := span.StartLine + i
		if i == 0 || i == len(lines)-1 {
			s.lines = append(s.lines, sheetLine{kind: lineMarker, raw: line})
			continue
		}

		words := record.Fields(line)
		kind := lineExtra
		switch {
		case len(words) == 0:
			s.Extra = append(s.Extra, trimEOL(line))

		case words[0] == "S":
			if len(words) != 5 {
				return nil, p.errorf(lineNo, "S line needs x, y, width and height")
			}
			nums, err := record.Ints(words[1:]...)
			if err != nil {
				return nil, p.errorf(lineNo, "S line: %v", err)
			}
			s.Position = Position{X: nums[0], Y: nums[1]}
			s.Size = Size{Width: nums[2], Height: nums[3]}
			seenSize = true
			kind = lineSize

		case words[0] == "U":
			if len(words) != 2 {
				return nil, p.errorf(lineNo, "U line needs a time stamp")
			}
			s.Timestamp = words[1]
			kind = lineTimestamp

		case isSheetFieldTag(words[0]):
			rec, err := record.ParseSheetField(line)
			if err != nil {
				return nil, p.errorf(lineNo, "%v", err)
			}
			n, err := rec.Number()
			if err != nil {
				return nil, p.errorf(lineNo, "%v", err)
			}
			if seen[n] {
				return nil, p.errorf(lineNo, "duplicate sheet field F%d", n)
			}
			seen[n] = true

			size, err := strconv.Atoi(rec.Size)
			if err != nil {
				return nil, p.errorf(lineNo, "bad text size %q", rec.Size)
			}

			switch n {
			case 0:
				s.Name, s.NameSize = record.Unquote(rec.Text), size
				kind = lineName
			case 1:
				s.File, s.FileSize = record.Unquote(rec.Text), size
				seenFile = true
				kind = lineFile
			default:
				label, err := decodeSheetLabel(n, rec, size)
				if err != nil {
					return nil, p.errorf(lineNo, "%v", err)
				}
				s.Labels = append(s.Labels, label)
				s.origLabels = append(s.origLabels, rawLabel{raw: line, label: label})
				kind = lineLabel
			}

		default:
			s.Extra = append(s.Extra, trimEOL(line))
		}

		s.lines = append(s.lines, sheetLine{kind: kind, raw: line})
	}

	if !seenSize {
		return nil, p.errorf(span.StartLine, "sheet has no S line")
	}
	if !seenFile {
		return nil, p.errorf(span.StartLine, "sheet %q has no file name (F1)", s.Name)
	}

	s.orig = sheetSnapshot{
		pos:       s.Position,
		size:      s.Size,
		timestamp: s.Timestamp,
		name:      s.Name,
		nameSize:  s.NameSize,
		file:      s.File,
		fileSize:  s.FileSize,
	}

	return s, nil
}

func decodeSheetLabel(n int, rec *record.SheetField, size int) (SheetLabel, error) {
	if rec.Label == nil {
		return SheetLabel{}, fmt.Errorf("sheet label F%d has no form, side and position", n)
	}

	form, ok := labelForms[rec.Label.Form]
	if !ok {
		return SheetLabel{}, fmt.Errorf("unknown label form %q", rec.Label.Form)
	}
	side, ok := labelSides[rec.Label.Side]
	if !ok {
		return SheetLabel{}, fmt.Errorf("unknown label side %q", rec.Label.Side)
	}
	pos, err := record.Ints(rec.Label.X, rec.Label.Y)
	if err != nil {
		return SheetLabel{}, err
	}

	return SheetLabel{
		Name:     record.Unquote(rec.Text),
		Number:   n,
		Form:     form,
		Side:     side,
		Position: Position{X: pos[0], Y: pos[1]},
		Size:     size,
	}, nil
}

// isSheetFieldTag reports whether word is "F<digits>"
func isSheetFieldTag(word string) bool {
	return len(word) > 1 && word[0] == 'F' && isNumeric(word[1:])
}

func isNumeric(word string) bool {
	if word == "" {
		return false
	}
	if word[0] == '-' || word[0] == '+' {
		word = word[1:]
	}
	if word == "" {
		return false
	}
	for _, r := range word {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}

func detectEOL(text string) string {
	if i := strings.IndexByte(text, '\n'); i > 0 && text[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
