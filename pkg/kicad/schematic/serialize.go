package schematic

import (
	"fmt"
	"io"
	"strings"

	"github.com/OpenTraceLab/kisch/pkg/kicad/legacy/record"
)

// Serialize returns the schematic as text. Clean elements are written
// exactly as they were read; dirty ones are regenerated.
func (s *Schematic) Serialize() string {
	var b strings.Builder
	if s.Preamble != nil {
		b.WriteString(s.Preamble.Text)
	}
	if s.Description != nil {
		b.WriteString(s.Description.text())
	}
	for _, e := range s.Elements {
		b.WriteString(ElementText(e))
	}
	return b.String()
}

// WriteTo writes the serialized schematic to w
func (s *Schematic) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.Serialize())
	return int64(n), err
}

// ElementText returns the text the serializer emits for e
func ElementText(e Element) string {
	switch e := e.(type) {
	case *Component:
		return e.text()
	case *Sheet:
		return e.text()
	case *Unparsed:
		return e.Text
	}
	panic(fmt.Sprintf("schematic: unknown element type %T", e))
}

// lineWriter accumulates regenerated block text
type lineWriter struct {
	b   strings.Builder
	eol string
}

// raw writes a line kept from the source, terminator included
func (w *lineWriter) raw(line string) {
	w.b.WriteString(line)
}

// line writes a regenerated line
func (w *lineWriter) line(format string, args ...any) {
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteString(w.eol)
}

// extras writes extra[k:] and returns len(extra)
func (w *lineWriter) extras(extra []string, k int) int {
	for ; k < len(extra); k++ {
		w.line("%s", extra[k])
	}
	return k
}

// text returns the component block, regenerating changed lines if dirty
func (c *Component) text() string {
	if !c.dirty {
		return c.raw
	}

	w := &lineWriter{eol: c.eol}
	fieldsDone := false
	extra := 0
	writeFields := func() {
		if !fieldsDone {
			c.writeFields(w)
			fieldsDone = true
		}
	}

	for i, l := range c.lines {
		switch l.kind {
		case lineMarker:
			if i > 0 {
				extra = w.extras(c.Extra, extra)
				writeFields()
			}
			w.raw(l.raw)
		case lineLib:
			if c.Name == c.orig.name && c.Reference == c.orig.ref {
				w.raw(l.raw)
			} else {
				w.line("L %s %s", c.Name, c.Reference)
			}
		case lineUnit:
			if c.Unit == c.orig.unit && c.Convert == c.orig.convert && c.Timestamp == c.orig.timestamp {
				w.raw(l.raw)
			} else {
				w.line("U %d %d %s", c.Unit, c.Convert, c.Timestamp)
			}
		case linePos:
			if c.Position == c.orig.pos {
				w.raw(l.raw)
			} else {
				w.line("P %d %d", c.Position.X, c.Position.Y)
			}
		case lineField:
			writeFields()
		case lineUnitPos:
			writeFields()
			if c.Unit == c.orig.unit && c.Position == c.orig.pos {
				w.raw(l.raw)
			} else {
				w.line("\t%-4d %d %d", c.Unit, c.Position.X, c.Position.Y)
			}
		case lineMatrix:
			writeFields()
			if c.Rotation == c.orig.rotation {
				w.raw(l.raw)
			} else {
				r := c.Rotation
				w.line("\t%-4d %-4d %-4d %d", r.A, r.B, r.C, r.D)
			}
		case lineExtra:
			if extra < len(c.Extra) {
				if c.Extra[extra] == trimEOL(l.raw) {
					w.raw(l.raw)
				} else {
					w.line("%s", c.Extra[extra])
				}
				extra++
			}
		}
	}

	return w.b.String()
}

// writeFields writes every field in index order. Unchanged fields keep
// their source line; built-ins that were absent stay absent while unchanged.
func (c *Component) writeFields(w *lineWriter) {
	for _, idx := range c.Fields.Indices() {
		f := c.Fields[idx]
		if orig, ok := c.origFields[idx]; ok && orig.value == f {
			w.raw(orig.raw)
			continue
		}
		w.line("%s", FormatField(idx, f))
	}
}

// FormatField returns the canonical record for a component field
func FormatField(idx int, f ComponentField) string {
	orient := "H"
	if f.Vertical {
		orient = "V"
	}
	flags := "0000"
	if !f.Visible {
		flags = "0001"
	}

	line := fmt.Sprintf("F %d %s %s %d %d %d  %s %c %c%c%c",
		idx, record.Quote(f.Value), orient, f.Position.X, f.Position.Y, f.Size,
		flags, hjustCode(f.Justify.H), vjustCode(f.Justify.V),
		styleCode(f.Italic, 'I'), styleCode(f.Bold, 'B'))
	if f.Name != "" {
		line += " " + record.Quote(f.Name)
	}
	return line
}

func hjustCode(h HJustify) byte {
	switch h {
	case HLeft:
		return 'L'
	case HRight:
		return 'R'
	}
	return 'C'
}

func vjustCode(v VJustify) byte {
	switch v {
	case VTop:
		return 'T'
	case VBottom:
		return 'B'
	}
	return 'C'
}

func styleCode(on bool, code byte) byte {
	if on {
		return code
	}
	return 'N'
}

// text returns the sheet block, regenerating changed lines if dirty
func (s *Sheet) text() string {
	if !s.dirty {
		return s.raw
	}

	w := &lineWriter{eol: s.eol}
	labelsDone := false
	extra := 0
	writeLabels := func() {
		if !labelsDone {
			s.writeLabels(w)
			labelsDone = true
		}
	}

	for i, l := range s.lines {
		switch l.kind {
		case lineMarker:
			if i > 0 {
				extra = w.extras(s.Extra, extra)
				writeLabels()
			}
			w.raw(l.raw)
		case lineSize:
			if s.Position == s.orig.pos && s.Size == s.orig.size {
				w.raw(l.raw)
			} else {
				w.line("S %-4d %-4d %-4d %d", s.Position.X, s.Position.Y, s.Size.Width, s.Size.Height)
			}
		case lineTimestamp:
			if s.Timestamp == s.orig.timestamp {
				w.raw(l.raw)
			} else {
				w.line("U %s", s.Timestamp)
			}
		case lineName:
			if s.Name == s.orig.name && s.NameSize == s.orig.nameSize {
				w.raw(l.raw)
			} else {
				w.line("F0 %s %d", record.Quote(s.Name), s.NameSize)
			}
		case lineFile:
			if s.File == s.orig.file && s.FileSize == s.orig.fileSize {
				w.raw(l.raw)
			} else {
				w.line("F1 %s %d", record.Quote(s.File), s.FileSize)
			}
		case lineLabel:
			writeLabels()
		case lineExtra:
			if extra < len(s.Extra) {
				if s.Extra[extra] == trimEOL(l.raw) {
					w.raw(l.raw)
				} else {
					w.line("%s", s.Extra[extra])
				}
				extra++
			}
		}
	}

	return w.b.String()
}

func (s *Sheet) writeLabels(w *lineWriter) {
	for k, l := range s.Labels {
		if k < len(s.origLabels) && s.origLabels[k].label == l {
			w.raw(s.origLabels[k].raw)
			continue
		}
		w.line("%s", FormatSheetLabel(l))
	}
}

// FormatSheetLabel returns the canonical record for a sheet port label
func FormatSheetLabel(l SheetLabel) string {
	return fmt.Sprintf("F%d %s %s %s %d %d %d",
		l.Number, record.Quote(l.Name), formCode(l.Form), sideCode(l.Side),
		l.Position.X, l.Position.Y, l.Size)
}

func formCode(f LabelForm) string {
	for code, form := range labelForms {
		if form == f {
			return code
		}
	}
	return "U"
}

func sideCode(s LabelSide) string {
	for code, side := range labelSides {
		if side == s {
			return code
		}
	}
	return "L"
}

// text returns the $Descr block, regenerated in full if dirty
func (d *Description) text() string {
	if !d.dirty {
		return d.raw
	}

	w := &lineWriter{eol: d.eol}
	if d.Portrait {
		w.line("$Descr %s %d %d portrait", d.PaperSize, d.Width, d.Height)
	} else {
		w.line("$Descr %s %d %d", d.PaperSize, d.Width, d.Height)
	}
	if d.Encoding != "" {
		w.line("encoding %s", d.Encoding)
	}
	if d.SheetCount > 0 {
		w.line("Sheet %d %d", d.SheetNumber, d.SheetCount)
	}
	w.line("Title %s", record.Quote(d.Title))
	w.line("Date %s", record.Quote(d.Date))
	w.line("Rev %s", record.Quote(d.Revision))
	w.line("Comp %s", record.Quote(d.Company))
	for i, c := range d.Comments {
		w.line("Comment%d %s", i+1, record.Quote(c))
	}
	for _, e := range d.Extra {
		w.line("%s", e)
	}
	w.line("$EndDescr")
	return w.b.String()
}
