package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// ComponentField is a component field record:
//
//	F 1 "10k" V 2650 1150 50  0000 C CNN "Name"
type ComponentField struct {
	Index       string  `parser:"'F' @Number"`
	Text        string  `parser:"@String"`
	Orientation string  `parser:"@('H' | 'V')"`
	X           string  `parser:"@Number"`
	Y           string  `parser:"@Number"`
	Size        string  `parser:"@Number"`
	Flags       string  `parser:"@Number"`
	HJustify    string  `parser:"@Ident?"`
	Style       string  `parser:"@Ident?"`
	Name        *string `parser:"@String?"`
}

// SheetField is a sheet field record. F0 and F1 carry the sheet name and
// file name, higher numbers are port labels:
//
//	F1 "power.sch" 60
//	F2 "VCC" O R 7000 3200 60
type SheetField struct {
	Tag   string      `parser:"@Ident"`
	Text  string      `parser:"@String"`
	Label *SheetLabel `parser:"@@?"`
	Size  string      `parser:"@Number"`
}

// SheetLabel holds the port label part of a SheetField
type SheetLabel struct {
	Form string `parser:"@Ident"`
	Side string `parser:"@Ident"`
	X    string `parser:"@Number"`
	Y    string `parser:"@Number"`
}

var (
	componentFieldParser = participle.MustBuild[ComponentField](
		participle.Lexer(LegacyLexer),
		participle.Elide("Whitespace"),
	)
	sheetFieldParser = participle.MustBuild[SheetField](
		participle.Lexer(LegacyLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(2),
	)
)

// ParseComponentField decodes a component "F n ..." record
func ParseComponentField(line string) (*ComponentField, error) {
	f, err := componentFieldParser.ParseString("", strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("field record: %w", err)
	}
	return f, nil
}

// ParseSheetField decodes a sheet "Fn ..." record
func ParseSheetField(line string) (*SheetField, error) {
	f, err := sheetFieldParser.ParseString("", strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("sheet field record: %w", err)
	}
	if !strings.HasPrefix(f.Tag, "F") {
		return nil, fmt.Errorf("sheet field record: expected F<n>, got %q", f.Tag)
	}
	return f, nil
}

// Number returns the n of an "F<n>" tag
func (f *SheetField) Number() (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(f.Tag, "F"))
	if err != nil {
		return 0, fmt.Errorf("bad sheet field tag %q", f.Tag)
	}
	return n, nil
}

// Ints converts decimal words to ints, naming the first bad one
func Ints(words ...string) ([]int, error) {
	out := make([]int, len(words))
	for i, w := range words {
		v, err := strconv.Atoi(w)
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %q", w)
		}
		out[i] = v
	}
	return out, nil
}
