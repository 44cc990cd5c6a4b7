package schematic

import (
	"path/filepath"
	"strings"
)

// SheetExtension is appended to sheet file fields that have no extension
const SheetExtension = ".sch"

// SheetContext is what a child sheet's file name is resolved against: the
// directory of the parent document and the chain of files above it.
// It is passed explicitly down recursive loads.
type SheetContext struct {
	Dir   string   // Directory relative file fields resolve against
	Trail []string // Resolved file names from the root to the parent
}

// ContextFor returns the context for sheets found in s
func ContextFor(s *Schematic) SheetContext {
	ctx := SheetContext{Dir: "."}
	if s.Filename != "" {
		ctx.Dir = filepath.Dir(s.Filename)
		ctx.Trail = []string{filepath.Clean(s.Filename)}
	}
	return ctx
}

// Child returns the context for sheets found inside the document sheet
// refers to.
func (c SheetContext) Child(sheet *Sheet) SheetContext {
	name := FilenameForSheet(sheet, c)
	trail := make([]string, len(c.Trail), len(c.Trail)+1)
	copy(trail, c.Trail)
	return SheetContext{
		Dir:   filepath.Dir(name),
		Trail: append(trail, name),
	}
}

// Contains reports whether name is already in the trail
func (c SheetContext) Contains(name string) bool {
	name = filepath.Clean(name)
	for _, t := range c.Trail {
		if t == name {
			return true
		}
	}
	return false
}

// FilenameForSheet returns the name of the file a sheet refers to.
// Backslashes are treated as separators, ".sch" is added when the field
// has no extension, and relative names are joined to ctx.Dir. The result
// depends only on the arguments; the file is not checked.
func FilenameForSheet(sheet *Sheet, ctx SheetContext) string {
	return resolveSheetPath(sheet.File, ctx)
}

func resolveSheetPath(name string, ctx SheetContext) string {
	name = filepath.FromSlash(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if filepath.Ext(name) == "" {
		name += SheetExtension
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}

	dir := ctx.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name)
}
