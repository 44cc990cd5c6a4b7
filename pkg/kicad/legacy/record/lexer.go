// Package record decodes single records (lines) of the legacy KiCad
// schematic format.
//
// Records are whitespace separated tokens: quoted strings, integers and
// bare words. Field records ("F 0 ...", "F2 ...") are parsed with
// participle grammars; simpler records are split with Fields.
package record

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// LegacyLexer defines the tokens of a legacy schematic record
var LegacyLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Quoted text, backslash escapes a quote or a backslash
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},

	// Integers (coordinates, sizes, flags like 0001)
	{Name: "Number", Pattern: `[-+]?\d+\b`},

	// Anything else up to whitespace: codes, library ids, timestamps
	{Name: "Ident", Pattern: `[^\s"]+`},

	{Name: "Whitespace", Pattern: `\s+`},
})

// Fields splits an unquoted record into its whitespace separated words
func Fields(line string) []string {
	return strings.Fields(line)
}

// Unquote strips the surrounding quotes of a String token and resolves
// the \" and \\ escapes.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Quote is the inverse of Unquote
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
