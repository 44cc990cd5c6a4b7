// Package blocks splits legacy KiCad text documents into raw spans.
//
// A span is either a marker block ($Keyword ... $EndKeyword) or a run of
// lines outside any block. The scanner does no interpretation beyond
// recognizing markers: every input byte ends up in exactly one span, in
// order, so concatenating the spans gives back the original text.
package blocks

import (
	"fmt"
	"strings"
)

// Span is a contiguous slice of the input document
type Span struct {
	Keyword   string // Marker keyword without "$" (e.g. "Comp"), empty for free text
	Text      string // Raw text including line terminators
	StartLine int    // 1-based line number of the first line
	EndLine   int    // 1-based line number of the last line
}

// IsBlock reports whether the span is a $Keyword ... $EndKeyword block
func (s Span) IsBlock() bool {
	return s.Keyword != ""
}

// Lines returns the span's lines with their terminators kept
func (s Span) Lines() []string {
	return SplitLines(s.Text)
}

// SyntaxError reports an unbalanced marker
type SyntaxError struct {
	Line   int
	Detail string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Detail)
}

// SplitLines splits text into lines, keeping "\n" or "\r\n" on each line.
// A final line without terminator is returned as is.
func SplitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}

// StartKeyword returns the keyword of a "$Keyword" start marker line.
// "$End..." lines are never start markers.
func StartKeyword(line string) (string, bool) {
	word := markerWord(line)
	if word == "" || strings.HasPrefix(word, "End") {
		return "", false
	}
	return word, true
}

// IsEndMarker reports whether line is the "$End<keyword>" marker
func IsEndMarker(line, keyword string) bool {
	return markerWord(line) == "End"+keyword
}

// markerWord returns the identifier following a leading "$", or "".
// Text such as "$5 budget" is not a marker.
func markerWord(line string) string {
	line = strings.TrimSpace(line)
	if len(line) < 2 || line[0] != '$' {
		return ""
	}
	word := line[1:]
	if i := strings.IndexAny(word, " \t"); i >= 0 {
		word = word[:i]
	}
	if !isIdentifier(word) {
		return ""
	}
	return word
}

// isIdentifier matches [A-Za-z][A-Za-z0-9_]*
func isIdentifier(word string) bool {
	for i := 0; i < len(word); i++ {
		c := word[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case i > 0 && (c >= '0' && c <= '9' || c == '_'):
		default:
			return false
		}
	}
	return word != ""
}

// Scan splits text into spans.
//
// A start marker must be closed by its matching end marker before the end of
// the text and before another start marker of the same keyword. Start markers
// of other keywords inside a block are block content.
func Scan(text string) ([]Span, error) {
	lines := SplitLines(text)
	var spans []Span

	var free strings.Builder
	freeStart := 0

	flushFree := func(endLine int) {
		if free.Len() == 0 {
			return
		}
		spans = append(spans, Span{
			Text:      free.String(),
			StartLine: freeStart,
			EndLine:   endLine,
		})
		free.Reset()
	}

	for i := 0; i < len(lines); i++ {
		keyword, ok := StartKeyword(lines[i])
		if !ok {
			if free.Len() == 0 {
				freeStart = i + 1
			}
			free.WriteString(lines[i])
			continue
		}

		flushFree(i)

		// Find the matching end marker
		start := i
		var block strings.Builder
		block.WriteString(lines[i])
		closed := false
		for i++; i < len(lines); i++ {
			if IsEndMarker(lines[i], keyword) {
				block.WriteString(lines[i])
				closed = true
				break
			}
			if inner, ok := StartKeyword(lines[i]); ok && inner == keyword {
				return nil, &SyntaxError{
					Line:   i + 1,
					Detail: fmt.Sprintf("$%s opened at line %d is not closed before nested $%s", keyword, start+1, keyword),
				}
			}
			block.WriteString(lines[i])
		}
		if !closed {
			return nil, &SyntaxError{
				Line:   start + 1,
				Detail: fmt.Sprintf("$%s has no matching $End%s", keyword, keyword),
			}
		}

		spans = append(spans, Span{
			Keyword:   keyword,
			Text:      block.String(),
			StartLine: start + 1,
			EndLine:   i + 1,
		})
	}

	flushFree(len(lines))
	return spans, nil
}

// Join concatenates span texts in order
func Join(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
