package kicadsexp

import (
	"strings"

	"github.com/chewxy/sexp"
)

// ToSlice returns the items of a list, or nil for atoms
func ToSlice(s sexp.Sexp) []sexp.Sexp {
	if l, ok := s.(sexp.List); ok {
		return l
	}
	return nil
}

// Atom returns the text of an atom, or "" for lists
func Atom(s sexp.Sexp) string {
	if sym, ok := s.(sexp.Symbol); ok {
		return string(sym)
	}
	return ""
}

// Key returns the leading atom of a list: "lib" for (lib ...)
func Key(s sexp.Sexp) string {
	items := ToSlice(s)
	if len(items) == 0 {
		return ""
	}
	return Atom(items[0])
}

// FindNode returns the first child list of s whose key is key
// Example: FindNode((lib (name A)(uri B)), "uri") finds (uri B)
func FindNode(s sexp.Sexp, key string) (sexp.Sexp, bool) {
	for _, item := range ToSlice(s) {
		if Key(item) == key {
			return item, true
		}
	}
	return nil, false
}

// FindAllNodes returns every child list of s whose key is key
func FindAllNodes(s sexp.Sexp, key string) []sexp.Sexp {
	var results []sexp.Sexp
	for _, item := range ToSlice(s) {
		if Key(item) == key {
			results = append(results, item)
		}
	}
	return results
}

// GetString returns the first value of the child list named key:
// GetString((lib (name A)), "name") is "A".
func GetString(s sexp.Sexp, key string) (string, bool) {
	node, ok := FindNode(s, key)
	if !ok {
		return "", false
	}
	items := ToSlice(node)
	if len(items) < 2 {
		return "", true
	}
	return Atom(items[1]), true
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Quote writes s as a string the lexer reads back unchanged
func Quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}
