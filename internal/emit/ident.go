// SPDX-License-Identifier: MPL-2.0

package emit

import (
	"fmt"
	"regexp"
	"strings"
)

// configSuffix is appended to a module identifier for its config import.
const configSuffix = "_config"

// boundNames are declared by every aggregation source.
var boundNames = []string{"config", "name", "handleModules", "activeModule"}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ValidMarker reports whether name can be exported as the marker binding: a
// plain identifier that is neither reserved nor already bound by the
// aggregation source.
func ValidMarker(name string) bool {
	if !identifierPattern.MatchString(name) {
		return false
	}
	if _, reserved := reservedWords[name]; reserved {
		return false
	}
	for _, bound := range boundNames {
		if name == bound {
			return false
		}
	}
	return true
}

var reservedWords = map[string]struct{}{
	"abstract": {}, "arguments": {}, "await": {}, "boolean": {}, "break": {},
	"byte": {}, "case": {}, "catch": {}, "char": {}, "class": {}, "const": {},
	"continue": {}, "debugger": {}, "default": {}, "delete": {}, "do": {},
	"double": {}, "else": {}, "enum": {}, "eval": {}, "export": {},
	"extends": {}, "false": {}, "final": {}, "finally": {}, "float": {},
	"for": {}, "function": {}, "goto": {}, "if": {}, "implements": {},
	"import": {}, "in": {}, "instanceof": {}, "int": {}, "interface": {},
	"let": {}, "long": {}, "native": {}, "new": {}, "null": {}, "package": {},
	"private": {}, "protected": {}, "public": {}, "return": {}, "short": {},
	"static": {}, "super": {}, "switch": {}, "synchronized": {}, "this": {},
	"throw": {}, "throws": {}, "transient": {}, "true": {}, "try": {},
	"typeof": {}, "undefined": {}, "var": {}, "void": {}, "volatile": {},
	"while": {}, "with": {}, "yield": {},
}

// identScope hands out unique JavaScript identifiers. Each identifier also
// claims its config companion so the two never collide with another module.
type identScope struct {
	used map[string]struct{}
}

func newIdentScope(taken ...string) *identScope {
	s := &identScope{used: make(map[string]struct{}, len(taken))}
	for _, id := range taken {
		s.used[id] = struct{}{}
	}
	return s
}

func (s *identScope) claim(name string) string {
	base := sanitizeIdent(name)
	id := base
	for n := 2; s.taken(id); n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	s.used[id] = struct{}{}
	s.used[id+configSuffix] = struct{}{}
	return id
}

func (s *identScope) taken(id string) bool {
	_, a := s.used[id]
	_, b := s.used[id+configSuffix]
	return a || b
}

// sanitizeIdent maps name onto the ASCII identifier alphabet.
func sanitizeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '$':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	id := b.String()
	if id == "" {
		return "_"
	}
	if id[0] >= '0' && id[0] <= '9' {
		return "_" + id
	}
	if _, ok := reservedWords[id]; ok {
		return "_" + id
	}
	return id
}

// quote renders s as a single-quoted JavaScript string literal.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028':
			b.WriteString(`\u2028`)
		case '\u2029':
			b.WriteString(`\u2029`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
