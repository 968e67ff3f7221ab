package convert

import "strings"

// reserved holds words that read as non-string scalars when unquoted.
// Matched case-insensitively.
var reserved = map[string]struct{}{
	"true":  {},
	"false": {},
	"null":  {},
	"yes":   {},
	"no":    {},
	"on":    {},
	"off":   {},
	"~":     {},
}

// IsBareWord reports whether s can be emitted without quotes in token-aware
// mode. Only ASCII letters, digits, underscore and hyphen qualify, and the
// lowercased form must not collide with a reserved scalar word. Every
// converter uses this exact predicate so token-count comparisons between
// formats stay meaningful.
func IsBareWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}
	_, isReserved := reserved[strings.ToLower(s)]
	return !isReserved
}
