package convert

import (
	"encoding/json"
	"strings"

	"github.com/iptoux/tokentools/internal/jsonval"
)

// YAML renders v in a YAML-like notation: two-space indentation, "- " list
// items, inline "[]" and "{}" for empty containers. The output is a lite
// approximation meant for visual and token-cost comparison, not a guaranteed
// byte-exact match for any external YAML parser.
func YAML(v jsonval.Value, opts Options) string {
	if isYAMLInline(v) {
		return yamlScalar(v, opts)
	}
	return strings.Join(yamlLines(v, "", opts), "\n")
}

// isYAMLInline reports whether v renders as a single inline token
// (scalars and empty containers).
func isYAMLInline(v jsonval.Value) bool {
	switch t := v.(type) {
	case jsonval.Object:
		return len(t) == 0
	case jsonval.Array:
		return len(t) == 0
	default:
		return true
	}
}

func yamlScalar(v jsonval.Value, opts Options) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case json.Number:
		return t.String()
	case string:
		if opts.TokenAware && IsBareWord(t) {
			return t
		}
		return quoteString(t)
	case jsonval.Object:
		return "{}"
	case jsonval.Array:
		return "[]"
	}
	return ""
}

// yamlLines renders a non-empty container as indented lines.
func yamlLines(v jsonval.Value, indent string, opts Options) []string {
	var lines []string
	switch t := v.(type) {
	case jsonval.Object:
		for _, m := range t {
			if isYAMLInline(m.Value) {
				lines = append(lines, indent+m.Key+": "+yamlScalar(m.Value, opts))
				continue
			}
			lines = append(lines, indent+m.Key+":")
			lines = append(lines, yamlLines(m.Value, indent+"  ", opts)...)
		}
	case jsonval.Array:
		for _, el := range t {
			if isYAMLInline(el) {
				lines = append(lines, indent+"- "+yamlScalar(el, opts))
				continue
			}
			// The element's first line rides on the "- " marker; the rest
			// stay two spaces deeper.
			nested := yamlLines(el, indent+"  ", opts)
			first := indent + "- " + strings.TrimPrefix(nested[0], indent+"  ")
			lines = append(lines, first)
			lines = append(lines, nested[1:]...)
		}
	}
	return lines
}
