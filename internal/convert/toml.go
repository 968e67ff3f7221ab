package convert

import (
	"encoding/json"
	"strings"

	"github.com/iptoux/tokentools/internal/jsonval"
)

// TOML renders v in TOML-like key/table syntax. Nested objects become
// [table] sections, arrays of objects become [[table]] entries, everything
// else renders inline. Like the YAML output this is a lite approximation for
// comparison purposes. A non-object root has no table form in TOML, so it is
// rendered as a single inline value.
func TOML(v jsonval.Value, opts Options) string {
	obj, ok := v.(jsonval.Object)
	if !ok {
		return tomlInline(v, opts)
	}
	lines := tomlTable(obj, nil, opts)
	return strings.Join(lines, "\n")
}

// tomlTable renders the members of obj at the given table path. Inline
// members come first, then sub-tables, matching how TOML files are laid out.
func tomlTable(obj jsonval.Object, path []string, opts Options) []string {
	var lines []string
	for _, m := range obj {
		if tomlIsInline(m.Value) {
			lines = append(lines, tomlKey(m.Key)+" = "+tomlInline(m.Value, opts))
		}
	}
	for _, m := range obj {
		switch t := m.Value.(type) {
		case jsonval.Object:
			if len(t) == 0 {
				continue // rendered inline above
			}
			sub := append(append([]string{}, path...), m.Key)
			if len(lines) > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, "["+tomlPath(sub)+"]")
			lines = append(lines, tomlTable(t, sub, opts)...)
		case jsonval.Array:
			if !tomlIsTableArray(t) {
				continue
			}
			sub := append(append([]string{}, path...), m.Key)
			for _, el := range t {
				if len(lines) > 0 {
					lines = append(lines, "")
				}
				lines = append(lines, "[["+tomlPath(sub)+"]]")
				lines = append(lines, tomlTable(el.(jsonval.Object), sub, opts)...)
			}
		}
	}
	return lines
}

// tomlIsInline reports whether v renders on the key's own line rather than
// as a table section.
func tomlIsInline(v jsonval.Value) bool {
	switch t := v.(type) {
	case jsonval.Object:
		return len(t) == 0
	case jsonval.Array:
		return !tomlIsTableArray(t)
	default:
		return true
	}
}

// tomlIsTableArray reports whether arr is a non-empty array of objects,
// which renders as [[table]] entries.
func tomlIsTableArray(arr jsonval.Array) bool {
	if len(arr) == 0 {
		return false
	}
	for _, el := range arr {
		if _, ok := el.(jsonval.Object); !ok {
			return false
		}
	}
	return true
}

func tomlInline(v jsonval.Value, opts Options) string {
	switch t := v.(type) {
	case nil:
		// TOML has no null; the quoted marker keeps the slot visible.
		return `"null"`
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
		if len(t) == 0 {
			return "{}"
		}
		parts := make([]string, len(t))
		for i, m := range t {
			parts[i] = tomlKey(m.Key) + " = " + tomlInline(m.Value, opts)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case jsonval.Array:
		parts := make([]string, len(t))
		for i, el := range t {
			parts[i] = tomlInline(el, opts)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

// tomlKey quotes a key unless it is a valid TOML bare key.
func tomlKey(s string) string {
	if s == "" {
		return `""`
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return quoteString(s)
		}
	}
	return s
}

func tomlPath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = tomlKey(p)
	}
	return strings.Join(parts, ".")
}
