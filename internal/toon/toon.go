// Package toon encodes JSON values in Token-Oriented Object Notation, a
// compact delimiter-based format positioned as a lower-token-cost
// alternative to JSON/YAML for structured data fed to language models.
//
// Shape summary:
//
//	scalars        key: value
//	objects        key: then members indented two spaces
//	scalar arrays  key[3]: a,b,c
//	uniform object
//	arrays         key[2]{id,name}: header then one delimited row per element
//	mixed arrays   key[2]: then "- " items like YAML
//
// Strings are quoted only when the bare form would be ambiguous.
package toon

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iptoux/tokentools/internal/jsonval"
)

// Delimiter choices for row values.
const (
	DelimiterComma = ","
	DelimiterTab   = "\t"
	DelimiterPipe  = "|"
)

// Key folding modes.
const (
	KeyFoldingOff  = "off"
	KeyFoldingSafe = "safe"
)

// Options controls encoding.
type Options struct {
	// Delimiter separates values in array rows. Defaults to comma.
	Delimiter string

	// KeyFolding set to "safe" collapses single-member object chains into
	// dotted keys (a: {b: {c: 1}} becomes a.b.c: 1) when every folded key is
	// bare-safe. Defaults to "off".
	KeyFolding string
}

func (o Options) delimiter() (string, error) {
	switch o.Delimiter {
	case "", DelimiterComma:
		return DelimiterComma, nil
	case DelimiterTab, DelimiterPipe:
		return o.Delimiter, nil
	default:
		return "", fmt.Errorf("toon: unsupported delimiter %q", o.Delimiter)
	}
}

// Encode renders v as TOON text.
func Encode(v jsonval.Value, opts Options) (string, error) {
	delim, err := opts.delimiter()
	if err != nil {
		return "", err
	}
	switch opts.KeyFolding {
	case "", KeyFoldingOff, KeyFoldingSafe:
	default:
		return "", fmt.Errorf("toon: unsupported key folding mode %q", opts.KeyFolding)
	}

	e := encoder{delim: delim, fold: opts.KeyFolding == KeyFoldingSafe}
	lines, err := e.encodeRoot(v)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

type encoder struct {
	delim string
	fold  bool
}

func (e *encoder) encodeRoot(v jsonval.Value) ([]string, error) {
	switch t := v.(type) {
	case jsonval.Object:
		return e.members(t, "")
	case jsonval.Array:
		// A root array renders like a keyless member.
		return e.arrayLines(t, "", "")
	default:
		s, err := e.scalar(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

// members renders the members of an object at the given indent.
func (e *encoder) members(obj jsonval.Object, indent string) ([]string, error) {
	var lines []string
	for _, m := range obj {
		key, val := m.Key, m.Value
		if e.fold {
			key, val = foldChain(key, val)
		}
		ml, err := e.member(key, val, indent)
		if err != nil {
			return nil, err
		}
		lines = append(lines, ml...)
	}
	return lines, nil
}

// foldChain collapses single-member object chains into a dotted key when
// every segment is bare-safe.
func foldChain(key string, v jsonval.Value) (string, jsonval.Value) {
	if !bareSafe(key) {
		return key, v
	}
	folded := key
	cur := v
	for {
		obj, ok := cur.(jsonval.Object)
		if !ok || len(obj) != 1 || !bareSafe(obj[0].Key) {
			return folded, cur
		}
		folded += "." + obj[0].Key
		cur = obj[0].Value
	}
}

func (e *encoder) member(key string, v jsonval.Value, indent string) ([]string, error) {
	k := e.keyString(key)
	switch t := v.(type) {
	case jsonval.Object:
		if len(t) == 0 {
			return []string{indent + k + ":"}, nil
		}
		nested, err := e.members(t, indent+"  ")
		if err != nil {
			return nil, err
		}
		return append([]string{indent + k + ":"}, nested...), nil
	case jsonval.Array:
		return e.arrayLines(t, k, indent)
	default:
		s, err := e.scalar(v)
		if err != nil {
			return nil, err
		}
		return []string{indent + k + ": " + s}, nil
	}
}

// arrayLines renders an array member. key may be empty for a root array.
func (e *encoder) arrayLines(arr jsonval.Array, key, indent string) ([]string, error) {
	n := len(arr)
	if n == 0 {
		return []string{fmt.Sprintf("%s%s[0]:", indent, key)}, nil
	}

	if allScalars(arr) {
		row, err := e.row(arr)
		if err != nil {
			return nil, err
		}
		return []string{fmt.Sprintf("%s%s[%d]: %s", indent, key, n, row)}, nil
	}

	if fields, ok := tabularFields(arr); ok {
		header := fmt.Sprintf("%s%s[%d]{%s}:", indent, key, n, strings.Join(e.keyStrings(fields), e.delim))
		lines := []string{header}
		for _, el := range arr {
			obj := el.(jsonval.Object)
			vals := make(jsonval.Array, len(fields))
			for i, f := range fields {
				vals[i], _ = obj.Get(f)
			}
			row, err := e.row(vals)
			if err != nil {
				return nil, err
			}
			lines = append(lines, indent+"  "+row)
		}
		return lines, nil
	}

	// Mixed array: list form.
	lines := []string{fmt.Sprintf("%s%s[%d]:", indent, key, n)}
	for _, el := range arr {
		switch t := el.(type) {
		case jsonval.Object:
			if len(t) == 0 {
				lines = append(lines, indent+"  -")
				continue
			}
			nested, err := e.members(t, indent+"    ")
			if err != nil {
				return nil, err
			}
			first := indent + "  - " + strings.TrimPrefix(nested[0], indent+"    ")
			lines = append(lines, first)
			lines = append(lines, nested[1:]...)
		case jsonval.Array:
			nested, err := e.arrayLines(t, "", indent+"    ")
			if err != nil {
				return nil, err
			}
			first := indent + "  - " + strings.TrimPrefix(nested[0], indent+"    ")
			lines = append(lines, first)
			lines = append(lines, nested[1:]...)
		default:
			s, err := e.scalar(el)
			if err != nil {
				return nil, err
			}
			lines = append(lines, indent+"  - "+s)
		}
	}
	return lines, nil
}

func (e *encoder) row(vals jsonval.Array) (string, error) {
	parts := make([]string, len(vals))
	for i, v := range vals {
		s, err := e.scalar(v)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, e.delim), nil
}

// scalar renders a scalar value, quoting strings only when the bare form
// would be ambiguous.
func (e *encoder) scalar(v jsonval.Value) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case json.Number:
		return t.String(), nil
	case string:
		if bareSafe(t) && !looksNumeric(t) {
			return t, nil
		}
		b, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("toon: quote string: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("toon: unsupported value type %T", v)
	}
}

func (e *encoder) keyString(key string) string {
	if bareSafe(key) || isFoldedKey(key) {
		return key
	}
	b, _ := json.Marshal(key)
	return string(b)
}

func (e *encoder) keyStrings(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = e.keyString(k)
	}
	return out
}

// allScalars reports whether every element of arr is a scalar.
func allScalars(arr jsonval.Array) bool {
	for _, el := range arr {
		switch el.(type) {
		case jsonval.Object, jsonval.Array:
			return false
		}
	}
	return true
}

// tabularFields returns the shared field list when every element is an
// object with the same keys in the same order and all-scalar values.
func tabularFields(arr jsonval.Array) ([]string, bool) {
	first, ok := arr[0].(jsonval.Object)
	if !ok || len(first) == 0 {
		return nil, false
	}
	fields := first.Keys()
	for _, el := range arr {
		obj, ok := el.(jsonval.Object)
		if !ok || len(obj) != len(fields) {
			return nil, false
		}
		for i, m := range obj {
			if m.Key != fields[i] {
				return nil, false
			}
			switch m.Value.(type) {
			case jsonval.Object, jsonval.Array:
				return nil, false
			}
		}
	}
	return fields, true
}

// bareSafe mirrors the shared token-aware bare-word predicate: ASCII
// letters, digits, underscore and hyphen only, and not a reserved scalar
// word. Kept local so this package has no dependency back into convert.
func bareSafe(s string) bool {
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
	switch strings.ToLower(s) {
	case "true", "false", "null", "yes", "no", "on", "off", "~":
		return false
	}
	return true
}

// isFoldedKey accepts dotted keys produced by key folding, whose segments
// are each bare-safe by construction.
func isFoldedKey(s string) bool {
	if !strings.Contains(s, ".") {
		return false
	}
	for _, seg := range strings.Split(s, ".") {
		if !bareSafe(seg) {
			return false
		}
	}
	return true
}

// looksNumeric reports whether a bare string would read back as a number.
func looksNumeric(s string) bool {
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}
