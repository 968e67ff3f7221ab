package convert

import (
	"encoding/json"
	"strings"

	"github.com/iptoux/tokentools/internal/jsonval"
)

// JSON renders v as JSON text with object member order preserved. pretty
// selects two-space indentation; otherwise the output is minified. In
// token-aware mode, bare-word-safe leaf strings are emitted without quotes,
// which makes the output an optimization preview rather than valid JSON.
func JSON(v jsonval.Value, opts Options, pretty bool) string {
	var b strings.Builder
	w := jsonWriter{out: &b, opts: opts, pretty: pretty}
	w.value(v, 0)
	return b.String()
}

type jsonWriter struct {
	out    *strings.Builder
	opts   Options
	pretty bool
}

func (w *jsonWriter) value(v jsonval.Value, depth int) {
	switch t := v.(type) {
	case nil:
		w.out.WriteString("null")
	case bool:
		if t {
			w.out.WriteString("true")
		} else {
			w.out.WriteString("false")
		}
	case json.Number:
		w.out.WriteString(t.String())
	case string:
		if w.opts.TokenAware && IsBareWord(t) {
			w.out.WriteString(t)
		} else {
			w.out.WriteString(quoteString(t))
		}
	case jsonval.Object:
		w.object(t, depth)
	case jsonval.Array:
		w.array(t, depth)
	}
}

func (w *jsonWriter) object(obj jsonval.Object, depth int) {
	if len(obj) == 0 {
		w.out.WriteString("{}")
		return
	}
	w.out.WriteByte('{')
	for i, m := range obj {
		if i > 0 {
			w.out.WriteByte(',')
		}
		w.newlineIndent(depth + 1)
		w.out.WriteString(quoteString(m.Key))
		w.out.WriteByte(':')
		if w.pretty {
			w.out.WriteByte(' ')
		}
		w.value(m.Value, depth+1)
	}
	w.newlineIndent(depth)
	w.out.WriteByte('}')
}

func (w *jsonWriter) array(arr jsonval.Array, depth int) {
	if len(arr) == 0 {
		w.out.WriteString("[]")
		return
	}
	w.out.WriteByte('[')
	for i, el := range arr {
		if i > 0 {
			w.out.WriteByte(',')
		}
		w.newlineIndent(depth + 1)
		w.value(el, depth+1)
	}
	w.newlineIndent(depth)
	w.out.WriteByte(']')
}

func (w *jsonWriter) newlineIndent(depth int) {
	if !w.pretty {
		return
	}
	w.out.WriteByte('\n')
	for i := 0; i < depth; i++ {
		w.out.WriteString("  ")
	}
}

// quoteString produces a JSON string literal without HTML escaping, so
// "<" stays "<" instead of becoming "<".
func quoteString(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a plain string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
