// Package convert renders a parsed JSON value into the supported output
// notations. All converters are pure: same value and options always produce
// the same string.
package convert

import (
	"github.com/iptoux/tokentools/internal/jsonval"
	"github.com/iptoux/tokentools/internal/toon"
)

// Format identifies an output notation.
type Format string

const (
	FormatPrettyJSON   Format = "pretty-json"
	FormatMinifiedJSON Format = "minified-json"
	FormatYAML         Format = "yaml"
	FormatTOON         Format = "toon"
	FormatTOML         Format = "toml"
)

// Formats lists all supported formats in display order.
var Formats = []Format{
	FormatPrettyJSON,
	FormatMinifiedJSON,
	FormatYAML,
	FormatTOON,
	FormatTOML,
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Options controls rendering across all converters.
type Options struct {
	// TokenAware omits quotes around bare-word-safe string values to reduce
	// token cost. Token-aware JSON output is no longer valid JSON.
	TokenAware bool

	// Delimiter separates TOON row values. One of "," (default), "\t", "|".
	Delimiter string

	// KeyFolding is the TOON key folding mode: "off" (default) or "safe".
	KeyFolding string
}

// Render converts v into the given format. The TOON encoder can fail
// internally; that failure is swallowed and an empty string returned, so the
// caller surfaces the input's own parse state rather than a secondary
// encoding error.
func Render(f Format, v jsonval.Value, opts Options) string {
	switch f {
	case FormatPrettyJSON:
		return JSON(v, opts, true)
	case FormatMinifiedJSON:
		return JSON(v, opts, false)
	case FormatYAML:
		return YAML(v, opts)
	case FormatTOON:
		out, err := toon.Encode(v, toon.Options{
			Delimiter:  opts.Delimiter,
			KeyFolding: opts.KeyFolding,
		})
		if err != nil {
			return ""
		}
		return out
	case FormatTOML:
		return TOML(v, opts)
	default:
		return ""
	}
}

// RenderAll runs every converter and returns the outputs keyed by format.
func RenderAll(v jsonval.Value, opts Options) map[Format]string {
	out := make(map[Format]string, len(Formats))
	for _, f := range Formats {
		out[f] = Render(f, v, opts)
	}
	return out
}
