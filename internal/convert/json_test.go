package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptoux/tokentools/internal/jsonval"
)

func mustParse(t *testing.T, in string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Parse(in)
	require.NoError(t, err)
	return v
}

func TestJSON_Pretty(t *testing.T) {
	v := mustParse(t, `{"name":"Ada","tags":["a","b"],"meta":{}}`)
	got := JSON(v, Options{}, true)
	want := `{
  "name": "Ada",
  "tags": [
    "a",
    "b"
  ],
  "meta": {}
}`
	assert.Equal(t, want, got)
}

func TestJSON_Minified(t *testing.T) {
	v := mustParse(t, `{"a": 1, "b": [true, null], "c": "x"}`)
	assert.Equal(t, `{"a":1,"b":[true,null],"c":"x"}`, JSON(v, Options{}, false))
}

func TestJSON_RoundTrip(t *testing.T) {
	inputs := []string{
		`{"a":{"b":1},"c":[1,2,{"d":null}]}`,
		`[]`,
		`{}`,
		`[1,"two",3.5,true,false,null]`,
		`{"unicode":"héllo 日本語","esc":"line\nbreak\t\"quoted\""}`,
		`{"big":9007199254740993,"small":1e-20}`,
		`"just a string"`,
		`42`,
	}
	for _, in := range inputs {
		v := mustParse(t, in)
		for _, pretty := range []bool{true, false} {
			out := JSON(v, Options{}, pretty)
			var a, b interface{}
			require.NoError(t, json.Unmarshal([]byte(in), &a), in)
			require.NoError(t, json.Unmarshal([]byte(out), &b), out)
			assert.Equal(t, a, b, "round-trip for %q (pretty=%v)", in, pretty)
		}
	}
}

func TestJSON_KeyOrderPreserved(t *testing.T) {
	v := mustParse(t, `{"z":1,"a":2,"m":3}`)
	assert.Equal(t, `{"z":1,"a":2,"m":3}`, JSON(v, Options{}, false))
}

func TestJSON_TokenAware(t *testing.T) {
	v := mustParse(t, `{"safe":"hello","unsafe":"two words","bool":"true"}`)
	got := JSON(v, Options{TokenAware: true}, false)
	// Safe bare words lose quotes; reserved words and spaced strings keep them.
	assert.Equal(t, `{"safe":hello,"unsafe":"two words","bool":"true"}`, got)
}

func TestJSON_TokenAwareKeysStayQuoted(t *testing.T) {
	v := mustParse(t, `{"key":"val"}`)
	assert.Equal(t, `{"key":val}`, JSON(v, Options{TokenAware: true}, false))
}

func TestJSON_NoHTMLEscaping(t *testing.T) {
	v := mustParse(t, `{"html":"<a href=\"x\">&</a>"}`)
	assert.Equal(t, `{"html":"<a href=\"x\">&</a>"}`, JSON(v, Options{}, false))
}
