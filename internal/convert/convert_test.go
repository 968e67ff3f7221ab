package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderAll(t *testing.T) {
	v := mustParse(t, `{"a":1}`)
	out := RenderAll(v, Options{})

	assert.Len(t, out, len(Formats))
	assert.Equal(t, "{\n  \"a\": 1\n}", out[FormatPrettyJSON])
	assert.Equal(t, `{"a":1}`, out[FormatMinifiedJSON])
	assert.Equal(t, "a: 1", out[FormatYAML])
	assert.Equal(t, "a: 1", out[FormatTOON])
	assert.Equal(t, "a = 1", out[FormatTOML])
}

func TestRender_TOONFailureIsSwallowed(t *testing.T) {
	v := mustParse(t, `{"a":1}`)
	// An unsupported delimiter makes the TOON encoder fail internally; the
	// converter boundary maps that to an empty string, never an error.
	out := Render(FormatTOON, v, Options{Delimiter: "##"})
	assert.Equal(t, "", out)
}

func TestRender_UnknownFormat(t *testing.T) {
	assert.Equal(t, "", Render(Format("csv"), mustParse(t, `{}`), Options{}))
	assert.False(t, Format("csv").Valid())
	assert.True(t, FormatTOON.Valid())
}
