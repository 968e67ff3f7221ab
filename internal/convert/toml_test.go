package convert

import (
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOML_FlatObject(t *testing.T) {
	got := TOML(mustParse(t, `{"name":"Ada","age":36,"admin":true}`), Options{})
	want := "name = \"Ada\"\nage = 36\nadmin = true"
	assert.Equal(t, want, got)
}

func TestTOML_NestedTables(t *testing.T) {
	got := TOML(mustParse(t, `{"title":"demo","server":{"host":"localhost","port":8080}}`), Options{})
	want := "title = \"demo\"\n\n[server]\nhost = \"localhost\"\nport = 8080"
	assert.Equal(t, want, got)
}

func TestTOML_ArrayOfTables(t *testing.T) {
	got := TOML(mustParse(t, `{"user":[{"name":"a"},{"name":"b"}]}`), Options{})
	want := "[[user]]\nname = \"a\"\n\n[[user]]\nname = \"b\""
	assert.Equal(t, want, got)
}

func TestTOML_InlineArrays(t *testing.T) {
	got := TOML(mustParse(t, `{"nums":[1,2,3],"mixed":[1,"a",true]}`), Options{})
	want := "nums = [1, 2, 3]\nmixed = [1, \"a\", true]"
	assert.Equal(t, want, got)
}

func TestTOML_QuotedKeys(t *testing.T) {
	got := TOML(mustParse(t, `{"odd key":1}`), Options{})
	assert.Equal(t, "\"odd key\" = 1", got)
}

func TestTOML_TokenAware(t *testing.T) {
	v := mustParse(t, `{"a":"word","b":"two words","c":"on"}`)

	assert.Equal(t, "a = \"word\"\nb = \"two words\"\nc = \"on\"", TOML(v, Options{}))
	assert.Equal(t, "a = word\nb = \"two words\"\nc = \"on\"", TOML(v, Options{TokenAware: true}))
}

func TestTOML_NonObjectRoot(t *testing.T) {
	assert.Equal(t, "[1, 2]", TOML(mustParse(t, `[1,2]`), Options{}))
	assert.Equal(t, `"hi"`, TOML(mustParse(t, `"hi"`), Options{}))
}

// Plain structures should re-parse with a real TOML parser.
func TestTOML_ReparsesWithExternalParser(t *testing.T) {
	in := `{"name":"Ada","n":3,"server":{"host":"h","tags":["x","y"]},"user":[{"id":1},{"id":2}]}`
	out := TOML(mustParse(t, in), Options{})

	var got struct {
		Name   string `toml:"name"`
		N      int64  `toml:"n"`
		Server struct {
			Host string   `toml:"host"`
			Tags []string `toml:"tags"`
		} `toml:"server"`
		User []struct {
			ID int64 `toml:"id"`
		} `toml:"user"`
	}
	require.NoError(t, toml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, int64(3), got.N)
	assert.Equal(t, "h", got.Server.Host)
	assert.Equal(t, []string{"x", "y"}, got.Server.Tags)
	require.Len(t, got.User, 2)
	assert.Equal(t, int64(1), got.User[0].ID)
}
