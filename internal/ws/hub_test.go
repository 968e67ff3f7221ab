package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iptoux/tokentools/internal/session"
)

type fakeSession struct {
	inputs  []string
	configs []session.Config
}

func (f *fakeSession) SetInput(input string)        { f.inputs = append(f.inputs, input) }
func (f *fakeSession) SetConfig(cfg session.Config) { f.configs = append(f.configs, cfg) }

func TestHandleClientMessage(t *testing.T) {
	h := NewHub()
	eng := &fakeSession{}
	h.AttachEngine(eng)

	h.handleClientMessage([]byte(`{"type":"input","text":"{\"a\":1}"}`))
	h.handleClientMessage([]byte(`{"type":"config","config":{"token_aware":true,"model":"cl100k_base","want_counts":true}}`))

	assert.Equal(t, []string{`{"a":1}`}, eng.inputs)
	assert.Len(t, eng.configs, 1)
	assert.True(t, eng.configs[0].TokenAware)
	assert.Equal(t, "cl100k_base", eng.configs[0].Model)
}

func TestHandleClientMessageIgnoresGarbage(t *testing.T) {
	h := NewHub()
	eng := &fakeSession{}
	h.AttachEngine(eng)

	h.handleClientMessage([]byte(`not json`))
	h.handleClientMessage([]byte(`{"type":"input"}`))
	h.handleClientMessage([]byte(`{"type":"unknown","text":"x"}`))

	assert.Empty(t, eng.inputs)
	assert.Empty(t, eng.configs)
}

func TestHandleClientMessageNoEngine(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() {
		h.handleClientMessage([]byte(`{"type":"input","text":"x"}`))
	})
}
