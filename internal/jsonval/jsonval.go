// Package jsonval provides the parsed JSON value model used by all converters.
// Objects preserve member order, which encoding/json maps do not.
package jsonval

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Value is any decoded JSON value: nil, bool, json.Number, string,
// Object or Array.
type Value interface{}

// Member is a single key/value pair inside an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a JSON object with member order preserved.
type Object []Member

// Array is a JSON array.
type Array []Value

// Get returns the value for key and whether it exists.
func (o Object) Get(key string) (Value, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// Parse decodes a single JSON value from text, preserving object member
// order. Numbers are kept as json.Number so no precision is lost on
// re-serialization. Trailing non-whitespace data after the first value is
// an error.
func Parse(text string) (Value, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("jsonval.Parse: input is empty")
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	v, err := parseValue(dec)
	if err != nil {
		return nil, fmt.Errorf("jsonval.Parse: %w", err)
	}

	// Anything after the first value makes the input invalid.
	if dec.More() {
		return nil, fmt.Errorf("jsonval.Parse: trailing data after first JSON value")
	}
	return v, nil
}

// parseValue reads exactly one value from the token stream.
func parseValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("unexpected end of input")
		}
		return nil, err
	}
	return parseFromToken(dec, tok)
}

func parseFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		default:
			return nil, fmt.Errorf("unexpected %q", t.String())
		}
	case string, bool, json.Number:
		return t, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func parseObject(dec *json.Decoder) (Object, error) {
	obj := Object{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		obj = append(obj, Member{Key: key, Value: val})
	}
	// Consume closing '}'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func parseArray(dec *json.Decoder) (Array, error) {
	arr := Array{}
	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	// Consume closing ']'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}
