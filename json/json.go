// Package json wraps json-iterator with the module's defaults: stdlib
// compatible configuration, and struct defaults applied when decoding so
// partially specified payloads come out fully populated.
package json

import (
	"io"
	"reflect"

	"github.com/creasty/defaults"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent encodes v as indented JSON.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes data into v, then fills any zero-valued fields that
// declare a `default` tag.
func Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	return setDefaults(v)
}

// setDefaults applies struct defaults where they can apply; non-struct
// targets (slices, maps) are left alone.
func setDefaults(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil
	}
	return defaults.Set(v)
}

// NewEncoder returns a streaming encoder writing to w.
func NewEncoder(w io.Writer) *jsoniter.Encoder {
	return json.NewEncoder(w)
}

// Decoder wraps the streaming decoder to apply struct defaults after
// decoding.
type Decoder struct {
	inner *jsoniter.Decoder
}

// NewDecoder returns a streaming decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{inner: json.NewDecoder(r)}
}

// Decode reads the next JSON value into v and fills defaults.
func (d *Decoder) Decode(v any) error {
	if err := d.inner.Decode(v); err != nil {
		return err
	}
	return setDefaults(v)
}
