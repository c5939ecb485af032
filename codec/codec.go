// Package codec defines the pluggable message codec used wherever values cross a
// worker boundary: spawn payloads, worker results and dispatcher snapshots.
package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

// Codec encodes and decodes messages. Implementations must be safe for concurrent use.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Default returns the codec used when none is configured.
func Default() Codec { return Gob{} }

// Gob encodes values with encoding/gob. Only exported struct fields are transferred.
//
// gob does not distinguish an empty slice or map from a nil one, both decode as nil.
// Use JSON when that difference matters.
type Gob struct{}

func (Gob) Name() string { return "gob" }

func (Gob) Marshal(v any) (data []byte, err error) {
	defer recoverGob(&err)
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Gob) Unmarshal(data []byte, v any) (err error) {
	defer recoverGob(&err)
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// recoverGob turns a panic inside encoding/gob, such as encoding a nil pointer, into an error.
func recoverGob(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		*err = e
		return
	}
	*err = fmt.Errorf("gob: %v", r)
}

// JSON encodes values with encoding/json.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
