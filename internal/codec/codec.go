package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Format names a column serialization.
type Format string

const (
	Raw    Format = "raw"
	JSON   Format = "json"
	Native Format = "native"
	CBOR   Format = "cbor"
)

// ErrUnknownFormat is returned for a Format this package cannot apply.
var ErrUnknownFormat = errors.New("unknown serialization format")

// Spec maps column names to their serialization format.
type Spec map[string]Format

// Validate reports whether f is a known format.
func (f Format) Validate() error {
	switch f {
	case "", Raw, JSON, Native, CBOR:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// Marshal serializes v in format f. Raw returns v unchanged.
func Marshal(f Format, v any) (any, error) {
	switch f {
	case "", Raw:
		return v, nil
	case JSON:
		return marshalJSON(v)
	case Native:
		data, err := msgpack.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal native: %w", err)
		}
		return data, nil
	case CBOR:
		data, err := cbor.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal cbor: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// Unmarshal deserializes stored into target, which must be a non-nil pointer.
// Raw assigns stored to *target when the types allow it.
func Unmarshal(f Format, stored any, target any) error {
	if stored == nil {
		return nil
	}
	switch f {
	case "", Raw:
		return assignRaw(stored, target)
	case JSON:
		if err := json.Unmarshal(asBytes(stored), target); err != nil {
			return fmt.Errorf("unmarshal json: %w", err)
		}
		return nil
	case Native:
		if err := msgpack.Unmarshal(asBytes(stored), target); err != nil {
			return fmt.Errorf("unmarshal native: %w", err)
		}
		return nil
	case CBOR:
		if err := cbor.Unmarshal(asBytes(stored), target); err != nil {
			return fmt.Errorf("unmarshal cbor: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// Encode serializes, in place, every column of values that spec names.
// Columns absent from values are skipped.
func (s Spec) Encode(values map[string]any) error {
	for column, format := range s {
		v, ok := values[column]
		if !ok {
			continue
		}
		encoded, err := Marshal(format, v)
		if err != nil {
			return fmt.Errorf("encode column %s: %w", column, err)
		}
		values[column] = encoded
	}
	return nil
}

// Decode deserializes, in place, every column of values that spec names.
// newTarget returns a fresh pointer for the column's Go type; the decoded
// value replaces the stored one.
func (s Spec) Decode(values map[string]any, newTarget func(column string) any) error {
	for column, format := range s {
		stored, ok := values[column]
		if !ok {
			continue
		}
		if err := format.Validate(); err != nil {
			return fmt.Errorf("decode column %s: %w", column, err)
		}
		if stored == nil || format == "" || format == Raw {
			continue
		}
		target := newTarget(column)
		if target == nil {
			var generic any
			target = &generic
		}
		if err := Unmarshal(format, stored, target); err != nil {
			return fmt.Errorf("decode column %s: %w", column, err)
		}
		values[column] = reflect.ValueOf(target).Elem().Interface()
	}
	return nil
}

// marshalJSON encodes without HTML escaping so stored text reads as written.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}
	// Encoder adds a trailing newline
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func asBytes(v any) []byte {
	switch val := v.(type) {
	case []byte:
		return val
	case string:
		return []byte(val)
	default:
		return []byte(fmt.Sprint(val))
	}
}

func assignRaw(stored, target any) error {
	dst := reflect.ValueOf(target)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return fmt.Errorf("raw target must be a non-nil pointer, got %T", target)
	}
	dst = dst.Elem()
	src := reflect.ValueOf(stored)
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()):
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s", stored, dst.Type())
	}
	return nil
}
