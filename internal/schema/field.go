package schema

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Field describes one column of a record type.
type Field struct {
	// Name is the canonical column name.
	Name string

	// GoName is the struct field name.
	GoName string

	// Type is the Go type of the struct field.
	Type reflect.Type

	// Index is the reflect index path from the record struct.
	Index []int

	// Virtual is true for engine-managed columns injected by configuration.
	Virtual bool

	get func(rec reflect.Value) any
	set func(rec reflect.Value, v any) error
}

// Get reads the field from rec, a struct value or pointer to one.
func (f *Field) Get(rec reflect.Value) any {
	return f.get(indirect(rec))
}

// Set writes v into the field of rec, converting where Go allows it.
// rec must be a pointer to the struct or an addressable struct value.
func (f *Field) Set(rec reflect.Value, v any) error {
	return f.set(indirect(rec), v)
}

// New returns a pointer to a fresh zero value of the field's type.
func (f *Field) New() any {
	return reflect.New(f.Type).Interface()
}

func newField(name string, sf reflect.StructField, index []int, virtual bool) *Field {
	idx := append([]int(nil), index...)
	f := &Field{
		Name:    name,
		GoName:  sf.Name,
		Type:    sf.Type,
		Index:   idx,
		Virtual: virtual,
	}
	f.get = func(rec reflect.Value) any {
		return rec.FieldByIndex(idx).Interface()
	}
	f.set = func(rec reflect.Value, v any) error {
		dst := rec.FieldByIndex(idx)
		if !dst.CanSet() {
			return fmt.Errorf("field %s is not settable", name)
		}
		if err := assign(dst, v); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		return nil
	}
	return f
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	return v
}

// assign stores v into dst. nil stores the zero value.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		if src := reflect.ValueOf(v); src.Type().AssignableTo(dst.Type()) {
			dst.Set(src)
			return nil
		}
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	switch dst.Kind() {
	case reflect.Bool:
		switch x := v.(type) {
		case int64:
			dst.SetBool(x != 0)
			return nil
		case int:
			dst.SetBool(x != 0)
			return nil
		}
	case reflect.String:
		switch x := v.(type) {
		case []byte:
			dst.SetString(string(x))
			return nil
		case string:
			dst.SetString(x)
			return nil
		}
		// Numeric -> string conversion would produce a rune, never wanted here.
		return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			if s, ok := v.(string); ok {
				dst.SetBytes([]byte(s))
				return nil
			}
		}
	}

	if src.Type().ConvertibleTo(dst.Type()) && isScalar(src.Kind()) && isScalar(dst.Kind()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}
	if src.Type().ConvertibleTo(dst.Type()) && src.Kind() == dst.Kind() {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
}

func isScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// columnName returns the column for sf and whether the field is part of
// the schema at all.
func columnName(sf reflect.StructField) (name string, virtual bool, ok bool) {
	tag := sf.Tag.Get("db")
	if tag == "-" {
		return "", false, false
	}
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "virtual" {
			virtual = true
		}
	}
	if name == "" {
		name = lowerCamel(sf.Name)
	}
	return name, virtual, true
}

// lowerCamel lowers the leading run of capitals, keeping the last one of a
// run that is followed by a lowercase letter: "URLPath" -> "urlPath".
func lowerCamel(s string) string {
	runes := []rune(s)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	switch {
	case n == 0:
		return s
	case n == 1 || n == len(runes):
	default:
		if unicode.IsLower(runes[n]) {
			n--
		}
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
