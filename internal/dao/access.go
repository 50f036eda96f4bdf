package dao

import (
	"reflect"

	"github.com/roach88/tabula/internal/accessor"
)

// Get reads the named field of rec. Names resolve case-insensitively and
// "ID" addresses the primary key.
func (e *Engine) Get(rec Record, name string) (any, error) {
	s, err := e.Schema(rec)
	if err != nil {
		return nil, err
	}
	return accessor.Get(s, reflect.ValueOf(rec), name)
}

// Set writes v into the named field of rec.
func (e *Engine) Set(rec Record, name string, v any) error {
	s, err := e.Schema(rec)
	if err != nil {
		return err
	}
	return accessor.Set(s, reflect.ValueOf(rec), name, v)
}

// Call dispatches a get<Field>() or set<Field>(v) call by name:
//
//	title, err := engine.Call(post, "getTitle")
//	_, err = engine.Call(post, "setTitle", "hello")
func (e *Engine) Call(rec Record, method string, args ...any) (any, error) {
	s, err := e.Schema(rec)
	if err != nil {
		return nil, err
	}
	return accessor.Invoke(s, reflect.ValueOf(rec), method, args...)
}

// ID returns rec's primary key value.
func (e *Engine) ID(rec Record) (any, error) {
	return e.Get(rec, accessor.IDName)
}

// Dictionary returns the persistent fields of rec keyed by column, as held
// in memory (not encoded).
func (e *Engine) Dictionary(rec Record) (map[string]any, error) {
	s, err := e.Schema(rec)
	if err != nil {
		return nil, err
	}
	return s.Values(reflect.ValueOf(rec)), nil
}
