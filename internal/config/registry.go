package config

import (
	"reflect"
	"sync"
)

// Declarer is implemented by record types that override engine defaults.
// Configure receives the defaults and mutates the fields it cares about.
type Declarer interface {
	Configure(opts *Options)
}

// Registry memoizes resolved Options per Go type.
//
// Readers hit a sync.Map without locking; the first resolution of a type is
// serialized by mu so concurrent first access still yields one value.
// Entries are never invalidated.
type Registry struct {
	mu        sync.Mutex
	resolved  sync.Map // reflect.Type -> Options
	defaults  Overrides
	overrides map[string]Overrides
}

// NewRegistry creates a registry that layers, after each type's own
// declaration, defaults for every table and then the table's entry in
// overrides. overrides may be nil.
func NewRegistry(defaults Overrides, overrides map[string]Overrides) *Registry {
	return &Registry{defaults: defaults, overrides: overrides}
}

// Resolve returns the Options for typ. declarer, when non-nil, is consulted
// only on the first call for typ.
func (r *Registry) Resolve(typ reflect.Type, table string, declarer Declarer) Options {
	if v, ok := r.resolved.Load(typ); ok {
		return v.(Options).clone()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.resolved.Load(typ); ok {
		return v.(Options).clone()
	}

	opts := Defaults()
	if declarer != nil {
		declarer.Configure(&opts)
	}
	r.defaults.Apply(&opts)
	if ov, ok := r.overrides[table]; ok {
		ov.Apply(&opts)
	}
	r.resolved.Store(typ, opts.clone())
	return opts
}
