package schema

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/text/cases"

	"github.com/roach88/tabula/internal/codec"
	"github.com/roach88/tabula/internal/config"
	"github.com/roach88/tabula/internal/daoerr"
)

// Schema is the immutable descriptor of one record type.
type Schema struct {
	// Type is the record struct type (not the pointer).
	Type reflect.Type

	// Table is the backing table.
	Table string

	// IDKey is the primary key column, "" when the type has none.
	IDKey string

	// Options is the resolved configuration the schema was built from.
	Options config.Options

	fields    []*Field
	byKey     map[string]*Field
	transient map[string]bool
}

// Normalize folds name for case-insensitive lookup.
func Normalize(name string) string {
	// Casers hold state and must not be shared between goroutines.
	return cases.Fold().String(name)
}

// Lookup resolves name case-insensitively to its field.
func (s *Schema) Lookup(name string) (*Field, bool) {
	f, ok := s.byKey[Normalize(name)]
	return f, ok
}

// Resolve returns the canonical name for name, or "" and false.
func (s *Schema) Resolve(name string) (string, bool) {
	f, ok := s.Lookup(name)
	if !ok {
		return "", false
	}
	return f.Name, true
}

// Fields returns all fields in declaration order, virtual ones last.
func (s *Schema) Fields() []*Field {
	return append([]*Field(nil), s.fields...)
}

// Properties returns the canonical names of all fields.
func (s *Schema) Properties() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// IsTransient reports whether the named field is excluded from persistence.
func (s *Schema) IsTransient(name string) bool {
	return s.transient[name]
}

// Persistent returns the fields that are written to the table.
func (s *Schema) Persistent() []*Field {
	out := make([]*Field, 0, len(s.fields))
	for _, f := range s.fields {
		if !s.transient[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// Values reads every persistent field of rec into a column map.
func (s *Schema) Values(rec reflect.Value) map[string]any {
	out := make(map[string]any, len(s.fields))
	for _, f := range s.Persistent() {
		out[f.Name] = f.Get(rec)
	}
	return out
}

// Key returns the primary key field. ok is false when the type has none.
func (s *Schema) Key() (*Field, bool) {
	if s.IDKey == "" {
		return nil, false
	}
	return s.Lookup(s.IDKey)
}

// Descriptor is the input of a schema build.
type Descriptor struct {
	Type      reflect.Type
	Table     string
	Options   config.Options
	Transient []string
}

// Registry builds and caches one Schema per Go type.
type Registry struct {
	mu      sync.Mutex
	schemas sync.Map // reflect.Type -> *Schema
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Cached returns the schema for typ if it was already built.
func (r *Registry) Cached(typ reflect.Type) (*Schema, bool) {
	v, ok := r.schemas.Load(typ)
	if !ok {
		return nil, false
	}
	return v.(*Schema), true
}

// For returns the schema of typ, building it on first use. describe is
// only invoked when the schema is not cached yet.
func (r *Registry) For(typ reflect.Type, describe func() Descriptor) (*Schema, error) {
	if s, ok := r.Cached(typ); ok {
		return s, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.Cached(typ); ok {
		return s, nil
	}

	s, err := Build(describe())
	if err != nil {
		return nil, err
	}
	r.schemas.Store(typ, s)
	return s, nil
}

type candidate struct {
	sf      reflect.StructField
	index   []int
	name    string
	virtual bool
}

// Build constructs a schema without caching it.
func Build(d Descriptor) (*Schema, error) {
	typ := d.Type
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, daoerr.Configuration(d.Table, "record type %s is not a struct", typ)
	}

	var declared, virtual []candidate
	collect(typ, nil, &declared, &virtual)

	s := &Schema{
		Type:      typ,
		Table:     d.Table,
		IDKey:     d.Options.PrimaryKey(),
		Options:   d.Options,
		byKey:     make(map[string]*Field),
		transient: make(map[string]bool),
	}

	add := func(c candidate) error {
		key := Normalize(c.name)
		if existing, ok := s.byKey[key]; ok {
			return daoerr.Configuration(d.Table, "column %q of %s collides with %q", c.name, typ, existing.Name)
		}
		f := newField(c.name, c.sf, c.index, c.virtual)
		s.byKey[key] = f
		s.fields = append(s.fields, f)
		return nil
	}

	for _, c := range declared {
		if err := add(c); err != nil {
			return nil, err
		}
	}

	// Virtual columns implied by configuration, unless declared explicitly.
	wanted := make([]string, 0, 5)
	if s.IDKey != "" {
		wanted = append(wanted, s.IDKey)
	}
	if d.Options.Locking {
		wanted = append(wanted, config.ColumnVersion)
	}
	if d.Options.Timestamps {
		wanted = append(wanted, config.ColumnDateCreated, config.ColumnDateModified)
	}
	if d.Options.AuxPHID && Normalize(s.IDKey) != config.ColumnPHID {
		wanted = append(wanted, config.ColumnPHID)
	}

	for _, name := range wanted {
		if _, ok := s.byKey[Normalize(name)]; ok {
			continue
		}
		c, ok := findVirtual(virtual, name)
		if !ok {
			if name == s.IDKey {
				return nil, daoerr.Structural(d.Table, "primary key column %q is not a field of %s", name, typ)
			}
			return nil, daoerr.Configuration(d.Table, "%s has no field for column %q; embed dao.Model", typ, name)
		}
		if err := add(c); err != nil {
			return nil, err
		}
	}

	// The key takes the field's spelling, whatever case it was configured in.
	if s.IDKey != "" {
		key, _ := s.Lookup(s.IDKey)
		s.IDKey = key.Name
	}

	// Serialization keys follow the canonical column names.
	if len(d.Options.Serialization) > 0 {
		spec := make(codec.Spec, len(d.Options.Serialization))
		for column, format := range d.Options.Serialization {
			if f, ok := s.Lookup(column); ok {
				column = f.Name
			}
			spec[column] = format
		}
		s.Options.Serialization = spec
	}

	for _, name := range d.Transient {
		f, ok := s.Lookup(name)
		if !ok {
			return nil, daoerr.Configuration(d.Table, "transient field %q is not a field of %s", name, typ)
		}
		s.transient[f.Name] = true
	}

	return s, nil
}

// collect walks typ, flattening embedded structs, and sorts fields into
// declared and virtual candidates.
func collect(typ reflect.Type, prefix []int, declared, virtual *[]candidate) {
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && sf.Tag.Get("db") == "" {
			collect(sf.Type, index, declared, virtual)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		name, isVirtual, ok := columnName(sf)
		if !ok {
			continue
		}
		c := candidate{sf: sf, index: index, name: name, virtual: isVirtual}
		if isVirtual {
			*virtual = append(*virtual, c)
		} else {
			*declared = append(*declared, c)
		}
	}
}

func findVirtual(virtual []candidate, name string) (candidate, bool) {
	key := Normalize(name)
	for _, c := range virtual {
		if Normalize(c.name) == key {
			return c, true
		}
	}
	return candidate{}, false
}

// String implements fmt.Stringer for diagnostics.
func (s *Schema) String() string {
	return fmt.Sprintf("schema(%s: %v)", s.Table, s.Properties())
}
