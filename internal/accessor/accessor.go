package accessor

import (
	"reflect"
	"strings"

	"github.com/roach88/tabula/internal/config"
	"github.com/roach88/tabula/internal/daoerr"
	"github.com/roach88/tabula/internal/schema"
)

// IDName is the symbolic name redirected to the primary key.
const IDName = "ID"

// Kind is the direction of an accessor call.
type Kind int

const (
	Getter Kind = iota
	Setter
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == Setter {
		return "set"
	}
	return "get"
}

// Arity returns the number of arguments a call of kind k takes.
func (k Kind) Arity() int {
	if k == Setter {
		return 1
	}
	return 0
}

// Parse splits method into its kind and the field it addresses.
func Parse(s *schema.Schema, method string) (Kind, *schema.Field, error) {
	if len(method) <= 3 {
		return 0, nil, daoerr.Argument(s.Table, "unknown accessor %q", method)
	}

	var kind Kind
	switch strings.ToLower(method[:3]) {
	case "get":
		kind = Getter
	case "set":
		kind = Setter
	default:
		return 0, nil, daoerr.Argument(s.Table, "unknown accessor %q: expected get<Field> or set<Field>", method)
	}

	f, err := Resolve(s, method[3:])
	if err != nil {
		return 0, nil, err
	}
	return kind, f, nil
}

// Resolve returns the field for name. "ID" resolves to the primary key.
func Resolve(s *schema.Schema, name string) (*schema.Field, error) {
	if name == IDName {
		key, ok := s.Key()
		if !ok {
			return nil, daoerr.Structural(s.Table, "accessor %q needs a primary key, the record type has none", name)
		}
		return key, nil
	}
	f, ok := s.Lookup(name)
	if !ok {
		return nil, daoerr.Argument(s.Table, "unknown field %q", name)
	}
	return f, nil
}

// Invoke runs method against rec, a pointer to a record of schema s.
// Getters return the field value; setters return nil.
func Invoke(s *schema.Schema, rec reflect.Value, method string, args ...any) (any, error) {
	kind, f, err := Parse(s, method)
	if err != nil {
		return nil, err
	}
	if len(args) != kind.Arity() {
		return nil, daoerr.Argument(s.Table, "%s takes %d argument(s), got %d", method, kind.Arity(), len(args))
	}

	if kind == Getter {
		return f.Get(rec), nil
	}
	return nil, set(s, rec, f, args[0])
}

// Get reads the named field of rec.
func Get(s *schema.Schema, rec reflect.Value, name string) (any, error) {
	f, err := Resolve(s, name)
	if err != nil {
		return nil, err
	}
	return f.Get(rec), nil
}

// Set writes v into the named field of rec.
func Set(s *schema.Schema, rec reflect.Value, name string, v any) error {
	f, err := Resolve(s, name)
	if err != nil {
		return err
	}
	return set(s, rec, f, v)
}

func set(s *schema.Schema, rec reflect.Value, f *schema.Field, v any) error {
	if s.Options.Locking && schema.Normalize(f.Name) == schema.Normalize(config.ColumnVersion) {
		return daoerr.Argument(s.Table, "%s is managed by optimistic locking and cannot be set", f.Name)
	}
	if err := f.Set(rec, v); err != nil {
		return daoerr.Wrap(daoerr.CodeArgument, s.Table, err)
	}
	return nil
}
