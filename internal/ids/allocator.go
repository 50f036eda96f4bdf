package ids

import (
	"database/sql"
	"fmt"
	"reflect"

	"github.com/roach88/tabula/internal/config"
	"github.com/roach88/tabula/internal/daoerr"
)

// Allocator applies one id strategy to one table.
type Allocator struct {
	Strategy config.IDStrategy
	Key      string
	Table    string
	Locking  bool
}

// NewAllocator returns the allocator for a resolved configuration.
func NewAllocator(table string, opts config.Options) Allocator {
	return Allocator{
		Strategy: opts.IDs,
		Key:      opts.PrimaryKey(),
		Table:    table,
		Locking:  opts.Locking,
	}
}

// Assign runs before the insert payload is built. Under the PHID strategy
// an empty key is filled from gen and the new value is returned with
// assigned=true; the caller writes it back to the record.
func (a Allocator) Assign(current any, gen Generator) (value any, assigned bool, err error) {
	if a.Strategy != config.IDsPHID || a.Key == "" {
		return nil, false, nil
	}
	if !IsEmpty(current) {
		return nil, false, nil
	}
	if gen == nil {
		return nil, false, daoerr.Configuration(a.Table, "PHID ids require the record type to implement GeneratePHID")
	}
	phid, err := gen.GeneratePHID()
	if err != nil {
		return nil, false, fmt.Errorf("generate phid for %s: %w", a.Table, err)
	}
	return phid, true, nil
}

// Payload adjusts the insert column set. Autoincrement drops the key so the
// store assigns one; the caller-supplied value is ignored.
func (a Allocator) Payload(values map[string]any) {
	if a.Strategy == config.IDsAutoincrement && a.Key != "" {
		delete(values, a.Key)
	}
}

// Generated returns the store-assigned key after an insert. ok is false
// for strategies where the store assigns nothing.
func (a Allocator) Generated(res sql.Result) (id int64, ok bool, err error) {
	if a.Strategy != config.IDsAutoincrement || a.Key == "" {
		return 0, false, nil
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("read generated id for %s: %w", a.Table, err)
	}
	return id, true, nil
}

// ShouldInsert decides between insert and update for save. key is the
// current primary key value; versioned reports whether the record holds a
// committed version. Manual ids without locking cannot be decided here.
func (a Allocator) ShouldInsert(key any, versioned bool) (bool, error) {
	if a.Key == "" {
		return false, daoerr.Structural(a.Table, "save needs a primary key, the record type has none")
	}
	if a.Strategy == config.IDsManual {
		if !a.Locking {
			return false, daoerr.Configuration(a.Table,
				"manual ids without optimistic locking require ShouldInsertWhenSaved")
		}
		return !versioned, nil
	}
	return IsEmpty(key), nil
}

// IsEmpty reports whether v holds no key: nil, zero or an empty string.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return true
		}
		rv = rv.Elem()
	}
	return rv.IsZero()
}
