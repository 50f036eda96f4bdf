package dao

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/mitchellh/copystructure"

	"github.com/roach88/tabula/internal/daoerr"
	"github.com/roach88/tabula/internal/schema"
	"github.com/roach88/tabula/internal/store"
)

// Ptr constrains P to be *T and a Record.
type Ptr[T any] interface {
	*T
	Record
}

// Table loads records of type T. Loaded records are cloned from a
// prototype, so defaults set on the prototype carry over, and share the
// prototype's connection handle.
type Table[T any, P Ptr[T]] struct {
	engine *Engine
	proto  P
}

// TableOf returns a Table for T with a zero-valued prototype.
func TableOf[T any, P Ptr[T]](e *Engine) *Table[T, P] {
	return &Table[T, P]{engine: e, proto: P(new(T))}
}

// From returns a Table using proto as prototype. A nil proto is replaced
// by a zero value.
func From[T any, P Ptr[T]](e *Engine, proto P) *Table[T, P] {
	if proto == nil {
		proto = P(new(T))
	}
	return &Table[T, P]{engine: e, proto: proto}
}

// Schema returns the schema of T.
func (t *Table[T, P]) Schema() (*schema.Schema, error) {
	return t.engine.Schema(t.proto)
}

// Results holds the records of a multi-row load.
type Results[P any] struct {
	// Records lists the records in row order.
	Records []P

	// ByKey indexes the records by primary key value. Nil when the record
	// type has no primary key.
	ByKey map[any]P
}

// Len returns the number of records.
func (r *Results[P]) Len() int {
	return len(r.Records)
}

// Get returns the record with the given primary key. Integer keys of any
// width match.
func (r *Results[P]) Get(key any) (P, bool) {
	var zero P
	if r.ByKey == nil {
		return zero, false
	}
	v, ok := r.ByKey[normalizeKey(key)]
	if !ok {
		return zero, false
	}
	return v, true
}

// Load loads the record whose primary key equals id. id must be a positive
// integer or a string of digits. found is false when no row matches.
func (t *Table[T, P]) Load(ctx context.Context, id any) (rec P, found bool, err error) {
	s, err := t.Schema()
	if err != nil {
		return nil, false, err
	}
	n, ok := parseID(id)
	if !ok {
		return nil, false, daoerr.Argument(s.Table, "unknown id %v: ids must be positive integers", id)
	}
	if s.IDKey == "" {
		return nil, false, daoerr.Structural(s.Table, "load by id needs a primary key, the record type has none")
	}

	conn, err := t.engine.connection(t.proto, s.Table, store.ModeRead)
	if err != nil {
		return nil, false, err
	}
	where := builder(conn, s.Table).KeyCondition(s.IDKey, "", false)
	return t.LoadOneWhere(ctx, where, n)
}

// LoadAll loads every row of the table.
func (t *Table[T, P]) LoadAll(ctx context.Context) (*Results[P], error) {
	return t.LoadAllWhere(ctx, "1 = 1")
}

// LoadAllWhere loads every row matching where, a SQL fragment whose ?
// placeholders bind args. No match yields empty results, not an error.
func (t *Table[T, P]) LoadAllWhere(ctx context.Context, where string, args ...any) (*Results[P], error) {
	rows, err := t.LoadRawDataWhere(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	return t.LoadAllFromRows(rows)
}

// LoadOneWhere loads the single row matching where. found is false when
// nothing matches; more than one match is a cardinality error.
func (t *Table[T, P]) LoadOneWhere(ctx context.Context, where string, args ...any) (rec P, found bool, err error) {
	rows, err := t.LoadRawDataWhere(ctx, where, args...)
	if err != nil {
		return nil, false, err
	}
	s, err := t.Schema()
	if err != nil {
		return nil, false, err
	}
	switch len(rows) {
	case 0:
		return nil, false, nil
	case 1:
	default:
		return nil, false, daoerr.Cardinality(s.Table, len(rows))
	}

	rec, err = t.materialize(s, rows[0])
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// LoadRawDataWhere returns the matching rows as stored, without decoding
// or materializing records.
func (t *Table[T, P]) LoadRawDataWhere(ctx context.Context, where string, args ...any) ([]store.Row, error) {
	s, err := t.Schema()
	if err != nil {
		return nil, err
	}
	conn, err := t.engine.connection(t.proto, s.Table, store.ModeRead)
	if err != nil {
		return nil, err
	}

	stmt := builder(conn, s.Table).Select(where, args, store.LockMode(conn))
	t.engine.logger.Debug("executing statement", "table", s.Table, "op", "select", "sql", stmt.SQL)

	rows, err := conn.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.Table, err)
	}
	return rows, nil
}

// LoadAllFromRows materializes rows, as returned by LoadRawDataWhere, into
// records. Each row becomes an independent clone of the prototype.
func (t *Table[T, P]) LoadAllFromRows(rows []store.Row) (*Results[P], error) {
	s, err := t.Schema()
	if err != nil {
		return nil, err
	}

	res := &Results[P]{Records: make([]P, 0, len(rows))}
	key, hasKey := s.Key()
	if hasKey {
		res.ByKey = make(map[any]P, len(rows))
	}

	for _, row := range rows {
		rec, err := t.materialize(s, row)
		if err != nil {
			return nil, err
		}
		res.Records = append(res.Records, rec)
		if hasKey {
			res.ByKey[normalizeKey(key.Get(reflect.ValueOf(rec)))] = rec
		}
	}
	return res, nil
}

// materialize clones the prototype and fills it from row.
func (t *Table[T, P]) materialize(s *schema.Schema, row store.Row) (P, error) {
	rec, err := t.clone()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Table, err)
	}
	m := rec.daoModel()
	pm := t.proto.daoModel()
	m.conn, m.connMode = pm.conn, pm.connMode

	if err := t.engine.apply(s, rec, row); err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *Table[T, P]) clone() (P, error) {
	copied, err := copystructure.Copy(t.proto)
	if err != nil {
		return nil, fmt.Errorf("clone prototype: %w", err)
	}
	rec, ok := copied.(P)
	if !ok || rec == nil {
		return nil, fmt.Errorf("clone prototype: got %T", copied)
	}
	// Engine state never carries over from the prototype.
	m := rec.daoModel()
	m.state, m.versioned = StateNew, false
	return rec, nil
}

// apply decodes row and writes it into rec. Unknown columns are ignored.
// Values are decoded and converted before any field is written.
func (e *Engine) apply(s *schema.Schema, rec Record, row store.Row) error {
	values := make(map[string]any, len(row))
	for column, v := range row {
		if f, ok := s.Lookup(column); ok {
			values[f.Name] = v
		}
	}

	err := s.Options.Serialization.Decode(values, func(column string) any {
		if f, ok := s.Lookup(column); ok {
			return f.New()
		}
		return nil
	})
	if err != nil {
		return codecError(s.Table, fmt.Errorf("read %s: %w", s.Table, err))
	}

	// Stage into a scratch copy first so a conversion failure leaves rec
	// untouched.
	rv := reflect.ValueOf(rec)
	scratch := reflect.New(s.Type)
	for name, v := range values {
		f, _ := s.Lookup(name)
		if err := f.Set(scratch, v); err != nil {
			return fmt.Errorf("read %s: %w", s.Table, err)
		}
	}
	for name := range values {
		f, _ := s.Lookup(name)
		if err := f.Set(rv, f.Get(scratch)); err != nil {
			return fmt.Errorf("read %s: %w", s.Table, err)
		}
	}

	m := rec.daoModel()
	m.state = StatePersisted
	if s.Options.Locking {
		m.versioned = true
	}

	if h, ok := rec.(AfterReadHook); ok {
		if err := h.AfterRead(); err != nil {
			return err
		}
	}
	return nil
}

// parseID accepts positive integers of any width and digit strings.
func parseID(id any) (int64, bool) {
	switch v := id.(type) {
	case int:
		return int64(v), v > 0
	case int8:
		return int64(v), v > 0
	case int16:
		return int64(v), v > 0
	case int32:
		return int64(v), v > 0
	case int64:
		return v, v > 0
	case uint:
		return int64(v), v > 0 && uint64(v) <= 1<<63-1
	case uint8:
		return int64(v), v > 0
	case uint16:
		return int64(v), v > 0
	case uint32:
		return int64(v), v > 0
	case uint64:
		return int64(v), v > 0 && v <= 1<<63-1
	case string:
		if v == "" {
			return 0, false
		}
		for _, r := range v {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// normalizeKey widens integer keys to int64 so lookups ignore width.
func normalizeKey(k any) any {
	switch v := k.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case []byte:
		return string(v)
	default:
		return k
	}
}
