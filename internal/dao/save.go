package dao

import (
	"context"
	"fmt"
	"reflect"

	"github.com/roach88/tabula/internal/config"
	"github.com/roach88/tabula/internal/daoerr"
	"github.com/roach88/tabula/internal/ids"
	"github.com/roach88/tabula/internal/querysql"
	"github.com/roach88/tabula/internal/schema"
	"github.com/roach88/tabula/internal/store"
)

// Save inserts rec when it has no primary key yet and updates it
// otherwise. Under manual ids the decision comes from
// ShouldInsertWhenSaved, or from the committed version when locking is on.
func (e *Engine) Save(ctx context.Context, rec Record) error {
	s, err := e.Schema(rec)
	if err != nil {
		return err
	}

	insert, err := e.shouldInsert(s, rec)
	if err != nil {
		return err
	}
	if insert {
		return e.Insert(ctx, rec)
	}
	return e.Update(ctx, rec)
}

func (e *Engine) shouldInsert(s *schema.Schema, rec Record) (bool, error) {
	if d, ok := rec.(InsertDecider); ok {
		return d.ShouldInsertWhenSaved(), nil
	}
	var current any
	if key, ok := s.Key(); ok {
		current = key.Get(reflect.ValueOf(rec))
	}
	return allocator(s).ShouldInsert(current, rec.daoModel().versioned)
}

// Insert writes rec as a new row.
func (e *Engine) Insert(ctx context.Context, rec Record) error {
	return e.write(ctx, rec, querysql.Insert)
}

// Replace writes rec with REPLACE semantics: an existing row with the same
// key is overwritten.
func (e *Engine) Replace(ctx context.Context, rec Record) error {
	return e.write(ctx, rec, querysql.Replace)
}

func (e *Engine) write(ctx context.Context, rec Record, verb querysql.Verb) error {
	s, err := e.Schema(rec)
	if err != nil {
		return err
	}
	conn, err := e.connection(rec, s.Table, store.ModeWrite)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(rec)
	alloc := allocator(s)

	if _, err := e.stamp(s, rec); err != nil {
		return err
	}
	if key, ok := s.Key(); ok {
		phid, assigned, err := alloc.Assign(key.Get(rv), generator(rec))
		if err != nil {
			return err
		}
		if assigned {
			if err := key.Set(rv, phid); err != nil {
				return fmt.Errorf("assign key of %s: %w", s.Table, err)
			}
		}
	}
	if h, ok := rec.(BeforeSaveHook); ok {
		if err := h.BeforeSave(ctx); err != nil {
			return err
		}
	}

	values, err := e.payload(s, rv)
	if err != nil {
		return err
	}
	alloc.Payload(values)
	version, locking := versionField(s)
	if locking {
		values[version.Name] = int64(0)
	}

	stmt := builder(conn, s.Table).Insert(verb, columns(s), values)
	e.logger.Debug("executing statement", "table", s.Table, "op", string(verb), "sql", stmt.SQL)
	res, err := conn.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", verb, s.Table, err)
	}

	if locking {
		if err := version.Set(rv, int64(0)); err != nil {
			return fmt.Errorf("reset version of %s: %w", s.Table, err)
		}
	}
	id, ok, err := alloc.Generated(res)
	if err != nil {
		return err
	}
	if ok {
		key, _ := s.Key()
		if err := key.Set(rv, id); err != nil {
			return fmt.Errorf("write back id of %s: %w", s.Table, err)
		}
	}

	m := rec.daoModel()
	m.state = StatePersisted
	m.versioned = locking

	if h, ok := rec.(AfterWriteHook); ok {
		return h.AfterWrite(ctx)
	}
	return nil
}

// Update writes rec over its row. With locking on, the row must still hold
// the version rec was read at; on success the version advances by one in
// the row and in rec. A row count other than one is a missing-record
// error.
func (e *Engine) Update(ctx context.Context, rec Record) error {
	s, err := e.Schema(rec)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(rec)
	keyValue, err := requireKey(s, rv, "update")
	if err != nil {
		return err
	}
	conn, err := e.connection(rec, s.Table, store.ModeWrite)
	if err != nil {
		return err
	}

	// A failed update leaves the stamped fields as they were.
	restore, err := e.stamp(s, rec)
	committed := false
	defer func() {
		if !committed {
			restore()
		}
	}()
	if err != nil {
		return err
	}
	if h, ok := rec.(BeforeSaveHook); ok {
		if err := h.BeforeSave(ctx); err != nil {
			return err
		}
	}

	values, err := e.payload(s, rv)
	if err != nil {
		return err
	}

	var (
		versionCol string
		observed   int64
	)
	version, locking := versionField(s)
	if locking {
		versionCol = version.Name
		observed, err = toInt64(version.Get(rv))
		if err != nil {
			return fmt.Errorf("read version of %s: %w", s.Table, err)
		}
	}

	stmt := builder(conn, s.Table).Update(columns(s), values, s.IDKey, keyValue, versionCol, observed)
	e.logger.Debug("executing statement", "table", s.Table, "op", "update", "sql", stmt.SQL)
	res, err := conn.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", s.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", s.Table, err)
	}
	if n != 1 {
		e.logger.Info("update matched no row",
			"table", s.Table,
			"key", keyValue,
			"version", observed,
			"locking", locking,
			"affected", n)
		return daoerr.MissingRecord(s.Table, locking)
	}

	committed = true
	if locking {
		if err := version.Set(rv, observed+1); err != nil {
			return fmt.Errorf("advance version of %s: %w", s.Table, err)
		}
	}
	rec.daoModel().state = StatePersisted

	if h, ok := rec.(AfterWriteHook); ok {
		return h.AfterWrite(ctx)
	}
	return nil
}

// Delete removes rec's row. Deleting an absent row is not an error.
func (e *Engine) Delete(ctx context.Context, rec Record) error {
	s, err := e.Schema(rec)
	if err != nil {
		return err
	}
	keyValue, err := requireKey(s, reflect.ValueOf(rec), "delete")
	if err != nil {
		return err
	}
	conn, err := e.connection(rec, s.Table, store.ModeWrite)
	if err != nil {
		return err
	}

	if h, ok := rec.(BeforeDeleteHook); ok {
		if err := h.BeforeDelete(ctx); err != nil {
			return err
		}
	}

	stmt := builder(conn, s.Table).Delete(s.IDKey, keyValue)
	e.logger.Debug("executing statement", "table", s.Table, "op", "delete", "sql", stmt.SQL)
	if _, err := conn.Exec(ctx, stmt.SQL, stmt.Args...); err != nil {
		return fmt.Errorf("delete %s: %w", s.Table, err)
	}
	rec.daoModel().state = StateDeleted

	if h, ok := rec.(AfterDeleteHook); ok {
		return h.AfterDelete(ctx)
	}
	return nil
}

// Reload re-reads rec's row by primary key, and by version when locking is
// on. A missing row is a missing-record error; rec is left as it was.
func (e *Engine) Reload(ctx context.Context, rec Record) error {
	s, err := e.Schema(rec)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(rec)
	keyValue, err := requireKey(s, rv, "reload")
	if err != nil {
		return err
	}
	conn, err := e.connection(rec, s.Table, store.ModeRead)
	if err != nil {
		return err
	}

	version, locking := versionField(s)
	args := []any{keyValue}
	versionCol := ""
	if locking {
		versionCol = version.Name
		args = append(args, version.Get(rv))
	}

	b := builder(conn, s.Table)
	stmt := b.Select(b.KeyCondition(s.IDKey, versionCol, locking), args, store.LockMode(conn))
	e.logger.Debug("executing statement", "table", s.Table, "op", "reload", "sql", stmt.SQL)
	rows, err := conn.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return fmt.Errorf("reload %s: %w", s.Table, err)
	}

	switch len(rows) {
	case 0:
		e.logger.Info("reload matched no row", "table", s.Table, "key", keyValue, "locking", locking)
		return daoerr.MissingRecord(s.Table, locking)
	case 1:
		return e.apply(s, rec, rows[0])
	default:
		return daoerr.Cardinality(s.Table, len(rows))
	}
}

// stamp maintains the timestamps and the auxiliary PHID before a write.
// restore puts back the values stamp replaced.
func (e *Engine) stamp(s *schema.Schema, rec Record) (restore func(), err error) {
	rv := reflect.ValueOf(rec)
	var saved []func()
	restore = func() {
		for i := len(saved) - 1; i >= 0; i-- {
			saved[i]()
		}
	}
	assign := func(f *schema.Field, v any) error {
		old := f.Get(rv)
		if err := f.Set(rv, v); err != nil {
			return err
		}
		saved = append(saved, func() { _ = f.Set(rv, old) })
		return nil
	}

	if s.Options.Timestamps {
		now := e.clock.Now()
		if f, ok := s.Lookup(config.ColumnDateCreated); ok && ids.IsEmpty(f.Get(rv)) {
			if err := assign(f, now); err != nil {
				return restore, fmt.Errorf("stamp %s: %w", s.Table, err)
			}
		}
		if f, ok := s.Lookup(config.ColumnDateModified); ok {
			if err := assign(f, now); err != nil {
				return restore, fmt.Errorf("stamp %s: %w", s.Table, err)
			}
		}
	}

	if s.Options.AuxPHID && s.IDKey != config.ColumnPHID {
		f, ok := s.Lookup(config.ColumnPHID)
		if !ok || !ids.IsEmpty(f.Get(rv)) {
			return restore, nil
		}
		gen := generator(rec)
		if gen == nil {
			return restore, daoerr.Configuration(s.Table, "auxiliary PHIDs require the record type to implement GeneratePHID")
		}
		phid, err := gen.GeneratePHID()
		if err != nil {
			return restore, fmt.Errorf("generate phid for %s: %w", s.Table, err)
		}
		if err := assign(f, phid); err != nil {
			return restore, fmt.Errorf("assign phid of %s: %w", s.Table, err)
		}
	}
	return restore, nil
}

// payload reads the persistent fields of rv and encodes them for storage.
func (e *Engine) payload(s *schema.Schema, rv reflect.Value) (map[string]any, error) {
	values := s.Values(rv)
	if err := s.Options.Serialization.Encode(values); err != nil {
		return nil, codecError(s.Table, fmt.Errorf("write %s: %w", s.Table, err))
	}
	return values, nil
}

// columns lists the persistent column names in schema order.
func columns(s *schema.Schema) []string {
	fields := s.Persistent()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func versionField(s *schema.Schema) (*schema.Field, bool) {
	if !s.Options.Locking {
		return nil, false
	}
	return s.Lookup(config.ColumnVersion)
}

// requireKey returns rec's primary key value, failing when the type has
// no key or the record has none yet.
func requireKey(s *schema.Schema, rv reflect.Value, op string) (any, error) {
	key, ok := s.Key()
	if !ok {
		return nil, daoerr.Structural(s.Table, "%s needs a primary key, the record type has none", op)
	}
	v := key.Get(rv)
	if ids.IsEmpty(v) {
		return nil, daoerr.Argument(s.Table, "%s needs a primary key value, %s is empty", op, s.IDKey)
	}
	return v, nil
}

func toInt64(v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("%T is not an integer", v)
}
