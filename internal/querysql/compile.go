package querysql

import (
	"fmt"
	"strings"
)

// Verb is the keyword of a row-creating statement.
type Verb string

const (
	Insert  Verb = "INSERT"
	Replace Verb = "REPLACE"
)

// Statement is a SQL string with its bound parameters.
type Statement struct {
	SQL  string
	Args []any
}

// String renders the statement for logs and golden files. Arguments are
// printed next to the SQL, never spliced into it.
func (s Statement) String() string {
	if len(s.Args) == 0 {
		return s.SQL
	}
	return fmt.Sprintf("%s -- %v", s.SQL, s.Args)
}

// Builder builds statements against one table.
type Builder struct {
	Dialect Dialect
	Table   string
}

// NewBuilder creates a Builder. A nil dialect defaults to SQLite.
func NewBuilder(d Dialect, table string) Builder {
	if d == nil {
		d = SQLite
	}
	return Builder{Dialect: d, Table: table}
}

func (b Builder) quote(name string) string {
	return b.Dialect.QuoteIdent(name)
}

// Select builds "SELECT * FROM t WHERE <where><lock>". An empty where
// matches every row. where may contain ? placeholders bound to args.
func (b Builder) Select(where string, args []any, lock LockMode) Statement {
	if strings.TrimSpace(where) == "" {
		where = "1 = 1" // Always true
	}
	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s%s",
		b.quote(b.Table),
		where,
		b.Dialect.LockClause(lock))
	return Statement{SQL: sql, Args: append([]any(nil), args...)}
}

// KeyCondition returns the WHERE fragment pinning the primary key, and the
// version too when withVersion is set. Both variants have the same shape so
// reload and update share it.
func (b Builder) KeyCondition(key, version string, withVersion bool) string {
	cond := fmt.Sprintf("%s = ?", b.quote(key))
	if withVersion {
		cond += fmt.Sprintf(" AND %s = ?", b.quote(version))
	}
	return cond
}

// Insert builds an INSERT or REPLACE over columns, in the given order,
// taking values from values. Columns missing from values are skipped.
func (b Builder) Insert(verb Verb, columns []string, values map[string]any) Statement {
	names := make([]string, 0, len(columns))
	marks := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		v, ok := values[col]
		if !ok {
			continue
		}
		names = append(names, b.quote(col))
		marks = append(marks, "?")
		args = append(args, v)
	}

	var sql string
	if len(names) == 0 {
		sql = fmt.Sprintf("%s INTO %s DEFAULT VALUES", verb, b.quote(b.Table))
	} else {
		sql = fmt.Sprintf("%s INTO %s (%s) VALUES (%s)",
			verb,
			b.quote(b.Table),
			strings.Join(names, ", "),
			strings.Join(marks, ", "))
	}
	return Statement{SQL: sql, Args: args}
}

// Update builds an UPDATE setting columns from values, pinned on the key.
// When version is non-empty the version column is advanced with
// "version = version + 1" instead of being set, and the WHERE clause also
// pins the observed version.
func (b Builder) Update(columns []string, values map[string]any, key string, keyValue any, version string, observed int64) Statement {
	locking := version != ""

	sets := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+2)
	for _, col := range columns {
		if col == key || (locking && col == version) {
			continue
		}
		v, ok := values[col]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = ?", b.quote(col)))
		args = append(args, v)
	}
	if locking {
		sets = append(sets, fmt.Sprintf("%s = %s + 1", b.quote(version), b.quote(version)))
	}
	if len(sets) == 0 {
		// Nothing to change; keep the statement valid so the affected row
		// count still reports whether the row exists.
		sets = append(sets, fmt.Sprintf("%s = %s", b.quote(key), b.quote(key)))
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		b.quote(b.Table),
		strings.Join(sets, ", "),
		b.KeyCondition(key, version, locking))

	args = append(args, keyValue)
	if locking {
		args = append(args, observed)
	}
	return Statement{SQL: sql, Args: args}
}

// Delete builds "DELETE FROM t WHERE key = ?".
func (b Builder) Delete(key string, keyValue any) Statement {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s",
		b.quote(b.Table),
		b.KeyCondition(key, "", false))
	return Statement{SQL: sql, Args: []any{keyValue}}
}
