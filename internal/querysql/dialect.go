package querysql

import "strings"

// LockMode selects the trailing lock clause of a SELECT.
type LockMode int

const (
	// LockNone adds no clause.
	LockNone LockMode = iota

	// LockExclusive locks matched rows for update.
	LockExclusive

	// LockShared takes a shared lock on matched rows.
	LockShared
)

// String implements fmt.Stringer.
func (m LockMode) String() string {
	switch m {
	case LockExclusive:
		return "exclusive"
	case LockShared:
		return "shared"
	default:
		return "none"
	}
}

// Dialect captures the SQL differences between backends.
type Dialect interface {
	// Name identifies the dialect.
	Name() string

	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string

	// LockClause returns the clause appended to a SELECT, including the
	// leading space, or "" when the backend has none for mode.
	LockClause(mode LockMode) string
}

// SQLite quotes with double quotes. SQLite locks the whole database inside
// a transaction and has no row lock syntax, so every lock clause is empty.
var SQLite Dialect = sqliteDialect{}

// MySQL quotes with backticks and supports both lock clauses.
var MySQL Dialect = mysqlDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) LockClause(LockMode) string { return "" }

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (mysqlDialect) LockClause(mode LockMode) string {
	switch mode {
	case LockExclusive:
		return " FOR UPDATE"
	case LockShared:
		return " LOCK IN SHARE MODE"
	default:
		return ""
	}
}
