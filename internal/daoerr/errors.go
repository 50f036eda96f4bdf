// Package daoerr defines the structured errors raised by the persistence engine.
//
// Every failure the engine reports is a *Error carrying a Code. Callers branch
// on the code through the Is* helpers, which use errors.As so wrapped errors
// are matched too.
package daoerr

import (
	"errors"
	"fmt"
)

// Code categorizes engine errors.
type Code string

const (
	// CodeConfiguration indicates a record type is configured inconsistently:
	// unknown serialization format, manual ids without locking or an explicit
	// insert decision, PHID generation without a generator.
	CodeConfiguration Code = "CONFIGURATION"

	// CodeArgument indicates a malformed argument: bad id passed to Load,
	// wrong accessor arity, unknown accessor field.
	CodeArgument Code = "ARGUMENT"

	// CodeCardinality indicates a single-result query matched several rows.
	CodeCardinality Code = "CARDINALITY"

	// CodeMissingRecord indicates an update touched no row or a reload found
	// nothing. With locking on this usually means a stale version.
	CodeMissingRecord Code = "MISSING_RECORD"

	// CodeStructural indicates an operation needs a primary key the record
	// type has disabled.
	CodeStructural Code = "STRUCTURAL"
)

// Error is the error type returned by every engine package.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Table names the affected table, when known.
	Table string

	// Locking reports whether optimistic locking was in effect. Only
	// meaningful for CodeMissingRecord: true means the row may still exist
	// with a newer version.
	Locking bool

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Table != "" {
		msg = fmt.Sprintf("%s (table=%s)", msg, e.Table)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration creates a CodeConfiguration error.
func Configuration(table, format string, args ...any) *Error {
	return &Error{Code: CodeConfiguration, Table: table, Message: fmt.Sprintf(format, args...)}
}

// Argument creates a CodeArgument error.
func Argument(table, format string, args ...any) *Error {
	return &Error{Code: CodeArgument, Table: table, Message: fmt.Sprintf(format, args...)}
}

// Cardinality creates a CodeCardinality error for a query that returned count rows.
func Cardinality(table string, count int) *Error {
	return &Error{
		Code:    CodeCardinality,
		Table:   table,
		Message: fmt.Sprintf("expected at most one row, query returned %d", count),
	}
}

// MissingRecord creates a CodeMissingRecord error.
func MissingRecord(table string, locking bool) *Error {
	msg := "record is missing"
	if locking {
		msg = "record is missing or its version is stale"
	}
	return &Error{Code: CodeMissingRecord, Table: table, Locking: locking, Message: msg}
}

// Structural creates a CodeStructural error.
func Structural(table, format string, args ...any) *Error {
	return &Error{Code: CodeStructural, Table: table, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an existing error. A nil err yields nil.
func Wrap(code Code, table string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) && de.Code == code {
		return err
	}
	return &Error{Code: code, Table: table, Message: err.Error(), Err: err}
}

func hasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return hasCode(err, CodeConfiguration) }

// IsArgument reports whether err is an argument error.
func IsArgument(err error) bool { return hasCode(err, CodeArgument) }

// IsCardinality reports whether err is a cardinality error.
func IsCardinality(err error) bool { return hasCode(err, CodeCardinality) }

// IsMissingRecord reports whether err is a missing-record error.
func IsMissingRecord(err error) bool { return hasCode(err, CodeMissingRecord) }

// IsStructural reports whether err is a structural error.
func IsStructural(err error) bool { return hasCode(err, CodeStructural) }

// IsStale reports whether err is a missing-record error raised while
// optimistic locking was in effect.
func IsStale(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == CodeMissingRecord && de.Locking
	}
	return false
}
