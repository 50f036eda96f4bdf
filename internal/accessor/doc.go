// Package accessor dispatches get<Field>/set<Field> calls through a schema.
//
// Names resolve case-insensitively against the field-access table built by
// package schema. The symbolic name "ID" always addresses the configured
// primary key, whatever its column is called.
package accessor
