// Package schema builds the property schema of a record type.
//
// A Schema is an explicit descriptor: table name, ordered field list, the
// primary key column and the virtual columns implied by configuration. It
// is built once per Go type by walking the struct with reflection and is
// immutable afterwards, so it can be shared by concurrent readers.
//
// Each Field carries a typed accessor pair (Get/Set closures over the
// field's index path). Named access to record fields is a case-insensitive
// table lookup followed by one of these closures; no method names are
// parsed and no reflection over the struct layout happens per call.
//
// Column names come from the `db` struct tag, else the field name with its
// leading capitals lowered ("Title" -> "title", "AuthorPHID" -> "authorPHID").
// A `db:"-"` tag hides the field. Fields tagged with the `virtual` option
// (as in `db:"version,virtual"`) are only part of the schema when the
// configuration asks for them.
package schema
