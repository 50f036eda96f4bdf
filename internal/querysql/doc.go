// Package querysql builds the parameterized statements the persistence
// engine issues.
//
// Four statement shapes exist: SELECT with a caller WHERE fragment and an
// optional lock clause, INSERT/REPLACE over the persistent columns, UPDATE
// pinned on the primary key (and version under optimistic locking), and
// DELETE by primary key.
//
// CRITICAL: table and column names come from the record schema, never from
// callers, and are always quoted by the Dialect. Values are always bound
// as ? parameters, never interpolated.
package querysql
