// Package dao is the persistence engine: it maps Go structs to rows of one
// table each and runs load, save, update, replace, delete and reload.
//
// A record type is a struct that embeds Model:
//
//	type Note struct {
//	    dao.Model
//	    Title string
//	    Body  map[string]any
//	}
//
//	func (*Note) Configure(o *config.Options) {
//	    o.Locking = true
//	    o.Serialization = codec.Spec{"body": codec.JSON}
//	}
//
// Model supplies the engine-managed columns (id, phid, version,
// dateCreated, dateModified); the resolved configuration decides which of
// them belong to the schema. Optional methods on the record type refine
// behavior: TableName, Configure, EstablishConnection, TransientFields,
// GeneratePHID, ShouldInsertWhenSaved and the lifecycle hooks BeforeSave,
// AfterWrite, BeforeDelete, AfterDelete and AfterRead.
//
// # Optimistic locking
//
// With Locking on, every row carries a version. Insert writes 0; update
// writes version+1 pinned on the version the record last observed and
// requires exactly one affected row. A concurrent writer that committed
// first makes the update fail with a missing-record error; nothing is
// retried, the caller reloads and recomputes.
//
// # Concurrency
//
// Calls are synchronous. Records are owned by the caller and must not be
// shared between goroutines without external locking. The Engine itself
// and its configuration and schema caches are safe for concurrent use.
package dao
