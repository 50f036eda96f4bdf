package dao

import (
	"context"

	"github.com/roach88/tabula/internal/store"
)

// State is the lifecycle state of a record instance.
type State int

const (
	// StateNew is a record that was never inserted.
	StateNew State = iota

	// StatePersisted is a record backed by a row.
	StatePersisted

	// StateDeleted is a record whose row was deleted. The engine does not
	// prevent saving it again.
	StateDeleted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StatePersisted:
		return "persisted"
	case StateDeleted:
		return "deleted"
	default:
		return "new"
	}
}

// Model carries the engine-managed columns and per-instance state. Embed
// it in every record type.
//
// Which of the virtual columns are persisted depends on the configuration:
// ID when the primary key is "id", PHID under PHID ids or auxiliary PHIDs,
// Version under locking, the dates when timestamps are on. Version is
// managed by the engine and must not be changed by callers.
type Model struct {
	ID           int64  `db:"id,virtual" json:"id,omitempty"`
	PHID         string `db:"phid,virtual" json:"phid,omitempty"`
	Version      int64  `db:"version,virtual" json:"version,omitempty"`
	DateCreated  int64  `db:"dateCreated,virtual" json:"dateCreated,omitempty"`
	DateModified int64  `db:"dateModified,virtual" json:"dateModified,omitempty"`

	conn      store.Conn
	connMode  store.Mode
	state     State
	versioned bool
}

func (m *Model) daoModel() *Model { return m }

// State returns the lifecycle state of the record.
func (m *Model) State() State { return m.state }

// ConnectionMode returns the mode the record's connection was established
// for, or "" when none was established yet.
func (m *Model) ConnectionMode() store.Mode { return m.connMode }

// Record is implemented by every type embedding Model.
type Record interface {
	daoModel() *Model
}

// TableNamer names the backing table. Without it the table is the
// lower-cased type name.
type TableNamer interface {
	TableName() string
}

// Connector establishes the record's connection. mode is ModeRead for
// loads and ModeWrite for writes; the handle is cached on the record after
// the first call whatever the mode.
type Connector interface {
	EstablishConnection(mode store.Mode) (store.Conn, error)
}

// TransientFielder lists fields that belong to the schema but are never
// persisted.
type TransientFielder interface {
	TransientFields() []string
}

// InsertDecider overrides the insert-or-update decision of Save. Required
// for manual ids without optimistic locking.
type InsertDecider interface {
	ShouldInsertWhenSaved() bool
}

// BeforeSaveHook runs on insert, replace and update after timestamps and
// identifiers were assigned and before the payload is built.
type BeforeSaveHook interface {
	BeforeSave(ctx context.Context) error
}

// AfterWriteHook runs after a successful insert, replace or update.
type AfterWriteHook interface {
	AfterWrite(ctx context.Context) error
}

// BeforeDeleteHook runs before the DELETE statement.
type BeforeDeleteHook interface {
	BeforeDelete(ctx context.Context) error
}

// AfterDeleteHook runs after the DELETE statement.
type AfterDeleteHook interface {
	AfterDelete(ctx context.Context) error
}

// AfterReadHook runs after a row was loaded into the record.
type AfterReadHook interface {
	AfterRead() error
}
