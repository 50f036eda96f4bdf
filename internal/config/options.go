// Package config resolves per-record-type behavior flags.
//
// Resolution order, weakest first: engine defaults, the record type's own
// declaration hook, then per-table overrides from a config file. The result
// is computed once per Go type and cached for the life of the process.
package config

import (
	"github.com/roach88/tabula/internal/codec"
)

// IDStrategy selects how primary keys are assigned.
type IDStrategy string

const (
	// IDsAutoincrement lets the store generate the key on insert.
	IDsAutoincrement IDStrategy = "autoincrement"

	// IDsPHID assigns a generated PHID before the first write; the PHID is
	// the primary key.
	IDsPHID IDStrategy = "phid"

	// IDsManual leaves key assignment to the caller.
	IDsManual IDStrategy = "manual"
)

// Valid reports whether s is a known strategy.
func (s IDStrategy) Valid() bool {
	switch s {
	case IDsAutoincrement, IDsPHID, IDsManual:
		return true
	}
	return false
}

// Column names of the engine-managed virtual fields.
const (
	ColumnID           = "id"
	ColumnPHID         = "phid"
	ColumnVersion      = "version"
	ColumnDateCreated  = "dateCreated"
	ColumnDateModified = "dateModified"
)

// Options holds the resolved behavior of one record type.
type Options struct {
	// Locking enables optimistic locking through a version column.
	Locking bool

	// IDs selects the primary key strategy.
	IDs IDStrategy

	// Timestamps maintains dateCreated and dateModified.
	Timestamps bool

	// AuxPHID maintains a phid column next to a non-PHID primary key.
	AuxPHID bool

	// IDKey overrides the primary key column. Empty means "id", or "phid"
	// under IDsPHID.
	IDKey string

	// NoIDKey disables the primary key entirely. Operations that need one
	// fail with a structural error.
	NoIDKey bool

	// Serialization maps column names to their stored format.
	Serialization codec.Spec
}

// Defaults returns the engine defaults: no locking, autoincrement ids,
// timestamps on.
func Defaults() Options {
	return Options{
		Locking:    false,
		IDs:        IDsAutoincrement,
		Timestamps: true,
	}
}

// PrimaryKey returns the primary key column, or "" when disabled.
func (o Options) PrimaryKey() string {
	if o.NoIDKey {
		return ""
	}
	if o.IDKey != "" {
		return o.IDKey
	}
	if o.IDs == IDsPHID {
		return ColumnPHID
	}
	return ColumnID
}

// clone returns a copy whose serialization map is not shared with o.
func (o Options) clone() Options {
	out := o
	if o.Serialization != nil {
		out.Serialization = make(codec.Spec, len(o.Serialization))
		for k, v := range o.Serialization {
			out.Serialization[k] = v
		}
	}
	return out
}
