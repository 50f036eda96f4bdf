package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tabula/internal/codec"
)

//go:embed schema.cue
var schemaCUE string

// File is the on-disk configuration: database location plus per-table
// overrides. Pointer fields distinguish "unset" from a false or empty value.
type File struct {
	Database Database             `yaml:"database" json:"database"`
	Defaults Overrides            `yaml:"defaults" json:"defaults"`
	Tables   map[string]Overrides `yaml:"tables" json:"tables"`
}

// Database locates the backing store.
type Database struct {
	Driver string `yaml:"driver" json:"driver"`
	Path   string `yaml:"path" json:"path"`
}

// Overrides are optional option values. Nil means "leave as resolved".
type Overrides struct {
	Locking       *bool             `yaml:"locking,omitempty" json:"locking,omitempty"`
	IDs           *IDStrategy       `yaml:"ids,omitempty" json:"ids,omitempty"`
	Timestamps    *bool             `yaml:"timestamps,omitempty" json:"timestamps,omitempty"`
	AuxPHID       *bool             `yaml:"aux_phid,omitempty" json:"aux_phid,omitempty"`
	IDKey         *string           `yaml:"id_key,omitempty" json:"id_key,omitempty"`
	Serialization map[string]string `yaml:"serialization,omitempty" json:"serialization,omitempty"`
}

// Apply writes every set field of ov onto opts.
func (ov Overrides) Apply(opts *Options) {
	if ov.Locking != nil {
		opts.Locking = *ov.Locking
	}
	if ov.IDs != nil {
		opts.IDs = *ov.IDs
	}
	if ov.Timestamps != nil {
		opts.Timestamps = *ov.Timestamps
	}
	if ov.AuxPHID != nil {
		opts.AuxPHID = *ov.AuxPHID
	}
	if ov.IDKey != nil {
		if *ov.IDKey == "-" {
			opts.NoIDKey = true
			opts.IDKey = ""
		} else {
			opts.NoIDKey = false
			opts.IDKey = *ov.IDKey
		}
	}
	if len(ov.Serialization) > 0 {
		if opts.Serialization == nil {
			opts.Serialization = make(codec.Spec, len(ov.Serialization))
		}
		for column, format := range ov.Serialization {
			opts.Serialization[column] = codec.Format(format)
		}
	}
}

// merge layers ov over base; fields set in ov win.
func (base Overrides) merge(ov Overrides) Overrides {
	out := base
	if ov.Locking != nil {
		out.Locking = ov.Locking
	}
	if ov.IDs != nil {
		out.IDs = ov.IDs
	}
	if ov.Timestamps != nil {
		out.Timestamps = ov.Timestamps
	}
	if ov.AuxPHID != nil {
		out.AuxPHID = ov.AuxPHID
	}
	if ov.IDKey != nil {
		out.IDKey = ov.IDKey
	}
	if len(base.Serialization) > 0 || len(ov.Serialization) > 0 {
		out.Serialization = make(map[string]string, len(base.Serialization)+len(ov.Serialization))
		for k, v := range base.Serialization {
			out.Serialization[k] = v
		}
		for k, v := range ov.Serialization {
			out.Serialization[k] = v
		}
	}
	return out
}

// TableOverrides returns the effective override per table: the file's
// defaults layered under each table entry.
func (f *File) TableOverrides() map[string]Overrides {
	out := make(map[string]Overrides, len(f.Tables))
	for name, ov := range f.Tables {
		out[name] = f.Defaults.merge(ov)
	}
	return out
}

// Load reads a config file. The format is chosen by extension: .cue files
// are unified with the embedded schema, anything else is parsed as YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		if err := decodeCUE(path, data, &f); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	return &f, nil
}

func decodeCUE(path string, data []byte, f *File) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#File")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validate config %s: %w", path, err)
	}
	if err := unified.Decode(f); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// Validate checks the file for values the engine cannot use and returns
// every problem found, not just the first. Serialization formats are
// checked here even though the engine only rejects them when used.
func (f *File) Validate() error {
	var result *multierror.Error

	switch f.Database.Driver {
	case "", "sqlite3", "sqlite":
	default:
		result = multierror.Append(result, fmt.Errorf("database.driver: unsupported driver %q", f.Database.Driver))
	}

	check := func(scope string, ov Overrides) {
		if ov.IDs != nil && !ov.IDs.Valid() {
			result = multierror.Append(result, fmt.Errorf("%s.ids: unknown strategy %q", scope, *ov.IDs))
		}
		if ov.IDKey != nil && *ov.IDKey == "" {
			result = multierror.Append(result, fmt.Errorf("%s.id_key: must not be empty (use \"-\" to disable)", scope))
		}
		for column, format := range ov.Serialization {
			if err := codec.Format(format).Validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s.serialization.%s: %w", scope, column, err))
			}
		}
	}

	check("defaults", f.Defaults)
	for name, ov := range f.Tables {
		check("tables."+name, ov)
	}

	return result.ErrorOrNil()
}
