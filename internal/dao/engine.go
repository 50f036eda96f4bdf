package dao

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/roach88/tabula/internal/codec"
	"github.com/roach88/tabula/internal/config"
	"github.com/roach88/tabula/internal/daoerr"
	"github.com/roach88/tabula/internal/ids"
	"github.com/roach88/tabula/internal/querysql"
	"github.com/roach88/tabula/internal/schema"
	"github.com/roach88/tabula/internal/store"
)

// Clock supplies timestamps in Unix seconds.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() int64 { return time.Now().Unix() }

// Engine runs persistence operations. It owns the configuration and schema
// registries; both are filled lazily, once per record type, and never
// invalidated.
type Engine struct {
	configs *config.Registry
	schemas *schema.Registry
	conn    store.Conn
	clock   Clock
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	conn      store.Conn
	clock     Clock
	logger    *slog.Logger
	defaults  config.Overrides
	overrides map[string]config.Overrides
}

// WithConn sets the connection used by record types without their own
// EstablishConnection.
func WithConn(c store.Conn) Option {
	return func(o *engineOptions) { o.conn = c }
}

// WithClock sets the timestamp source. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(o *engineOptions) { o.clock = c }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// WithOverrides applies per-table option overrides after each type's own
// declaration and after WithDefaults.
func WithOverrides(ov map[string]config.Overrides) Option {
	return func(o *engineOptions) { o.overrides = ov }
}

// WithDefaults applies ov to every record type after its own declaration.
func WithDefaults(ov config.Overrides) Option {
	return func(o *engineOptions) { o.defaults = ov }
}

// WithFile applies a config file: its defaults to every table, then its
// per-table entries.
func WithFile(f *config.File) Option {
	return func(o *engineOptions) {
		o.defaults = f.Defaults
		o.overrides = f.Tables
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	o := engineOptions{clock: SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Engine{
		configs: config.NewRegistry(o.defaults, o.overrides),
		schemas: schema.NewRegistry(),
		conn:    o.conn,
		clock:   o.clock,
		logger:  o.logger,
	}
}

var (
	defaultEngine *Engine
	defaultMu     sync.RWMutex
)

// SetDefault sets the engine used by the package-level functions.
func SetDefault(e *Engine) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultEngine = e
}

// Default returns the engine used by the package-level functions, creating
// a connection-less one on first use.
func Default() *Engine {
	defaultMu.RLock()
	e := defaultEngine
	defaultMu.RUnlock()
	if e != nil {
		return e
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultEngine == nil {
		defaultEngine = New()
	}
	return defaultEngine
}

// TableName returns the table of rec: TableName() if implemented, else the
// lower-cased type name.
func TableName(rec Record) string {
	if tn, ok := rec.(TableNamer); ok {
		if name := strings.TrimSpace(tn.TableName()); name != "" {
			return name
		}
	}
	t := reflect.TypeOf(rec)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}

// Schema returns the schema of rec's type, building it on first use.
func (e *Engine) Schema(rec Record) (*schema.Schema, error) {
	typ := reflect.TypeOf(rec)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return e.schemas.For(typ, func() schema.Descriptor {
		table := TableName(rec)
		var declarer config.Declarer
		if d, ok := rec.(config.Declarer); ok {
			declarer = d
		}
		var transient []string
		if tf, ok := rec.(TransientFielder); ok {
			transient = tf.TransientFields()
		}
		return schema.Descriptor{
			Type:      typ,
			Table:     table,
			Options:   e.configs.Resolve(typ, table, declarer),
			Transient: transient,
		}
	})
}

// Options returns the resolved configuration of rec's type.
func (e *Engine) Options(rec Record) (config.Options, error) {
	s, err := e.Schema(rec)
	if err != nil {
		return config.Options{}, err
	}
	return s.Options, nil
}

// connection returns rec's cached handle, establishing it on first use.
func (e *Engine) connection(rec Record, table string, mode store.Mode) (store.Conn, error) {
	m := rec.daoModel()
	if m.conn != nil {
		return m.conn, nil
	}

	var conn store.Conn
	if c, ok := rec.(Connector); ok {
		var err error
		conn, err = c.EstablishConnection(mode)
		if err != nil {
			return nil, err
		}
	} else {
		conn = e.conn
	}
	if conn == nil {
		return nil, daoerr.Configuration(table, "no connection: implement EstablishConnection or configure the engine WithConn")
	}

	m.conn = conn
	m.connMode = mode
	return conn, nil
}

func builder(conn store.Conn, table string) querysql.Builder {
	return querysql.NewBuilder(conn.Dialect(), table)
}

// allocator works on the schema's key column, which carries the field's
// spelling rather than the configured one.
func allocator(s *schema.Schema) ids.Allocator {
	a := ids.NewAllocator(s.Table, s.Options)
	a.Key = s.IDKey
	return a
}

// generator returns rec's PHID generator, or nil.
func generator(rec Record) ids.Generator {
	if g, ok := rec.(ids.Generator); ok {
		return g
	}
	return nil
}

// codecError classifies codec failures: unknown formats are configuration
// errors, everything else passes through.
func codecError(table string, err error) error {
	if errors.Is(err, codec.ErrUnknownFormat) {
		return daoerr.Wrap(daoerr.CodeConfiguration, table, err)
	}
	return err
}
