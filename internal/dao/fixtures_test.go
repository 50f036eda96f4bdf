package dao

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/roach88/tabula/internal/codec"
	"github.com/roach88/tabula/internal/config"
	"github.com/roach88/tabula/internal/ids"
	"github.com/roach88/tabula/internal/querysql"
	"github.com/roach88/tabula/internal/store"
	"github.com/roach88/tabula/internal/testutil"
)

const clockStart = int64(1_700_000_000)

// post: autoincrement ids, timestamps, no locking.
type post struct {
	Model
	Title string
	Body  string
}

const postDDL = `CREATE TABLE post (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT,
	body TEXT,
	dateCreated INTEGER,
	dateModified INTEGER
)`

// doc: optimistic locking.
type doc struct {
	Model
	Title string
}

func (*doc) Configure(opts *config.Options) {
	opts.Locking = true
}

const docDDL = `CREATE TABLE doc (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT,
	version INTEGER NOT NULL DEFAULT 0,
	dateCreated INTEGER,
	dateModified INTEGER
)`

// tag: manual ids without locking and without an insert decision.
type tag struct {
	Model
	Name string
}

func (*tag) Configure(opts *config.Options) {
	opts.IDs = config.IDsManual
}

const tagDDL = `CREATE TABLE tag (id INTEGER PRIMARY KEY, name TEXT, dateCreated INTEGER, dateModified INTEGER)`

// ticket: manual ids with locking.
type ticket struct {
	Model
	Subject string
}

func (*ticket) Configure(opts *config.Options) {
	opts.IDs = config.IDsManual
	opts.Locking = true
	opts.Timestamps = false
}

const ticketDDL = `CREATE TABLE ticket (id INTEGER PRIMARY KEY, subject TEXT, version INTEGER NOT NULL)`

// setting: manual ids with an explicit insert decision.
type setting struct {
	Model
	Value string

	fresh bool
}

func (*setting) Configure(opts *config.Options) {
	opts.IDs = config.IDsManual
	opts.Timestamps = false
}

func (s *setting) ShouldInsertWhenSaved() bool { return s.fresh }

const settingDDL = `CREATE TABLE setting (id INTEGER PRIMARY KEY, value TEXT)`

// account: PHID primary key.
type account struct {
	Model
	Handle string

	gen ids.Generator
}

func (*account) Configure(opts *config.Options) {
	opts.IDs = config.IDsPHID
}

func (a *account) GeneratePHID() (string, error) {
	if a.gen == nil {
		return "", errors.New("no generator")
	}
	return a.gen.GeneratePHID()
}

const accountDDL = `CREATE TABLE account (
	phid TEXT PRIMARY KEY,
	handle TEXT,
	dateCreated INTEGER,
	dateModified INTEGER
)`

// member: autoincrement key plus auxiliary PHID.
type member struct {
	Model
	Name string
}

func (*member) Configure(opts *config.Options) {
	opts.AuxPHID = true
	opts.Timestamps = false
}

func (*member) GeneratePHID() (string, error) { return ids.NewPHID("USER") }

const memberDDL = `CREATE TABLE member (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, phid TEXT)`

// shout: autoincrement key configured in another case than its column.
type shout struct {
	Model
	Title string
}

func (*shout) Configure(opts *config.Options) {
	opts.IDKey = "ID"
	opts.Timestamps = false
}

const shoutDDL = `CREATE TABLE shout (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT)`

// brittle cannot be cloned; see TestLoadAll_CloneFailureIsReported.
type brittle struct {
	Model
	Title string
}

func (*brittle) TableName() string { return "post" }

// ghost: auxiliary PHID without a generator.
type ghost struct {
	Model
	Name string
}

func (*ghost) Configure(opts *config.Options) {
	opts.AuxPHID = true
	opts.Timestamps = false
}

// prefs is stored as an opaque native blob.
type prefs struct {
	Theme string   `msgpack:"theme"`
	Langs []string `msgpack:"langs"`
}

// blob: serialized columns and a transient field.
type blob struct {
	Model
	Data  map[string]int
	Prefs prefs
	Tags  []string
	Draft string
}

func (*blob) Configure(opts *config.Options) {
	opts.Timestamps = false
	opts.Serialization = codec.Spec{
		"data":  codec.JSON,
		"prefs": codec.Native,
		"tags":  codec.CBOR,
	}
}

func (*blob) TransientFields() []string { return []string{"draft"} }

const blobDDL = `CREATE TABLE blob (id INTEGER PRIMARY KEY AUTOINCREMENT, data TEXT, prefs BLOB, tags BLOB)`

// badFormat names a serialization format that does not exist.
type badFormat struct {
	Model
	Title string
}

func (*badFormat) TableName() string { return "post" }

func (*badFormat) Configure(opts *config.Options) {
	opts.Serialization = codec.Spec{"title": "xml"}
}

// event: no primary key.
type event struct {
	Model
	Name string
}

func (*event) Configure(opts *config.Options) {
	opts.NoIDKey = true
	opts.Timestamps = false
}

const eventDDL = `CREATE TABLE event (name TEXT)`

// hooked records lifecycle hook calls.
type hooked struct {
	Model
	Title string

	calls []string
	fail  error
}

func (*hooked) TableName() string { return "hooks" }

func (*hooked) Configure(opts *config.Options) {
	opts.Timestamps = false
}

func (h *hooked) BeforeSave(context.Context) error {
	h.calls = append(h.calls, "beforeSave")
	h.Title = strings.TrimSpace(h.Title)
	return h.fail
}

func (h *hooked) AfterWrite(context.Context) error {
	h.calls = append(h.calls, "afterWrite")
	return nil
}

func (h *hooked) BeforeDelete(context.Context) error {
	h.calls = append(h.calls, "beforeDelete")
	return nil
}

func (h *hooked) AfterDelete(context.Context) error {
	h.calls = append(h.calls, "afterDelete")
	return nil
}

func (h *hooked) AfterRead() error {
	h.calls = append(h.calls, "afterRead")
	return nil
}

const hookedDDL = `CREATE TABLE hooks (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT)`

// connected establishes its own connection.
type connected struct {
	Model
	Title string
}

func (*connected) TableName() string { return "post" }

var connectedFactory func(mode store.Mode) (store.Conn, error)

func (*connected) EstablishConnection(mode store.Mode) (store.Conn, error) {
	return connectedFactory(mode)
}

func newEngine(t *testing.T, ddl ...string) (*Engine, *store.Store) {
	t.Helper()
	s := testutil.OpenStore(t, ddl...)
	e := New(
		WithConn(s),
		WithClock(testutil.NewDeterministicClock(clockStart)),
		WithLogger(testutil.Logger()),
	)
	return e, s
}

// recordingConn is a Conn that records statements and answers with canned
// rows.
type recordingConn struct {
	dialect   querysql.Dialect
	exclusive bool
	shared    bool
	rows      []store.Row
	affected  int64
	statement []string
}

func (c *recordingConn) Query(_ context.Context, q string, _ ...any) ([]store.Row, error) {
	c.statement = append(c.statement, q)
	return c.rows, nil
}

func (c *recordingConn) Exec(_ context.Context, q string, _ ...any) (sql.Result, error) {
	c.statement = append(c.statement, q)
	return cannedResult{affected: c.affected}, nil
}

func (c *recordingConn) IsExclusiveReadLocking() bool { return c.exclusive }
func (c *recordingConn) IsSharedReadLocking() bool    { return c.shared }
func (c *recordingConn) Dialect() querysql.Dialect    { return c.dialect }

type cannedResult struct{ affected int64 }

func (r cannedResult) LastInsertId() (int64, error) { return 0, nil }
func (r cannedResult) RowsAffected() (int64, error) { return r.affected, nil }
