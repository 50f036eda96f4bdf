package accessor

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabula/internal/config"
	"github.com/roach88/tabula/internal/daoerr"
	"github.com/roach88/tabula/internal/schema"
)

type note struct {
	UID     string `db:"uid"`
	Version int64  `db:"version,virtual"`
	Text    string
}

func noteSchema(t *testing.T, locking bool) *schema.Schema {
	t.Helper()
	opts := config.Defaults()
	opts.IDs = config.IDsManual
	opts.IDKey = "uid"
	opts.Timestamps = false
	opts.Locking = locking
	s, err := schema.Build(schema.Descriptor{Type: reflect.TypeOf(note{}), Table: "note", Options: opts})
	require.NoError(t, err)
	return s
}

func TestParse(t *testing.T) {
	s := noteSchema(t, false)

	kind, f, err := Parse(s, "getText")
	require.NoError(t, err)
	assert.Equal(t, Getter, kind)
	assert.Equal(t, "text", f.Name)

	kind, f, err = Parse(s, "SetTEXT")
	require.NoError(t, err)
	assert.Equal(t, Setter, kind)
	assert.Equal(t, "text", f.Name)

	kind, f, err = Parse(s, "getID")
	require.NoError(t, err)
	assert.Equal(t, Getter, kind)
	assert.Equal(t, "uid", f.Name)
}

func TestParse_Rejects(t *testing.T) {
	s := noteSchema(t, false)
	for _, method := range []string{"", "get", "putText", "getMissing", "getId"} {
		_, _, err := Parse(s, method)
		assert.True(t, daoerr.IsArgument(err), method)
	}
}

func TestInvoke(t *testing.T) {
	s := noteSchema(t, false)
	n := &note{Text: "hi"}
	rv := reflect.ValueOf(n)

	v, err := Invoke(s, rv, "getText")
	require.NoError(t, err)
	assert.Equal(t, "hi", v)

	v, err = Invoke(s, rv, "setID", "n-1")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, "n-1", n.UID)

	_, err = Invoke(s, rv, "getText", 1)
	assert.True(t, daoerr.IsArgument(err))
	_, err = Invoke(s, rv, "setText")
	assert.True(t, daoerr.IsArgument(err))
}

func TestSet_VersionGuard(t *testing.T) {
	n := &note{}
	rv := reflect.ValueOf(n)

	err := Set(noteSchema(t, true), rv, "version", int64(3))
	assert.True(t, daoerr.IsArgument(err))
	assert.Equal(t, int64(0), n.Version)

	// Without locking there is no version column at all.
	err = Set(noteSchema(t, false), rv, "version", int64(3))
	assert.True(t, daoerr.IsArgument(err))
}

func TestGet(t *testing.T) {
	s := noteSchema(t, true)
	n := &note{UID: "n-2", Version: 5}

	v, err := Get(s, reflect.ValueOf(n), "VERSION")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	v, err = Get(s, reflect.ValueOf(n), IDName)
	require.NoError(t, err)
	assert.Equal(t, "n-2", v)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "get", Getter.String())
	assert.Equal(t, "set", Setter.String())
	assert.Equal(t, 0, Getter.Arity())
	assert.Equal(t, 1, Setter.Arity())
}
