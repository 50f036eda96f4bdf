package dao

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabula/internal/config"
	"github.com/roach88/tabula/internal/daoerr"
	"github.com/roach88/tabula/internal/testutil"
)

type BlogEntry struct {
	Model
	Title string
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "post", TableName(&post{}))
	assert.Equal(t, "hooks", TableName(&hooked{}))
	assert.Equal(t, "post", TableName(&badFormat{}))
	assert.Equal(t, "blogentry", TableName(&BlogEntry{}))
}

func TestOptions_DeclarationThenOverrides(t *testing.T) {
	on := true
	e := New(
		WithLogger(testutil.Logger()),
		WithOverrides(map[string]config.Overrides{"post": {Locking: &on}}),
	)

	opts, err := e.Options(&post{})
	require.NoError(t, err)
	assert.True(t, opts.Locking, "file override")
	assert.True(t, opts.Timestamps)

	opts, err = e.Options(&doc{})
	require.NoError(t, err)
	assert.True(t, opts.Locking, "type declaration")
}

func TestOptions_FileDefaultsReachEveryTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  locking: true\ntables:\n  tag:\n    locking: false\n"), 0o644))
	f, err := config.Load(path)
	require.NoError(t, err)

	e := New(WithLogger(testutil.Logger()), WithFile(f))

	opts, err := e.Options(&post{})
	require.NoError(t, err)
	assert.True(t, opts.Locking, "post has no table entry")

	opts, err = e.Options(&tag{})
	require.NoError(t, err)
	assert.False(t, opts.Locking, "table entry wins over defaults")
}

func TestOptions_WithDefaults(t *testing.T) {
	off := false
	e := New(WithLogger(testutil.Logger()), WithDefaults(config.Overrides{Timestamps: &off}))

	opts, err := e.Options(&doc{})
	require.NoError(t, err)
	assert.False(t, opts.Timestamps)
	assert.True(t, opts.Locking, "declaration survives unrelated defaults")
}

func TestSchema_CachedPerEngine(t *testing.T) {
	e := New(WithLogger(testutil.Logger()))

	s1, err := e.Schema(&post{})
	require.NoError(t, err)
	s2, err := e.Schema(&post{Title: "other instance"})
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, []string{"title", "body", "id", "dateCreated", "dateModified"}, s1.Properties())
}

func TestConnection_MissingIsConfigurationError(t *testing.T) {
	e := New(WithLogger(testutil.Logger()))

	err := e.Insert(context.Background(), &post{Title: "x"})
	assert.True(t, daoerr.IsConfiguration(err))

	_, _, err = TableOf[post](e).Load(context.Background(), 1)
	assert.True(t, daoerr.IsConfiguration(err))
}

func TestState_Lifecycle(t *testing.T) {
	e, _ := newEngine(t, postDDL)
	ctx := context.Background()

	p := &post{Title: "x"}
	assert.Equal(t, StateNew, p.State())
	assert.Equal(t, "new", p.State().String())

	require.NoError(t, e.Save(ctx, p))
	assert.Equal(t, StatePersisted, p.State())

	require.NoError(t, e.Delete(ctx, p))
	assert.Equal(t, StateDeleted, p.State())
	assert.Equal(t, "deleted", p.State().String())
}

func TestDefaultEngine(t *testing.T) {
	e, _ := newEngine(t, postDDL)
	SetDefault(e)
	t.Cleanup(func() { SetDefault(nil) })
	ctx := context.Background()

	p := &post{Title: "via default"}
	require.NoError(t, Save(ctx, p))

	got, found, err := Load[post](ctx, p.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "via default", got.Title)

	res, err := LoadAllWhere[post](ctx, `"title" = ?`, "via default")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Len())

	one, found, err := LoadOneWhere[post](ctx, `"id" = ?`, p.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, p.ID, one.ID)

	title, err := Call(got, "getTitle")
	require.NoError(t, err)
	assert.Equal(t, "via default", title)

	require.NoError(t, Set(got, "title", "renamed"))
	require.NoError(t, Update(ctx, got))
	require.NoError(t, Reload(ctx, p))
	assert.Equal(t, "renamed", p.Title)

	require.NoError(t, Delete(ctx, p))
}

func TestDefault_CreatedLazily(t *testing.T) {
	SetDefault(nil)
	t.Cleanup(func() { SetDefault(nil) })

	e := Default()
	require.NotNil(t, e)
	assert.Same(t, e, Default())
}
