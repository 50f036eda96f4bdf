package querysql

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func render(stmts ...Statement) []byte {
	var b strings.Builder
	for _, s := range stmts {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func TestStatements_SQLite(t *testing.T) {
	b := NewBuilder(nil, "post")

	got := render(
		b.Select("", nil, LockNone),
		b.Select(`"title" = ?`, []any{"hello"}, LockExclusive),
		b.Select(b.KeyCondition("id", "", false), []any{int64(7)}, LockNone),
		b.Select(b.KeyCondition("id", "version", true), []any{int64(7), int64(2)}, LockNone),
		b.Insert(Insert,
			[]string{"id", "title", "body", "dateCreated"},
			map[string]any{"title": "hi", "body": "b", "dateCreated": int64(10)}),
		b.Insert(Replace, nil, nil),
		b.Update(
			[]string{"id", "title", "version"},
			map[string]any{"id": int64(7), "title": "t", "version": int64(0)},
			"id", int64(7), "version", 3),
		b.Update(
			[]string{"id", "title"},
			map[string]any{"id": int64(7), "title": "t"},
			"id", int64(7), "", 0),
		b.Update([]string{"id"}, map[string]any{"id": int64(7)}, "id", int64(7), "", 0),
		b.Delete("id", int64(7)),
	)

	golden(t).Assert(t, "sqlite", got)
}

func TestStatements_MySQL(t *testing.T) {
	b := NewBuilder(MySQL, "post")

	got := render(
		b.Select("`title` = ?", []any{"x"}, LockExclusive),
		b.Select("", nil, LockShared),
		b.Update(
			[]string{"phid", "title", "version"},
			map[string]any{"phid": "PHID-POST-a", "title": "t", "version": int64(4)},
			"phid", "PHID-POST-a", "version", 4),
		b.Delete("phid", "PHID-POST-a"),
	)

	golden(t).Assert(t, "mysql", got)
}

func TestSelect_ArgsAreCopied(t *testing.T) {
	args := []any{"a"}
	stmt := NewBuilder(SQLite, "post").Select(`"title" = ?`, args, LockNone)
	args[0] = "b"
	assert.Equal(t, []any{"a"}, stmt.Args)
}

func TestValuesNeverInterpolated(t *testing.T) {
	b := NewBuilder(SQLite, "post")
	evil := "x'); DROP TABLE post; --"

	ins := b.Insert(Insert, []string{"title"}, map[string]any{"title": evil})
	assert.NotContains(t, ins.SQL, evil)
	assert.Equal(t, []any{evil}, ins.Args)

	upd := b.Update([]string{"title"}, map[string]any{"title": evil}, "id", int64(1), "", 0)
	assert.NotContains(t, upd.SQL, evil)
	assert.Equal(t, []any{evil, int64(1)}, upd.Args)
}

func TestQuoteIdent_EscapesQuotes(t *testing.T) {
	assert.Equal(t, `"a""b"`, SQLite.QuoteIdent(`a"b`))
	assert.Equal(t, "`a``b`", MySQL.QuoteIdent("a`b"))
}

func TestLockClause(t *testing.T) {
	tests := []struct {
		dialect Dialect
		mode    LockMode
		want    string
	}{
		{SQLite, LockNone, ""},
		{SQLite, LockExclusive, ""},
		{SQLite, LockShared, ""},
		{MySQL, LockNone, ""},
		{MySQL, LockExclusive, " FOR UPDATE"},
		{MySQL, LockShared, " LOCK IN SHARE MODE"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.Name()+"/"+tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.LockClause(tt.mode))
		})
	}
}
