package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/tabula/internal/store"
)

// OpenStore opens a SQLite store in a temporary directory, runs ddl
// against it and closes it when the test ends.
func OpenStore(t testing.TB, ddl ...string) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	for _, stmt := range ddl {
		_, err := s.Exec(context.Background(), stmt)
		require.NoError(t, err, "ddl: %s", stmt)
	}
	return s
}

// Logger returns a logger that drops everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
