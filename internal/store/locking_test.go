package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabula/internal/querysql"
)

func TestExclusiveReadLocking_Nests(t *testing.T) {
	s := openTest(t)

	require.NoError(t, s.BeginExclusiveReadLocking())
	require.NoError(t, s.BeginExclusiveReadLocking())
	assert.True(t, s.IsExclusiveReadLocking())
	assert.Equal(t, querysql.LockExclusive, LockMode(s))

	require.NoError(t, s.EndExclusiveReadLocking())
	assert.True(t, s.IsExclusiveReadLocking(), "still held once")

	require.NoError(t, s.EndExclusiveReadLocking())
	assert.False(t, s.IsExclusiveReadLocking())
	assert.Equal(t, querysql.LockNone, LockMode(s))
}

func TestSharedReadLocking(t *testing.T) {
	s := openTest(t)

	require.NoError(t, s.BeginSharedReadLocking())
	assert.True(t, s.IsSharedReadLocking())
	assert.Equal(t, querysql.LockShared, LockMode(s))

	require.NoError(t, s.EndSharedReadLocking())
	assert.False(t, s.IsSharedReadLocking())
}

func TestReadLocking_ModesExcludeEachOther(t *testing.T) {
	s := openTest(t)

	require.NoError(t, s.BeginSharedReadLocking())
	assert.ErrorIs(t, s.BeginExclusiveReadLocking(), ErrLockModeConflict)
	require.NoError(t, s.EndSharedReadLocking())

	require.NoError(t, s.BeginExclusiveReadLocking())
	assert.ErrorIs(t, s.BeginSharedReadLocking(), ErrLockModeConflict)
}

func TestReadLocking_EndWithoutBegin(t *testing.T) {
	s := openTest(t)
	assert.ErrorIs(t, s.EndExclusiveReadLocking(), ErrLockNotHeld)
	assert.ErrorIs(t, s.EndSharedReadLocking(), ErrLockNotHeld)
}
