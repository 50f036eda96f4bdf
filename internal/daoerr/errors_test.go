package daoerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := Argument("post", "unknown field %q", "nope")
	assert.Equal(t, `ARGUMENT: unknown field "nope" (table=post)`, err.Error())

	wrapped := Wrap(CodeConfiguration, "", errors.New("boom"))
	assert.Equal(t, "CONFIGURATION: boom: boom", wrapped.Error())
}

func TestIsHelpers_MatchThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"configuration", Configuration("t", "x"), IsConfiguration},
		{"argument", Argument("t", "x"), IsArgument},
		{"cardinality", Cardinality("t", 2), IsCardinality},
		{"missing record", MissingRecord("t", false), IsMissingRecord},
		{"structural", Structural("t", "x"), IsStructural},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
			assert.True(t, tt.is(fmt.Errorf("outer: %w", tt.err)))
			assert.False(t, tt.is(errors.New("plain")))
		})
	}
}

func TestIsHelpers_DoNotCrossCodes(t *testing.T) {
	err := Cardinality("post", 3)
	assert.False(t, IsArgument(err))
	assert.False(t, IsMissingRecord(err))
	assert.Contains(t, err.Error(), "query returned 3")
}

func TestMissingRecord_CarriesLocking(t *testing.T) {
	stale := MissingRecord("post", true)
	assert.True(t, stale.Locking)
	assert.True(t, IsStale(stale))
	assert.Contains(t, stale.Error(), "stale")

	gone := MissingRecord("post", false)
	assert.False(t, IsStale(gone))
	assert.True(t, IsMissingRecord(gone))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(CodeArgument, "t", nil))

	cause := errors.New("cause")
	err := Wrap(CodeArgument, "t", cause)
	assert.True(t, IsArgument(err))
	assert.ErrorIs(t, err, cause)

	// Same code is not double-wrapped.
	orig := Argument("t", "x")
	assert.Same(t, orig, Wrap(CodeArgument, "t", orig))
}
