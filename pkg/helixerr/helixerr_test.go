package helixerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(NotFound, "node missing").WithID("abc123")
	assert.Contains(t, err.Error(), "NotFound")
	assert.Contains(t, err.Error(), "abc123")
}

func TestIs(t *testing.T) {
	err := Wrap(StorageError, errors.New("disk full"), "write failed")
	assert.True(t, Is(err, StorageError))
	assert.False(t, Is(err, ValueError))

	var he *Error
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "disk full", he.Unwrap().Error())
}

func TestIsNonHelixError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), NotFound))
}
