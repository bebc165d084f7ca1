package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID()
	require.NoError(t, id.Validate())
	assert.False(t, id.IsZero())
	assert.NotEqual(t, id, NewID())
}

func TestParseID(t *testing.T) {
	id := NewID()

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("")
	require.Error(t, err)

	_, err = ParseID("not-a-uuid")
	require.Error(t, err)
}

func TestID_Validate(t *testing.T) {
	assert.Error(t, ID("").Validate())
	assert.Error(t, ID("abc").Validate())
	assert.NoError(t, NewID().Validate())
}
