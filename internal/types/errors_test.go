package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkywardError_Error(t *testing.T) {
	err := NewError(MISSION_NOT_FOUND, "mission abc not found")
	assert.Equal(t, "[MISSION_NOT_FOUND] mission abc not found", err.Error())

	wrapped := WrapError(ARCHIVE_WRITE_FAILED, "save failed", fmt.Errorf("disk full"))
	assert.Equal(t, "[ARCHIVE_WRITE_FAILED] save failed: disk full", wrapped.Error())
}

func TestSkywardError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := WrapError(ARCHIVE_WRITE_FAILED, "save failed", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestSkywardError_IsMatchesByCode(t *testing.T) {
	err := NewError(GRAPH_BAD_CONDITION, "bad condition")

	assert.True(t, errors.Is(err, NewError(GRAPH_BAD_CONDITION, "different message")))
	assert.False(t, errors.Is(err, NewError(GRAPH_PARSE_FAILED, "other code")))
}

func TestSkywardError_Retryable(t *testing.T) {
	assert.False(t, NewError(CHANNEL_UNAVAILABLE, "down").Retryable)
	assert.True(t, NewRetryableError(CHANNEL_TIMEOUT, "slow").Retryable)
}

func TestSkywardError_AsThroughWrapping(t *testing.T) {
	inner := NewError(MISSION_NOT_FOUND, "gone")
	outer := fmt.Errorf("lookup: %w", inner)

	var serr *SkywardError
	require.True(t, errors.As(outer, &serr))
	assert.Equal(t, MISSION_NOT_FOUND, serr.Code)
}
