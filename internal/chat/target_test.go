// ABOUTME: Tests for target identifier classification.
// ABOUTME: Handles, numeric IDs, and rejection of everything else.

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargetHandle(t *testing.T) {
	target, err := ParseTarget("@durov")
	require.NoError(t, err)
	assert.True(t, target.IsHandle())
	assert.Equal(t, "durov", target.Handle)
	assert.Equal(t, "@durov", target.String())
}

func TestParseTargetNumeric(t *testing.T) {
	target, err := ParseTarget("1234567890")
	require.NoError(t, err)
	assert.False(t, target.IsHandle())
	assert.Equal(t, int64(1234567890), target.ID)
	assert.Equal(t, "1234567890", target.String())
}

func TestParseTargetNegativeID(t *testing.T) {
	// Legacy chat IDs are negative; they still classify as numeric.
	target, err := ParseTarget("-1001234567890")
	require.NoError(t, err)
	assert.False(t, target.IsHandle())
	assert.Equal(t, int64(-1001234567890), target.ID)
}

func TestParseTargetTrimsWhitespace(t *testing.T) {
	target, err := ParseTarget("  @durov  ")
	require.NoError(t, err)
	assert.Equal(t, "durov", target.Handle)
}

func TestParseTargetInvalid(t *testing.T) {
	cases := []string{"", "   ", "@", "durov", "12.5", "not a target", "https://t.me/durov"}
	for _, raw := range cases {
		_, err := ParseTarget(raw)
		assert.ErrorIs(t, err, ErrInvalidTarget, "input %q", raw)
	}
}

func TestTargetCacheKey(t *testing.T) {
	handle, err := ParseTarget("@Durov")
	require.NoError(t, err)
	assert.Equal(t, "@durov", handle.CacheKey())

	numeric, err := ParseTarget("42")
	require.NoError(t, err)
	assert.Equal(t, "id:42", numeric.CacheKey())
}
