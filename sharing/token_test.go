package sharing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomTokenIsURLSafe(t *testing.T) {
	token, err := RandomToken(SharingTokenBytes)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, strings.ContainsAny(token, "+/= "), "token must be URL-safe without padding: %q", token)
}

func TestRandomTokenLengthScalesWithEntropy(t *testing.T) {
	short, err := RandomToken(ShortURLTokenBytes)
	require.NoError(t, err)
	long, err := RandomToken(SessionTokenBytes)
	require.NoError(t, err)
	assert.Greater(t, len(long), len(short))
}

func TestRandomTokenUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token, err := RandomToken(SessionTokenBytes)
		require.NoError(t, err)
		assert.False(t, seen[token], "generated a duplicate token")
		seen[token] = true
	}
}
