package sharing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialRoundTrip(t *testing.T) {
	signer := NewCredentialSigner("test-secret")

	credential, err := signer.Sign("abc123", 42)
	require.NoError(t, err)

	claims, ok := signer.Verify(credential)
	require.True(t, ok)
	assert.Equal(t, "abc123", claims.SessionToken)
	assert.Equal(t, uint(42), claims.AlbumID)
}

func TestTamperedCredentialIsRejected(t *testing.T) {
	signer := NewCredentialSigner("test-secret")

	credential, err := signer.Sign("abc123", 42)
	require.NoError(t, err)

	tampered := credential[:len(credential)-2] + "xx"
	_, ok := signer.Verify(tampered)
	assert.False(t, ok)
}

func TestCredentialSignedWithOtherSecretIsRejected(t *testing.T) {
	signer := NewCredentialSigner("test-secret")
	other := NewCredentialSigner("other-secret")

	credential, err := other.Sign("abc123", 42)
	require.NoError(t, err)

	_, ok := signer.Verify(credential)
	assert.False(t, ok)
}

func TestCredentialWithEmptyClaimsIsRejected(t *testing.T) {
	signer := NewCredentialSigner("test-secret")

	noToken, err := signer.Sign("", 42)
	require.NoError(t, err)
	_, ok := signer.Verify(noToken)
	assert.False(t, ok)

	noAlbum, err := signer.Sign("abc123", 0)
	require.NoError(t, err)
	_, ok = signer.Verify(noAlbum)
	assert.False(t, ok)
}

func TestGarbageCredentialIsRejected(t *testing.T) {
	signer := NewCredentialSigner("test-secret")

	for _, credential := range []string{"", "not-a-token", "a.b.c"} {
		_, ok := signer.Verify(credential)
		assert.False(t, ok, "credential %q must not verify", credential)
	}
}
