package sharing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Token sizes in random bytes before URL-safe base64 encoding.
const (
	SharingTokenBytes  = 16 // unguessable album link token
	SessionTokenBytes  = 32 // guest session token
	ShortURLTokenBytes = 8  // compact short-link token
)

// RandomToken returns a cryptographically random, URL-safe token built from
// numBytes of entropy.
func RandomToken(numBytes int) (string, error) {
	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes for token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
