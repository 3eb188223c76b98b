package sharing

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GuestClaims is the payload embedded in the signed guest cookie. The album ID
// is bound into the signature so a credential for one album can never validate
// against another.
type GuestClaims struct {
	SessionToken string `json:"session_token"`
	AlbumID      uint   `json:"album_id"`
	jwt.RegisteredClaims
}

// CredentialSigner signs and verifies the tamper-evident guest credential
// handed back to the browser after password authentication.
type CredentialSigner struct {
	secret []byte
}

// NewCredentialSigner creates a signer keyed by the server secret.
func NewCredentialSigner(secret string) *CredentialSigner {
	return &CredentialSigner{secret: []byte(secret)}
}

// Sign produces a signed credential for the given session. The credential
// carries no expiry of its own: the session row is authoritative, and its
// sliding window would outlive any deadline baked in at issuance.
func (cs *CredentialSigner) Sign(sessionToken string, albumID uint) (string, error) {
	claims := &GuestClaims{
		SessionToken: sessionToken,
		AlbumID:      albumID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cs.secret)
}

// Verify parses and validates a credential string. Any failure (bad signature,
// malformed payload, empty claims) yields ok=false; callers treat that
// identically to no credential at all.
func (cs *CredentialSigner) Verify(credential string) (*GuestClaims, bool) {
	claims := &GuestClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cs.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	if claims.SessionToken == "" || claims.AlbumID == 0 {
		return nil, false
	}
	return claims, true
}
