// internal/circulation/override.go
package circulation

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Passcode is a salted Argon2id hash of the staff override secret.
type Passcode struct {
	Hash string
	Salt string
}

// Configured reports whether an override secret has been set up.
func (p Passcode) Configured() bool {
	return p.Hash != "" && p.Salt != ""
}

// HashPasscode generates a salted Argon2id hash of the passcode.
func HashPasscode(passcode string) (Passcode, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return Passcode{}, err
	}

	hash := argon2.IDKey([]byte(passcode), salt, 1, 64*1024, 4, 32)

	return Passcode{
		Hash: base64.StdEncoding.EncodeToString(hash),
		Salt: base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// Verify compares a passcode with the stored hash.
func (p Passcode) Verify(passcode string) (bool, error) {
	salt, err := base64.StdEncoding.DecodeString(p.Salt)
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	hash, err := base64.StdEncoding.DecodeString(p.Hash)
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	candidate := argon2.IDKey([]byte(passcode), salt, 1, 64*1024, 4, 32)

	return subtle.ConstantTimeCompare(hash, candidate) == 1, nil
}
