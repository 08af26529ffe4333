package keys

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/hkdf"
)

const roleInfoPrefix = "nostrwire-kms-lite-v1\x00role:"

// DeriveRoleSecret deterministically derives a role-specific secret key from a
// root secret key.
//
// The HKDF-SHA256 output stream feeds the same rejection sampling used by
// GenerateKeypair, so every derived key is a valid scalar.
func DeriveRoleSecret(root SecretKey, role string) (SecretKey, error) {
	if !root.Valid() {
		return SecretKey{}, ErrInvalidSecretKey
	}
	if err := CheckRole(role); err != nil {
		return SecretKey{}, err
	}
	stream := hkdf.New(sha256.New, root.Bytes(), nil, []byte(roleInfoPrefix+role))
	sk, _, err := GenerateKeypair(stream)
	if err != nil {
		return SecretKey{}, fmt.Errorf("keys: derive role %q: %w", role, err)
	}
	return sk, nil
}
