// Package hexutil encodes and decodes the fixed-width lowercase hex strings
// used for identifiers, keys, and signatures on the wire.
package hexutil

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrLength    = errors.New("hexutil: wrong length")
	ErrUppercase = errors.New("hexutil: uppercase hex is not canonical")
	ErrSyntax    = errors.New("hexutil: invalid hex character")
)

// Encode returns the lowercase hex encoding of b.
func Encode(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeFixed decodes s into dst. s must be exactly 2*len(dst) lowercase hex
// characters; anything else is rejected without touching dst.
func DecodeFixed(dst []byte, s string) error {
	if len(s) != 2*len(dst) {
		return fmt.Errorf("%w: want %d hex chars, got %d", ErrLength, 2*len(dst), len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
			return fmt.Errorf("%w at offset %d", ErrUppercase, i)
		default:
			return fmt.Errorf("%w %q at offset %d", ErrSyntax, c, i)
		}
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	copy(dst, buf)
	return nil
}

// Decode32 decodes a 64-character lowercase hex string.
func Decode32(s string) ([32]byte, error) {
	var out [32]byte
	err := DecodeFixed(out[:], s)
	return out, err
}

// Decode64 decodes a 128-character lowercase hex string.
func Decode64(s string) ([64]byte, error) {
	var out [64]byte
	err := DecodeFixed(out[:], s)
	return out, err
}
