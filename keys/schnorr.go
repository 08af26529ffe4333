package keys

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"xdao.co/nostrwire/hexutil"
)

const (
	SecretKeySize = 32
	PublicKeySize = 32
	SignatureSize = 64
	MessageSize   = 32

	// maxScalarAttempts bounds rejection sampling; a uniform source fails a
	// single draw with probability below 2^-127.
	maxScalarAttempts = 64
)

var ErrInvalidSecretKey = errors.New("keys: invalid secret key")

// SecretKey is a secp256k1 secret scalar. The zero value holds no key.
type SecretKey struct {
	priv *btcec.PrivateKey
}

// GenerateKeypair draws a fresh secret key from rand and returns it with its
// x-only public key. rand must be a cryptographically secure source outside
// of tests. The only error is a failing reader.
func GenerateKeypair(rand io.Reader) (SecretKey, [PublicKeySize]byte, error) {
	if rand == nil {
		return SecretKey{}, [PublicKeySize]byte{}, errors.New("keys: nil randomness source")
	}
	var buf [SecretKeySize]byte
	for i := 0; i < maxScalarAttempts; i++ {
		if _, err := io.ReadFull(rand, buf[:]); err != nil {
			return SecretKey{}, [PublicKeySize]byte{}, fmt.Errorf("keys: read randomness: %w", err)
		}
		sk, err := secretKeyFromBytes(buf[:])
		if err != nil {
			continue
		}
		return sk, sk.PublicKey(), nil
	}
	return SecretKey{}, [PublicKeySize]byte{}, errors.New("keys: randomness source produced no valid scalar")
}

func secretKeyFromBytes(b []byte) (SecretKey, error) {
	if len(b) != SecretKeySize {
		return SecretKey{}, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidSecretKey, SecretKeySize, len(b))
	}
	var s btcec.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		return SecretKey{}, fmt.Errorf("%w: scalar out of range", ErrInvalidSecretKey)
	}
	priv, _ := btcec.PrivKeyFromBytes(b)
	return SecretKey{priv: priv}, nil
}

// ParseSecretKeyHex parses a 64-character hex secret key. Surrounding
// whitespace and a 0x prefix are tolerated for key files typed by hand.
func ParseSecretKeyHex(s string) (SecretKey, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.ToLower(s)
	b, err := hexutil.Decode32(s)
	if err != nil {
		return SecretKey{}, fmt.Errorf("%w: %v", ErrInvalidSecretKey, err)
	}
	return secretKeyFromBytes(b[:])
}

// Valid reports whether k holds a key.
func (k SecretKey) Valid() bool { return k.priv != nil }

// Bytes returns the 32-byte big-endian secret scalar.
func (k SecretKey) Bytes() []byte {
	if k.priv == nil {
		return nil
	}
	return k.priv.Serialize()
}

// Hex returns the lowercase hex secret.
func (k SecretKey) Hex() string { return hexutil.Encode(k.Bytes()) }

// PublicKey returns the x-only public key.
func (k SecretKey) PublicKey() [PublicKeySize]byte {
	var out [PublicKeySize]byte
	if k.priv == nil {
		return out
	}
	copy(out[:], schnorr.SerializePubKey(k.priv.PubKey()))
	return out
}

// Sign produces a BIP340 signature over the 32-byte msg. When rand is non-nil
// it supplies the 32 bytes of auxiliary randomness; a nil rand signs
// deterministically.
func (k SecretKey) Sign(msg [MessageSize]byte, rand io.Reader) ([SignatureSize]byte, error) {
	var out [SignatureSize]byte
	if k.priv == nil {
		return out, ErrInvalidSecretKey
	}
	var opts []schnorr.SignOption
	if rand != nil {
		var aux [32]byte
		if _, err := io.ReadFull(rand, aux[:]); err != nil {
			return out, fmt.Errorf("keys: read aux randomness: %w", err)
		}
		opts = append(opts, schnorr.CustomNonce(aux))
	}
	sig, err := schnorr.Sign(k.priv, msg[:], opts...)
	if err != nil {
		return out, fmt.Errorf("keys: schnorr sign: %w", err)
	}
	copy(out[:], sig.Serialize())
	return out, nil
}

// Verify reports whether sig is a valid BIP340 signature by the x-only key pub
// over the 32-byte message msg. msg is verified as given, not re-hashed.
//
// Inputs of the wrong length, public keys that are not on the curve, and
// signatures with out-of-range components all yield false.
func Verify(msg, sig, pub []byte) bool {
	if len(msg) != MessageSize || len(sig) != SignatureSize || len(pub) != PublicKeySize {
		return false
	}
	pk, err := schnorr.ParsePubKey(pub)
	if err != nil {
		return false
	}
	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return s.Verify(msg, pk)
}

// Signer binds a secret key to a randomness source for signing record ids.
type Signer struct {
	key  SecretKey
	rand io.Reader
}

// NewSigner returns a Signer for key. rand may be nil for deterministic
// signatures.
func NewSigner(key SecretKey, rand io.Reader) Signer {
	return Signer{key: key, rand: rand}
}

func (s Signer) PublicKey() [PublicKeySize]byte { return s.key.PublicKey() }

func (s Signer) Sign(id [MessageSize]byte) ([SignatureSize]byte, error) {
	return s.key.Sign(id, s.rand)
}
