// Package cidutil names record content with IPFS CIDs (CIDv1, raw codec,
// sha2-256 multihash). The multihash digest of such a CID equals the record
// identifier.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256 hashes data and returns its CIDv1 string.
func CIDv1RawSHA256(data []byte) string {
	c, err := CIDv1RawSHA256CID(data)
	if err != nil {
		return ""
	}
	return c.String()
}

// CIDv1RawSHA256CID hashes data and returns its CIDv1.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// FromSHA256Digest wraps an existing sha2-256 digest without rehashing.
func FromSHA256Digest(digest [32]byte) (cid.Cid, error) {
	mh, err := multihash.Encode(digest[:], multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// SHA256Digest parses s and returns the raw sha2-256 digest it carries.
// Only CIDs with a sha2-256 multihash are accepted.
func SHA256Digest(s string) ([32]byte, error) {
	var out [32]byte
	c, err := cid.Decode(s)
	if err != nil {
		return out, err
	}
	dec, err := multihash.Decode(c.Hash())
	if err != nil {
		return out, err
	}
	if dec.Code != multihash.SHA2_256 || len(dec.Digest) != len(out) {
		return out, fmt.Errorf("cidutil: expected sha2-256 multihash, got code %#x length %d", dec.Code, len(dec.Digest))
	}
	copy(out[:], dec.Digest)
	return out, nil
}
