package event

import (
	"bytes"
	"crypto/sha256"

	"xdao.co/nostrwire/canonjson"
	"xdao.co/nostrwire/protoerr"
)

// RuleIdentifier names the identifier-integrity rule.
const RuleIdentifier = "NOSTR-ID-001"

// Canonicalize is the single canonicalization choke point for records.
//
// It returns the compact JSON text
//
//	[0,"<pubkey hex>",<created_at>,<kind>,<tags>,"<content>"]
//
// whose SHA-256 digest is the record identifier. The leading 0 is a format
// marker. Output is byte-identical for field-equal inputs.
func Canonicalize(pub PubKey, createdAt int64, kind int32, tags Tags, content string) []byte {
	dst := make([]byte, 0, 96+len(content))
	dst = append(dst, `[0,`...)
	dst = canonjson.AppendString(dst, pub.String())
	dst = append(dst, ',')
	dst = canonjson.AppendInt(dst, createdAt)
	dst = append(dst, ',')
	dst = canonjson.AppendInt(dst, int64(kind))
	dst = append(dst, ',')
	dst = canonjson.AppendStringMatrix(dst, tags.matrix())
	dst = append(dst, ',')
	dst = canonjson.AppendString(dst, content)
	return append(dst, ']')
}

// DeriveID returns SHA-256 of the canonical form.
func DeriveID(pub PubKey, createdAt int64, kind int32, tags Tags, content string) ID {
	return sha256.Sum256(Canonicalize(pub, createdAt, kind, tags, content))
}

// Canonical returns the canonical form of e. The stated ID and Sig do not
// participate.
func (e Event) Canonical() []byte {
	return Canonicalize(e.PubKey, e.CreatedAt, e.Kind, e.Tags, e.Content)
}

// ComputeID recomputes the identifier from e's own fields.
func (e Event) ComputeID() ID {
	return sha256.Sum256(e.Canonical())
}

// ValidateID reports whether e's stated identifier equals the recomputed one.
func ValidateID(e Event) bool {
	computed := e.ComputeID()
	return bytes.Equal(computed[:], e.ID[:])
}

// CheckID is ValidateID with a structured KindIdentifier error on mismatch.
func CheckID(e Event) error {
	computed := e.ComputeID()
	if computed != e.ID {
		return protoerr.New(protoerr.KindIdentifier, RuleIdentifier,
			"identifier mismatch: stated "+e.ID.String()+", computed "+computed.String())
	}
	return nil
}
