package cidutil

import (
	"crypto/sha256"
	"testing"
)

func TestSHA256Digest_RoundTrip(t *testing.T) {
	data := []byte("canonical bytes")
	s := CIDv1RawSHA256(data)
	if s == "" {
		t.Fatalf("empty CID")
	}
	got, err := SHA256Digest(s)
	if err != nil {
		t.Fatalf("SHA256Digest: %v", err)
	}
	if got != sha256.Sum256(data) {
		t.Fatalf("digest mismatch")
	}

	c, err := CIDv1RawSHA256CID(data)
	if err != nil {
		t.Fatalf("CIDv1RawSHA256CID: %v", err)
	}
	if c.String() != s {
		t.Fatalf("string and Cid forms disagree: %s vs %s", c, s)
	}
}

func TestSHA256Digest_RejectsGarbage(t *testing.T) {
	if _, err := SHA256Digest("not-a-cid"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFromSHA256Digest_MatchesHashing(t *testing.T) {
	data := []byte(`[0,"ab",1,1,[],""]`)
	c, err := FromSHA256Digest(sha256.Sum256(data))
	if err != nil {
		t.Fatalf("FromSHA256Digest: %v", err)
	}
	if c.String() != CIDv1RawSHA256(data) {
		t.Fatalf("wrapped digest %s differs from hashed %s", c, CIDv1RawSHA256(data))
	}
}
