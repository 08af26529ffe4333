package event

import "xdao.co/nostrwire/cidutil"

// CID returns an IPFS-compatible CIDv1 (raw + sha2-256) over the canonical
// form. Its multihash digest is ComputeID, so the CID names the same content
// in a self-describing encoding.
func (e Event) CID() string {
	c, err := cidutil.FromSHA256Digest(e.ComputeID())
	if err != nil {
		return cidutil.CIDv1RawSHA256(e.Canonical())
	}
	return c.String()
}
