package event

import "xdao.co/nostrwire/protoerr"

// Signer signs record identifiers. keys.Signer implements it.
type Signer interface {
	PublicKey() [32]byte
	Sign(id [32]byte) ([64]byte, error)
}

// Draft holds the caller-supplied fields of a record that is not yet signed.
type Draft struct {
	CreatedAt int64
	Kind      int32
	Tags      Tags
	Content   string
}

// Finalize builds a signed record from d: the author key comes from s, the
// identifier is derived from the canonical form, and s signs the identifier.
// The result is checked with Authenticate before it is returned.
func Finalize(d Draft, s Signer) (Authentic, error) {
	if s == nil {
		return Authentic{}, protoerr.New(protoerr.KindKey, "NOSTR-KEY-001", "nil signer")
	}
	ev := Event{
		PubKey:    PubKey(s.PublicKey()),
		CreatedAt: d.CreatedAt,
		Kind:      d.Kind,
		Tags:      d.Tags.Clone(),
		Content:   d.Content,
	}
	if ev.Tags == nil {
		ev.Tags = Tags{}
	}
	ev.ID = ev.ComputeID()
	sig, err := s.Sign(ev.ID)
	if err != nil {
		return Authentic{}, protoerr.Wrap(protoerr.KindKey, "NOSTR-KEY-002", "signer failed", err)
	}
	ev.Sig = Signature(sig)
	return Authenticate(ev)
}
