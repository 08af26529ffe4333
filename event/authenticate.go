package event

import (
	"xdao.co/nostrwire/keys"
	"xdao.co/nostrwire/protoerr"
)

// RuleSignature names the signature rule.
const RuleSignature = "NOSTR-SIG-001"

// Authentic is a record whose identifier matches its canonical form and whose
// signature verifies against its author key. It can only be obtained from
// Authenticate or Finalize; the zero value is not authentic.
type Authentic struct {
	ev Event
	ok bool
}

// Event returns a copy of the authenticated record.
func (a Authentic) Event() Event {
	ev := a.ev
	ev.Tags = a.ev.Tags.Clone()
	return ev
}

// Valid reports whether a came from a successful authentication.
func (a Authentic) Valid() bool { return a.ok }

func (a Authentic) ID() ID { return a.ev.ID }
func (a Authentic) PubKey() PubKey { return a.ev.PubKey }

// CheckSignature verifies e.Sig over the stated identifier with e.PubKey.
// It does not recompute the identifier; Authenticate runs CheckID first.
func CheckSignature(e Event) error {
	if !keys.Verify(e.ID[:], e.Sig[:], e.PubKey[:]) {
		return protoerr.New(protoerr.KindSignature, RuleSignature, "signature invalid for pubkey "+e.PubKey.String())
	}
	return nil
}

// Authenticate runs the authenticity rules in order. A KindIdentifier error
// means the record does not hash to its stated id; a KindSignature error
// means the id is consistent but the signature does not verify.
func Authenticate(e Event) (Authentic, error) {
	if err := ValidateRules(e, AuthenticityRules()); err != nil {
		return Authentic{}, err
	}
	e.Tags = e.Tags.Clone()
	return Authentic{ev: e, ok: true}, nil
}

// Diagnose runs every authenticity rule and returns all failures.
func Diagnose(e Event) []error {
	return ValidateRulesAll(e, AuthenticityRules())
}
