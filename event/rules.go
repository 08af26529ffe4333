package event

import "xdao.co/nostrwire/protoerr"

// Rule is an explicit, named check over a record.
//
// ID must be stable across versions.
// Apply must be deterministic and side-effect free.
type Rule struct {
	ID    string
	Apply func(Event) error
}

func (r Rule) apply(e Event) error {
	if r.Apply == nil {
		return protoerr.New(protoerr.KindInternal, "NOSTR-INTERNAL-001", "nil rule Apply")
	}
	return r.Apply(e)
}

// ValidateRules runs rules in order, returning the first failure.
//
// Rule order is the evaluation order; keep it stable.
func ValidateRules(e Event, rules []Rule) error {
	for _, r := range rules {
		if err := r.apply(e); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRulesAll runs all rules in order, returning every violation in
// rule order.
func ValidateRulesAll(e Event, rules []Rule) []error {
	var out []error
	for _, r := range rules {
		if err := r.apply(e); err != nil {
			out = append(out, err)
		}
	}
	return out
}

// AuthenticityRules returns the rules a record must pass to be authentic:
// identifier integrity first, then the author's signature over that
// identifier.
func AuthenticityRules() []Rule {
	return []Rule{
		{ID: RuleIdentifier, Apply: CheckID},
		{ID: RuleSignature, Apply: CheckSignature},
	}
}
