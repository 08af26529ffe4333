// Package compliance selects how a consumer treats records that fail
// authentication.
package compliance

import (
	"fmt"
	"strings"
)

// ComplianceMode selects how aggressively inbound records are rejected.
//
// Strict mode drops any record whose identifier or signature does not check
// out. Permissive mode keeps the classified message for inspection but never
// marks the record authentic.
type ComplianceMode int

const (
	Permissive ComplianceMode = iota
	Strict
)

func (m ComplianceMode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Permissive:
		return "permissive"
	default:
		return fmt.Sprintf("ComplianceMode(%d)", int(m))
	}
}

// ParseMode parses "strict" or "permissive" (case-insensitive).
func ParseMode(s string) (ComplianceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict, nil
	case "permissive", "":
		return Permissive, nil
	default:
		return Permissive, fmt.Errorf("unknown compliance mode %q", s)
	}
}

// DropsUnauthentic reports whether records that fail authentication are
// discarded rather than surfaced.
func (m ComplianceMode) DropsUnauthentic() bool { return m == Strict }
