// Package protoerr defines the structured error taxonomy shared by the codec,
// the verifier, and the message classifier.
package protoerr

import "errors"

// Kind is a stable category for programmatic error handling.
//
// The three trust-relevant axes are KindEnvelope (frame could not be decoded
// into a tagged message), KindIdentifier (stated id does not match the
// recomputed digest), and KindSignature (id matches, signature does not).
// Callers should branch on Kind/RuleID rather than matching error strings.
type Kind string

const (
	KindEnvelope   Kind = "Envelope"
	KindShape      Kind = "Shape"
	KindRecord     Kind = "Record"
	KindIdentifier Kind = "Identifier"
	KindSignature  Kind = "Signature"
	KindKey        Kind = "Key"
	KindInternal   Kind = "Internal"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g., NOSTR-ENV-001, NOSTR-ID-001) that names
// the violated rule. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns a structured error without a cause.
func New(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// Wrap returns a structured error carrying cause. A nil cause yields New.
func Wrap(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return New(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
