package messages

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers dispatch on Kind rather than matching error strings: routing
// needs to treat a malformed local message, a hard authenticity failure and
// an untrusted-but-valid message differently.
//
// NOTE: Error() strings are intentionally human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	// KindSerialize: local serialization failure while building a message.
	// Not a trust failure.
	KindSerialize Kind = "Serialize"
	// KindDeserialize: malformed incoming bytes. The message is discarded;
	// no authenticity claim was ever established.
	KindDeserialize Kind = "Deserialize"
	// KindSignature: hard authenticity failure. The claimed signer did not
	// produce these bytes, or a proof-chain link is broken. Always a hard
	// rejection, always logged.
	KindSignature Kind = "Signature"
	// KindUntrusted: the message verified as internally consistent but is
	// not anchored in local trust and the caller demanded full trust.
	KindUntrusted Kind = "Untrusted"
	// KindInternal: a protocol invariant that should be unbreakable was
	// broken. Logged and surfaced, never a panic.
	KindInternal Kind = "Internal"
)

// Error is the package's structured error type.
//
// RuleID is a stable identifier (e.g. MSG-SIG-401) naming the violated
// invariant. Message is for humans; do not match on it.
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

func newError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

func wrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
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

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}

// IsFailedSignature reports a hard authenticity failure.
func IsFailedSignature(err error) bool {
	return IsKind(err, KindSignature)
}
