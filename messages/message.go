// Package messages implements the signed message envelope at the core of
// section routing: canonical signing bytes, wire serialization, the
// dual-path source authority, and the verification engine that decides
// whether an incoming message is fully trusted, unknown-but-plausible, or
// invalid.
package messages

import (
	"fmt"

	"go.dedis.ch/kyber/v4"

	"github.com/sectormesh/routing/identity"
	"github.com/sectormesh/routing/location"
	"github.com/sectormesh/routing/section"
	"github.com/sectormesh/routing/xorname"
)

// Message is a finalized, signed envelope.
//
// Invariants:
// - serialized and hash are set together at finalization and consistent
//   with (dst, src, variant, dstKey)
// - serialized is a cached rendering, never recomputed, never trusted as
//   the source of truth for the fields
// - a Message is immutable after construction; interaction is via
//   read-only accessors
type Message struct {
	dst     location.DstLocation
	src     SrcAuthority
	variant Variant
	// dstKey is the sender's claimed knowledge of the destination's
	// current collective key; nil when the sender claims none.
	dstKey kyber.Point

	serialized []byte
	hash       MessageHash
}

// SingleSrc creates a message signed by a single node.
//
// Failure here is local only (a payload that cannot be serialized), never
// a trust failure.
func SingleSrc(id *identity.FullID, dst location.DstLocation, dstKey kyber.Point, v Variant) (*Message, error) {
	signed, err := SerializeForSigning(dst, dstKey, v)
	if err != nil {
		return nil, wrapError(KindSerialize, "MSG-SER-101", "cannot serialize message for signing", err)
	}
	src := NodeAuthority{PublicID: id.Public(), Signature: id.Sign(signed)}
	return newSigned(src, dst, dstKey, v)
}

// NewSectionSigned creates a section-authority message from an already
// combined collective signature. Used by the signature accumulator once a
// quorum of shares is reached.
//
// The proof chain's last key must be the key the signature verifies under;
// this is enforced here rather than assumed downstream.
func NewSectionSigned(prefix xorname.Prefix, proof *section.ProofChain, collectiveSig []byte, dst location.DstLocation, dstKey kyber.Point, v Variant) (*Message, error) {
	if proof == nil {
		return nil, newError(KindInternal, "MSG-INT-010", "section message without proof chain")
	}
	signed, err := SerializeForSigning(dst, dstKey, v)
	if err != nil {
		return nil, wrapError(KindSerialize, "MSG-SER-101", "cannot serialize message for signing", err)
	}
	if err := section.VerifyCollective(proof.LastKey(), signed, collectiveSig); err != nil {
		return nil, wrapError(KindSignature, "MSG-SIG-402", "collective signature does not verify under the chain's last key", err)
	}
	src := SectionAuthority{Prefix: prefix, Signature: collectiveSig, Proof: proof.Clone()}
	return newSigned(src, dst, dstKey, v)
}

// newSigned finalizes an envelope whose signature is already known valid:
// it renders the wire bytes once and caches them with their hash.
func newSigned(src SrcAuthority, dst location.DstLocation, dstKey kyber.Point, v Variant) (*Message, error) {
	wire, err := encodeWire(dst, src, v, dstKey)
	if err != nil {
		return nil, wrapError(KindSerialize, "MSG-SER-102", "cannot serialize message for the wire", err)
	}
	return &Message{
		dst:        dst,
		src:        src,
		variant:    v,
		dstKey:     dstKey,
		serialized: wire,
		hash:       HashOf(wire),
	}, nil
}

// FromBytes deserializes a received message and verifies its embedded
// signature before accepting it.
//
// The input bytes are cached verbatim as the wire form and the hash is
// computed from those exact bytes, never from a re-serialization; wire
// identity stays bit-for-bit and serialization ambiguity cannot be used to
// split a message's identity.
//
// A signature mismatch is a hard rejection: the claimed signer did not
// produce these bytes.
func FromBytes(b []byte) (*Message, error) {
	dec, err := decodeWire(b)
	if err != nil {
		return nil, wrapError(KindDeserialize, "MSG-DES-201", fmt.Sprintf("cannot deserialize %d-byte message", len(b)), err)
	}
	signed, err := SerializeForSigning(dec.dst, dec.dstKey, dec.variant)
	if err != nil {
		return nil, wrapError(KindDeserialize, "MSG-DES-202", "cannot re-derive signing bytes", err)
	}

	switch src := dec.src.(type) {
	case NodeAuthority:
		if !src.PublicID.Verify(signed, src.Signature) {
			return nil, newError(KindSignature, "MSG-SIG-401", "node signature did not verify")
		}
	case SectionAuthority:
		if err := section.VerifyCollective(src.Proof.LastKey(), signed, src.Signature); err != nil {
			return nil, wrapError(KindSignature, "MSG-SIG-402", "section signature did not verify under the chain's last key", err)
		}
	default:
		return nil, newError(KindSignature, "MSG-SIG-499", "unrecognized src authority")
	}

	wire := append([]byte(nil), b...)
	return &Message{
		dst:        dec.dst,
		src:        dec.src,
		variant:    dec.variant,
		dstKey:     dec.dstKey,
		serialized: wire,
		hash:       HashOf(wire),
	}, nil
}

// ToBytes returns the cached wire bytes verbatim. It never reconstructs.
func (m *Message) ToBytes() []byte {
	return append([]byte(nil), m.serialized...)
}

// Verify decides this message's trust status against a snapshot of the
// receiver's trusted section keys.
func (m *Message) Verify(trusted section.TrustedKeys) (VerifyStatus, error) {
	return verifySrcAuthority(m.src, m.dst, m.dstKey, m.variant, trusted)
}

// Dst returns the destination location.
func (m *Message) Dst() location.DstLocation {
	return m.dst
}

// Src returns the source authority.
func (m *Message) Src() SrcAuthority {
	return m.src
}

// SrcLocation returns where the message claims to come from.
func (m *Message) SrcLocation() location.SrcLocation {
	return m.src.SrcLocation()
}

// Variant returns the payload.
func (m *Message) Variant() Variant {
	return m.variant
}

// DstKey returns the sender's claimed destination key, or nil.
func (m *Message) DstKey() kyber.Point {
	return m.dstKey
}

// Hash returns the content hash of the wire bytes.
func (m *Message) Hash() MessageHash {
	return m.hash
}

// Equal reports whether both messages have identical wire bytes.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.hash == other.hash && string(m.serialized) == string(other.serialized)
}

// String renders a debug summary; payload content and signatures are
// omitted.
func (m *Message) String() string {
	return fmt.Sprintf("Message{src: %s, dst: %s, variant: %d, hash: %s}",
		m.src.SrcLocation(), m.dst, m.variant.Kind(), m.hash)
}

// VerifyStatus is the trust outcome of verification.
type VerifyStatus int

const (
	// VerifyFull: the message is fully verified and anchored in local
	// trust.
	VerifyFull VerifyStatus = iota + 1
	// VerifyUnknown: the message is internally self-consistent but its
	// proof is not anchored in anything we trust. It should be relayed to
	// nodes with deeper knowledge, not acted upon and not discarded.
	VerifyUnknown
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifyFull:
		return "Full"
	case VerifyUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("VerifyStatus(%d)", int(s))
	}
}

// RequireFull converts Unknown into an Untrusted-kind error for callers
// that must not act on unanchored messages.
func (s VerifyStatus) RequireFull() error {
	switch s {
	case VerifyFull:
		return nil
	case VerifyUnknown:
		return newError(KindUntrusted, "MSG-TRUST-301", "message proof is not anchored in local trust")
	default:
		return newError(KindInternal, "MSG-INT-002", fmt.Sprintf("invalid verify status %d", int(s)))
	}
}

// MessageStatus is how routing dispatch classifies an incoming message.
type MessageStatus int

const (
	// StatusUseful: handle the message.
	StatusUseful MessageStatus = iota + 1
	// StatusUseless: discard the message.
	StatusUseless
	// StatusUntrusted: trust cannot be established; relay instead of
	// acting.
	StatusUntrusted
	// StatusUnknown: we are not in the right state to handle it (e.g. it
	// needs an elder and we are not one).
	StatusUnknown
)
