package messages

import (
	"go.dedis.ch/kyber/v4"

	"github.com/sectormesh/routing/identity"
	"github.com/sectormesh/routing/location"
	"github.com/sectormesh/routing/section"
	"github.com/sectormesh/routing/xorname"
)

// SrcAuthority is the proof of origin attached to a message. It is a closed
// union: a single node vouching for itself, or a section's collective
// signature backed by a proof chain.
//
// The authority is not part of the canonical signing bytes. It is all
// verifiable on its own: the signature either validates against a key we
// can anchor or it does not.
type SrcAuthority interface {
	SrcLocation() location.SrcLocation
	sealedSrc()
}

// NodeAuthority is a single node's claim: its public identity and its
// signature over the canonical signing bytes.
type NodeAuthority struct {
	PublicID  identity.PublicID
	Signature []byte
}

func (a NodeAuthority) SrcLocation() location.SrcLocation {
	return location.NodeSrc(a.PublicID.Name())
}

func (NodeAuthority) sealedSrc() {}

// SectionAuthority is a section's claim: the section prefix, the
// threshold-combined collective signature over the canonical signing
// bytes, and the proof chain whose last key produced that signature.
type SectionAuthority struct {
	Prefix    xorname.Prefix
	Signature []byte
	Proof     *section.ProofChain
}

func (a SectionAuthority) SrcLocation() location.SrcLocation {
	return location.SectionSrc(a.Prefix)
}

func (SectionAuthority) sealedSrc() {}

// verifySrcAuthority is the single verification entry point, dispatching on
// the authority tag.
//
// Outcomes:
// - Full: the signature validates and (for sections) the proof chain is
//   anchored in a locally trusted key.
// - Unknown: the section signature and chain are internally consistent but
//   no trusted key appears anywhere in the chain's ancestry. The message
//   must be relayed, not acted upon and not discarded.
// - Signature-kind error: the claimed signer did not produce these bytes,
//   or a chain link is broken. Hard rejection.
func verifySrcAuthority(src SrcAuthority, dst location.DstLocation, dstKey kyber.Point, v Variant, trusted section.TrustedKeys) (VerifyStatus, error) {
	signed, err := SerializeForSigning(dst, dstKey, v)
	if err != nil {
		return 0, wrapError(KindInternal, "MSG-INT-001", "canonical signing bytes unavailable for a finalized message", err)
	}

	switch src := src.(type) {
	case NodeAuthority:
		// An individual node's claim about itself needs no chain.
		if !src.PublicID.Verify(signed, src.Signature) {
			return 0, newError(KindSignature, "MSG-SIG-401", "node signature did not verify")
		}
		return VerifyFull, nil

	case SectionAuthority:
		if src.Proof == nil {
			return 0, newError(KindSignature, "MSG-SIG-410", "section authority without proof chain")
		}
		// The chain's last key must be the key that actually signed this
		// message; this is checked, not assumed.
		if err := section.VerifyCollective(src.Proof.LastKey(), signed, src.Signature); err != nil {
			return 0, wrapError(KindSignature, "MSG-SIG-402", "section signature did not verify under the chain's last key", err)
		}
		if err := src.Proof.SelfVerify(); err != nil {
			return 0, wrapError(KindSignature, "MSG-SIG-403", "proof chain link did not verify", err)
		}
		// Anchor the chain in local trust, most specific prefix first.
		for _, anchor := range trusted.Anchors(src.Prefix) {
			if src.Proof.HasKey(anchor.Key) {
				return VerifyFull, nil
			}
		}
		// Internally consistent, but we do not know this section's key
		// lineage yet.
		return VerifyUnknown, nil

	default:
		return 0, newError(KindSignature, "MSG-SIG-499", "unrecognized src authority")
	}
}
