package messages

import (
	"bytes"
	"testing"

	"go.dedis.ch/kyber/v4"

	"github.com/sectormesh/routing/identity"
	"github.com/sectormesh/routing/location"
	"github.com/sectormesh/routing/section"
	"github.com/sectormesh/routing/xorname"
)

func seedOf(b byte) []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func mustID(t *testing.T, b byte) *identity.FullID {
	t.Helper()
	id, err := identity.FromSeed(seedOf(b))
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	return id
}

func mustKeySet(t *testing.T, threshold, n int, b byte) *section.KeySet {
	t.Helper()
	ks, err := section.GenerateKeySet(threshold, n, seedOf(b))
	if err != nil {
		t.Fatalf("GenerateKeySet: %v", err)
	}
	return ks
}

func mustPrefix(t *testing.T, s string) xorname.Prefix {
	t.Helper()
	p, err := xorname.ParsePrefix(s)
	if err != nil {
		t.Fatalf("ParsePrefix(%q): %v", s, err)
	}
	return p
}

func mustChain(t *testing.T, genesis kyber.Point) *section.ProofChain {
	t.Helper()
	c, err := section.NewProofChain(genesis)
	if err != nil {
		t.Fatalf("NewProofChain: %v", err)
	}
	return c
}

// sectionMsg deals the whole quorum in-process and finalizes a
// section-authority message signed by the chain's last key set.
func sectionMsg(t *testing.T, ks *section.KeySet, proof *section.ProofChain, prefix xorname.Prefix, dst location.DstLocation, dstKey kyber.Point, v Variant) *Message {
	t.Helper()
	signed, err := SerializeForSigning(dst, dstKey, v)
	if err != nil {
		t.Fatalf("SerializeForSigning: %v", err)
	}
	sig, err := ks.SignCollective(signed)
	if err != nil {
		t.Fatalf("SignCollective: %v", err)
	}
	m, err := NewSectionSigned(prefix, proof, sig, dst, dstKey, v)
	if err != nil {
		t.Fatalf("NewSectionSigned: %v", err)
	}
	return m
}

func TestNodeMessageRoundTrip(t *testing.T) {
	sender := mustID(t, 0x11)
	dst := location.NodeDst(xorname.FromContent([]byte("receiver")))
	m, err := SingleSrc(sender, dst, nil, UserMessage{Content: []byte("hello section")})
	if err != nil {
		t.Fatalf("SingleSrc: %v", err)
	}

	wire := m.ToBytes()
	got, err := FromBytes(wire)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !got.Equal(m) {
		t.Fatalf("round-tripped message differs: %s vs %s", got, m)
	}
	if got.Hash() != m.Hash() {
		t.Fatalf("hash changed across round trip")
	}
	if !got.Dst().Equal(dst) {
		t.Fatalf("dst = %s, want %s", got.Dst(), dst)
	}
	um, ok := got.Variant().(UserMessage)
	if !ok {
		t.Fatalf("variant = %T, want UserMessage", got.Variant())
	}
	if string(um.Content) != "hello section" {
		t.Fatalf("content = %q", um.Content)
	}
	na, ok := got.Src().(NodeAuthority)
	if !ok {
		t.Fatalf("src = %T, want NodeAuthority", got.Src())
	}
	if !na.PublicID.Equal(sender.Public()) {
		t.Fatalf("src identity changed across round trip")
	}
}

func TestNodeMessageVerifiesWithoutTrustTable(t *testing.T) {
	sender := mustID(t, 0x22)
	dst := location.SectionDst(xorname.FromContent([]byte("target")))
	m, err := SingleSrc(sender, dst, nil, Ping{})
	if err != nil {
		t.Fatalf("SingleSrc: %v", err)
	}
	status, err := m.Verify(nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if status != VerifyFull {
		t.Fatalf("status = %s, want Full", status)
	}
	if err := status.RequireFull(); err != nil {
		t.Fatalf("RequireFull: %v", err)
	}
}

func TestSigningBytesMatchPlainMessage(t *testing.T) {
	ks := mustKeySet(t, 2, 3, 0x33)
	dst := location.SectionDst(xorname.FromContent([]byte("dst")))
	dstKey := ks.PublicKey()
	v := UserMessage{Content: []byte("payload")}

	plain := PlainMessage{Dst: dst, DstKey: dstKey, Variant: v}
	fromPlain, err := plain.SigningBytes()
	if err != nil {
		t.Fatalf("SigningBytes: %v", err)
	}
	direct, err := SerializeForSigning(dst, dstKey, v)
	if err != nil {
		t.Fatalf("SerializeForSigning: %v", err)
	}
	if !bytes.Equal(fromPlain, direct) {
		t.Fatalf("plain signing bytes diverge from the canonical form")
	}
}

func TestSigningBytesExcludeSrc(t *testing.T) {
	dst := location.NodeDst(xorname.FromContent([]byte("dst")))
	v := UserMessage{Content: []byte("same payload")}

	a, err := SingleSrc(mustID(t, 0x41), dst, nil, v)
	if err != nil {
		t.Fatalf("SingleSrc a: %v", err)
	}
	b, err := SingleSrc(mustID(t, 0x42), dst, nil, v)
	if err != nil {
		t.Fatalf("SingleSrc b: %v", err)
	}
	if bytes.Equal(a.ToBytes(), b.ToBytes()) {
		t.Fatalf("wire bytes must differ for different signers")
	}

	sa, err := SerializeForSigning(a.Dst(), a.DstKey(), a.Variant())
	if err != nil {
		t.Fatalf("SerializeForSigning a: %v", err)
	}
	sb, err := SerializeForSigning(b.Dst(), b.DstKey(), b.Variant())
	if err != nil {
		t.Fatalf("SerializeForSigning b: %v", err)
	}
	if !bytes.Equal(sa, sb) {
		t.Fatalf("signing bytes must not depend on the src authority")
	}
}

func TestFromBytesRejectsTamper(t *testing.T) {
	sender := mustID(t, 0x55)
	dst := location.NodeDst(xorname.FromContent([]byte("dst")))
	m, err := SingleSrc(sender, dst, nil, UserMessage{Content: []byte("attack at dawn")})
	if err != nil {
		t.Fatalf("SingleSrc: %v", err)
	}
	wire := m.ToBytes()

	for i := range wire {
		mutated := append([]byte(nil), wire...)
		mutated[i] ^= 0xff
		if _, err := FromBytes(mutated); err == nil {
			t.Fatalf("byte %d: tampered message was accepted", i)
		}
	}
}

func TestSectionMessageAnchoredIsFull(t *testing.T) {
	ks := mustKeySet(t, 2, 3, 0x66)
	prefix := mustPrefix(t, "0")
	chain := mustChain(t, ks.PublicKey())
	dst := location.SectionDst(xorname.FromContent([]byte("dst")))
	m := sectionMsg(t, ks, chain, prefix, dst, nil, UserMessage{Content: []byte("elder consensus")})

	trusted := section.NewTrustedKeys([]section.TrustedKey{
		{Prefix: prefix, Key: ks.PublicKey()},
	})
	status, err := m.Verify(trusted)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if status != VerifyFull {
		t.Fatalf("status = %s, want Full", status)
	}

	// A root-prefix anchor covers every descendant section.
	rootTrusted := section.NewTrustedKeys([]section.TrustedKey{
		{Prefix: xorname.Prefix{}, Key: ks.PublicKey()},
	})
	status, err = m.Verify(rootTrusted)
	if err != nil {
		t.Fatalf("Verify with root anchor: %v", err)
	}
	if status != VerifyFull {
		t.Fatalf("status with root anchor = %s, want Full", status)
	}
}

func TestSectionMessageUnanchoredIsUnknown(t *testing.T) {
	ks := mustKeySet(t, 2, 3, 0x77)
	stranger := mustKeySet(t, 2, 3, 0x78)
	prefix := mustPrefix(t, "0")
	chain := mustChain(t, ks.PublicKey())
	dst := location.SectionDst(xorname.FromContent([]byte("dst")))
	m := sectionMsg(t, ks, chain, prefix, dst, nil, Ping{})

	status, err := m.Verify(nil)
	if err != nil {
		t.Fatalf("Verify with empty trust: %v", err)
	}
	if status != VerifyUnknown {
		t.Fatalf("status = %s, want Unknown", status)
	}

	trusted := section.NewTrustedKeys([]section.TrustedKey{
		{Prefix: prefix, Key: stranger.PublicKey()},
	})
	status, err = m.Verify(trusted)
	if err != nil {
		t.Fatalf("Verify with stranger key: %v", err)
	}
	if status != VerifyUnknown {
		t.Fatalf("status with stranger key = %s, want Unknown", status)
	}

	reqErr := status.RequireFull()
	if reqErr == nil {
		t.Fatalf("RequireFull accepted an unanchored message")
	}
	if !IsKind(reqErr, KindUntrusted) {
		t.Fatalf("RequireFull error kind: %v", reqErr)
	}
}

func TestIncompatibleAnchorIsIgnored(t *testing.T) {
	ks := mustKeySet(t, 2, 3, 0x88)
	prefix := mustPrefix(t, "0")
	chain := mustChain(t, ks.PublicKey())
	dst := location.SectionDst(xorname.FromContent([]byte("dst")))
	m := sectionMsg(t, ks, chain, prefix, dst, nil, Ping{})

	// The right key filed under a sibling prefix must not anchor this src.
	trusted := section.NewTrustedKeys([]section.TrustedKey{
		{Prefix: mustPrefix(t, "1"), Key: ks.PublicKey()},
	})
	status, err := m.Verify(trusted)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if status != VerifyUnknown {
		t.Fatalf("status = %s, want Unknown", status)
	}
}

func TestChainExtensionAnchorsOldKey(t *testing.T) {
	genesis := mustKeySet(t, 2, 3, 0x91)
	current := mustKeySet(t, 2, 3, 0x92)
	prefix := mustPrefix(t, "01")

	chain := mustChain(t, genesis.PublicKey())
	newKeyBytes, err := section.MarshalKey(current.PublicKey())
	if err != nil {
		t.Fatalf("MarshalKey: %v", err)
	}
	transition, err := genesis.SignCollective(newKeyBytes)
	if err != nil {
		t.Fatalf("SignCollective over transition: %v", err)
	}
	if err := chain.Extend(current.PublicKey(), transition); err != nil {
		t.Fatalf("Extend: %v", err)
	}

	dst := location.SectionDst(xorname.FromContent([]byte("dst")))
	m := sectionMsg(t, current, chain, prefix, dst, nil, UserMessage{Content: []byte("after churn")})

	wire := m.ToBytes()
	got, err := FromBytes(wire)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	// A node that only knows the genesis key still reaches Full: the chain
	// carries the signed transition from old key to new.
	trusted := section.NewTrustedKeys([]section.TrustedKey{
		{Prefix: prefix, Key: genesis.PublicKey()},
	})
	status, err := got.Verify(trusted)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if status != VerifyFull {
		t.Fatalf("status = %s, want Full", status)
	}
}

func TestBrokenChainLinkFailsSignature(t *testing.T) {
	genesis := mustKeySet(t, 2, 3, 0xa1)
	current := mustKeySet(t, 2, 3, 0xa2)
	prefix := mustPrefix(t, "0")

	// A chain whose transition was never signed by the genesis key. The
	// message signature under the last key is still valid, so construction
	// succeeds; only anchored verification inspects the links.
	forged, err := section.ProofChainFromParts(genesis.PublicKey(), []section.ProofLink{
		{Key: current.PublicKey(), Signature: bytes.Repeat([]byte{0x01}, 64)},
	})
	if err != nil {
		t.Fatalf("ProofChainFromParts: %v", err)
	}

	dst := location.SectionDst(xorname.FromContent([]byte("dst")))
	m := sectionMsg(t, current, forged, prefix, dst, nil, Ping{})

	_, err = m.Verify(section.NewTrustedKeys([]section.TrustedKey{
		{Prefix: prefix, Key: genesis.PublicKey()},
	}))
	if err == nil {
		t.Fatalf("forged chain link was accepted")
	}
	if !IsFailedSignature(err) {
		t.Fatalf("error kind: %v", err)
	}
}

func TestNewSectionSignedRejectsWrongKey(t *testing.T) {
	signer := mustKeySet(t, 2, 3, 0xb1)
	other := mustKeySet(t, 2, 3, 0xb2)
	prefix := mustPrefix(t, "0")
	chain := mustChain(t, other.PublicKey())
	dst := location.SectionDst(xorname.FromContent([]byte("dst")))

	signed, err := SerializeForSigning(dst, nil, Ping{})
	if err != nil {
		t.Fatalf("SerializeForSigning: %v", err)
	}
	sig, err := signer.SignCollective(signed)
	if err != nil {
		t.Fatalf("SignCollective: %v", err)
	}
	_, err = NewSectionSigned(prefix, chain, sig, dst, nil, Ping{})
	if err == nil {
		t.Fatalf("signature under a foreign key was accepted")
	}
	if !IsFailedSignature(err) {
		t.Fatalf("error kind: %v", err)
	}
}

func TestDstKeyRoundTrip(t *testing.T) {
	sender := mustID(t, 0xc1)
	ks := mustKeySet(t, 2, 3, 0xc2)
	dst := location.SectionDst(xorname.FromContent([]byte("dst")))

	withKey, err := SingleSrc(sender, dst, ks.PublicKey(), Ping{})
	if err != nil {
		t.Fatalf("SingleSrc with dst key: %v", err)
	}
	withoutKey, err := SingleSrc(sender, dst, nil, Ping{})
	if err != nil {
		t.Fatalf("SingleSrc without dst key: %v", err)
	}

	got, err := FromBytes(withKey.ToBytes())
	if err != nil {
		t.Fatalf("FromBytes with dst key: %v", err)
	}
	if got.DstKey() == nil || !section.KeyEqual(got.DstKey(), ks.PublicKey()) {
		t.Fatalf("dst key lost or changed across round trip")
	}

	got, err = FromBytes(withoutKey.ToBytes())
	if err != nil {
		t.Fatalf("FromBytes without dst key: %v", err)
	}
	if got.DstKey() != nil {
		t.Fatalf("absent dst key resurfaced as %v", got.DstKey())
	}

	// Presence of the dst key is covered by the signature.
	if bytes.Equal(withKey.ToBytes(), withoutKey.ToBytes()) {
		t.Fatalf("wire bytes must differ when dst key presence differs")
	}
}

func TestVariantsSurviveTheEnvelope(t *testing.T) {
	sender := mustID(t, 0xd1)
	dst := location.NodeDst(xorname.FromContent([]byte("dst")))
	joiner := xorname.FromContent([]byte("joiner"))

	variants := []Variant{
		Ping{},
		JoinRequest{Name: joiner, SectionKey: []byte{1, 2, 3}},
		BootstrapResponse{Addresses: []string{"10.0.0.1:7000", "10.0.0.2:7000"}},
		UserMessage{Content: []byte("opaque")},
	}
	for _, v := range variants {
		m, err := SingleSrc(sender, dst, nil, v)
		if err != nil {
			t.Fatalf("SingleSrc(%T): %v", v, err)
		}
		got, err := FromBytes(m.ToBytes())
		if err != nil {
			t.Fatalf("FromBytes(%T): %v", v, err)
		}
		if got.Variant().Kind() != v.Kind() {
			t.Fatalf("kind changed: %d vs %d", got.Variant().Kind(), v.Kind())
		}
		switch want := v.(type) {
		case JoinRequest:
			jr := got.Variant().(JoinRequest)
			if jr.Name != want.Name || !bytes.Equal(jr.SectionKey, want.SectionKey) {
				t.Fatalf("join request changed: %+v", jr)
			}
		case BootstrapResponse:
			br := got.Variant().(BootstrapResponse)
			if len(br.Addresses) != 2 || br.Addresses[0] != want.Addresses[0] {
				t.Fatalf("bootstrap response changed: %+v", br)
			}
		case UserMessage:
			um := got.Variant().(UserMessage)
			if !bytes.Equal(um.Content, want.Content) {
				t.Fatalf("user message changed: %q", um.Content)
			}
		}
	}
}

func TestHashComesFromExactWireBytes(t *testing.T) {
	sender := mustID(t, 0xe1)
	dst := location.NodeDst(xorname.FromContent([]byte("dst")))
	m, err := SingleSrc(sender, dst, nil, UserMessage{Content: []byte("dedup me")})
	if err != nil {
		t.Fatalf("SingleSrc: %v", err)
	}
	wire := m.ToBytes()
	if m.Hash() != HashOf(wire) {
		t.Fatalf("hash does not match the cached wire bytes")
	}
	got, err := FromBytes(wire)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got.Hash() != m.Hash() {
		t.Fatalf("hash differs between sender and receiver")
	}
	if !bytes.Equal(got.ToBytes(), wire) {
		t.Fatalf("received wire bytes were not preserved verbatim")
	}
}
