package identity

import (
	"crypto/ed25519"
	"testing"
)

func seedOf(b byte) []byte {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = b
	}
	return seed
}

func TestSignVerify(t *testing.T) {
	id, err := FromSeed(seedOf(0xA1))
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	msg := []byte("signed payload")
	sig := id.Sign(msg)
	if !id.Public().Verify(msg, sig) {
		t.Fatalf("signature did not verify")
	}
	if id.Public().Verify([]byte("other payload"), sig) {
		t.Fatalf("signature verified for different message")
	}
	sig[0] ^= 0xff
	if id.Public().Verify(msg, sig) {
		t.Fatalf("tampered signature verified")
	}
}

func TestDeterministicSeedAndName(t *testing.T) {
	a, err := FromSeed(seedOf(0xB2))
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	b, err := FromSeed(seedOf(0xB2))
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	if !a.Public().Equal(b.Public()) {
		t.Fatalf("same seed produced different identities")
	}
	c, err := FromSeed(seedOf(0xB3))
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	if a.Public().Name() == c.Public().Name() {
		t.Fatalf("different seeds produced the same name")
	}
}

func TestNameDerivedFromKey(t *testing.T) {
	id, err := FromSeed(seedOf(0xC3))
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	rebuilt, err := NewPublicID(id.Public().Key())
	if err != nil {
		t.Fatalf("NewPublicID: %v", err)
	}
	if rebuilt.Name() != id.Public().Name() {
		t.Fatalf("name not a pure function of the public key")
	}
}

func TestStoreInitLoadRoundTrip(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	want, err := store.Init("node-1", seedOf(0xD4), false)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	got, err := store.Load("node-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Public().Equal(want.Public()) {
		t.Fatalf("loaded identity differs from stored one")
	}

	if _, err := store.Init("node-1", seedOf(0xD5), false); err == nil {
		t.Fatalf("expected second Init without overwrite to fail")
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 || names[0] != "node-1" {
		t.Fatalf("List: got %v", names)
	}
}

func TestCheckName(t *testing.T) {
	if err := CheckName("node_1-a"); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
	for _, bad := range []string{"", "a/b", "a b", "a.b"} {
		if err := CheckName(bad); err == nil {
			t.Fatalf("expected rejection of %q", bad)
		}
	}
}
