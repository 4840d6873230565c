package storage_test

import (
	"testing"

	"github.com/sectormesh/routing/identity"
	"github.com/sectormesh/routing/location"
	"github.com/sectormesh/routing/messages"
	"github.com/sectormesh/routing/storage"
	"github.com/sectormesh/routing/storage/testkit"
	"github.com/sectormesh/routing/xorname"
)

func TestMemory_Conformance(t *testing.T) {
	testkit.RunArchiveConformance(t, func(t *testing.T) storage.Archive {
		t.Helper()
		return storage.NewMemory()
	})
}

func TestMemory_RejectsImmutableViolation(t *testing.T) {
	// Two different payloads cannot share an ID through the public API, so
	// drive the check via idempotent re-put of identical bytes.
	m := storage.NewMemory()
	b := []byte("stable")
	id1, err := m.Put(b)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	id2, err := m.Put(b)
	if err != nil {
		t.Fatalf("re-Put: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("idempotent put changed the ID")
	}
	if m.Len() != 1 {
		t.Fatalf("Len = %d, want 1", m.Len())
	}
}

func TestMessageRoundTripThroughArchive(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = 0x5a
	}
	sender, err := identity.FromSeed(seed)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	dst := location.NodeDst(xorname.FromContent([]byte("receiver")))
	msg, err := messages.SingleSrc(sender, dst, nil, messages.UserMessage{Content: []byte("for the record")})
	if err != nil {
		t.Fatalf("SingleSrc: %v", err)
	}

	a := storage.NewMemory()
	id, err := storage.PutMessage(a, msg)
	if err != nil {
		t.Fatalf("PutMessage: %v", err)
	}

	// The archive ID is a pure function of the wire bytes.
	wantID, err := storage.MessageID(msg.ToBytes())
	if err != nil {
		t.Fatalf("MessageID: %v", err)
	}
	if id != wantID {
		t.Fatalf("archive ID mismatch: %s vs %s", id, wantID)
	}

	got, err := storage.GetMessage(a, id)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if !got.Equal(msg) {
		t.Fatalf("archived message changed")
	}
	if got.Hash() != msg.Hash() {
		t.Fatalf("hash changed through the archive")
	}
}

func TestMultiArchiveFallsBackInOrder(t *testing.T) {
	first := storage.NewMemory()
	second := storage.NewMemory()

	// Seed only the second backend.
	b := []byte("only in the fallback")
	id, err := second.Put(b)
	if err != nil {
		t.Fatalf("seed Put: %v", err)
	}

	m := storage.MultiArchive{Backends: []storage.Archive{first, second}}
	got, err := m.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(b) {
		t.Fatalf("payload mismatch")
	}
	if !m.Has(id) {
		t.Fatalf("Has: expected true via fallback")
	}

	// Writes land only on the first backend.
	id2, err := m.Put([]byte("fresh"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !first.Has(id2) {
		t.Fatalf("first backend missing the write")
	}
	if second.Has(id2) {
		t.Fatalf("second backend received a first-policy write")
	}
}

func TestReplicatingArchiveWritesEverywhere(t *testing.T) {
	a := storage.NewMemory()
	b := storage.NewMemory()
	r := storage.ReplicatingArchive{Backends: []storage.NamedArchive{
		{Name: "a", Archive: a},
		{Name: "b", Archive: b},
	}}

	id, perBackend, err := r.PutAll([]byte("replicate me"))
	if err != nil {
		t.Fatalf("PutAll: %v", err)
	}
	if len(perBackend) != 2 {
		t.Fatalf("per-backend map has %d entries", len(perBackend))
	}
	for name, got := range perBackend {
		if got != id {
			t.Fatalf("backend %q reported ID %s, want %s", name, got, id)
		}
	}
	if !a.Has(id) || !b.Has(id) {
		t.Fatalf("replicated object missing from a backend")
	}
}
