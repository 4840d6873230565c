// Package storage provides the message archive: an immutable,
// content-addressed store of wire messages used for audit and relay
// deduplication across restarts.
package storage

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/sectormesh/routing/messages"
)

// Archive is a minimal content-addressable store of wire messages.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - IDs MUST be derived from the exact bytes written.
// - Get MUST return ErrNotFound when the ID is absent.
type Archive interface {
	Put(wire []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// MessageID derives the archive ID for wire bytes: a CIDv1 with the raw
// multicodec and a sha2-256 multihash. Like the message hash, it is a
// function of the exact bytes, so archiving preserves wire identity.
func MessageID(wire []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(wire, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// PutMessage archives a finalized message's cached wire bytes.
func PutMessage(a Archive, m *messages.Message) (cid.Cid, error) {
	return a.Put(m.ToBytes())
}

// GetMessage retrieves and re-verifies an archived message. The embedded
// signature is checked again on the way out; a corrupted archive cannot
// hand back a message that never verified.
func GetMessage(a Archive, id cid.Cid) (*messages.Message, error) {
	wire, err := a.Get(id)
	if err != nil {
		return nil, err
	}
	return messages.FromBytes(wire)
}
