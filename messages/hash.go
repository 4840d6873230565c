package messages

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HashSize is the byte width of a message hash.
const HashSize = 32

// MessageHash is the content-addressed identity of a message: sha3-256 over
// its exact wire bytes.
//
// It is computed only after a message is structurally valid, and it is never
// an input to signature verification; external layers use it for
// deduplication, logging and relay-cycle detection.
type MessageHash [HashSize]byte

// HashOf digests the exact wire bytes of a message.
func HashOf(wire []byte) MessageHash {
	return MessageHash(sha3.Sum256(wire))
}

// String renders the short hex form used in logs.
func (h MessageHash) String() string {
	return hex.EncodeToString(h[:8])
}

// Hex renders the full hex form.
func (h MessageHash) Hex() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is unset.
func (h MessageHash) IsZero() bool {
	return h == MessageHash{}
}
