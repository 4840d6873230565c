// Package identity provides node identities: an Ed25519 keypair plus the
// network name derived from the public key.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/sectormesh/routing/xorname"
)

// PublicID identifies a node: its public signing key and the network name
// derived from it. The name is sha256 of the raw public key, so a node
// cannot pick its own position in the name space.
type PublicID struct {
	name xorname.XorName
	key  ed25519.PublicKey
}

// NewPublicID wraps a raw Ed25519 public key.
func NewPublicID(key ed25519.PublicKey) (PublicID, error) {
	if len(key) != ed25519.PublicKeySize {
		return PublicID{}, errors.New("identity: invalid public key length")
	}
	k := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(k, key)
	return PublicID{name: xorname.FromContent(k), key: k}, nil
}

// Name returns the node's network name.
func (p PublicID) Name() xorname.XorName {
	return p.name
}

// Key returns the raw public key.
func (p PublicID) Key() ed25519.PublicKey {
	out := make(ed25519.PublicKey, len(p.key))
	copy(out, p.key)
	return out
}

// Verify checks a signature produced by Sign over message.
func (p PublicID) Verify(message, signature []byte) bool {
	if len(p.key) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	digest := sha256.Sum256(message)
	return ed25519.Verify(p.key, digest[:], signature)
}

// Equal reports whether both IDs wrap the same public key.
func (p PublicID) Equal(other PublicID) bool {
	return p.name == other.name && string(p.key) == string(other.key)
}

// String renders the short name form used in logs.
func (p PublicID) String() string {
	return p.name.String()
}

// Encoded renders the key in the "ed25519:<base64>" display form.
func (p PublicID) Encoded() string {
	return "ed25519:" + base64.StdEncoding.EncodeToString(p.key)
}

// FullID is a node's full identity: PublicID plus signing capability.
type FullID struct {
	public  PublicID
	private ed25519.PrivateKey
}

// New generates a fresh identity. rand == nil uses crypto/rand.
func New(random io.Reader) (*FullID, error) {
	if random == nil {
		random = rand.Reader
	}
	pub, priv, err := ed25519.GenerateKey(random)
	if err != nil {
		return nil, err
	}
	id, err := NewPublicID(pub)
	if err != nil {
		return nil, err
	}
	return &FullID{public: id, private: priv}, nil
}

// FromSeed builds a deterministic identity from an Ed25519 seed.
func FromSeed(seed []byte) (*FullID, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("identity: seed must be %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	id, err := NewPublicID(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &FullID{public: id, private: priv}, nil
}

// Public returns the identity's public half.
func (f *FullID) Public() PublicID {
	return f.public
}

// Sign signs sha256(message) with the node's private key.
func (f *FullID) Sign(message []byte) []byte {
	digest := sha256.Sum256(message)
	return ed25519.Sign(f.private, digest[:])
}
