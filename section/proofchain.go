package section

import (
	"errors"
	"fmt"

	"go.dedis.ch/kyber/v4"
)

// ProofLink is one key transition: the new collective key plus the
// collective signature of the previous key over the new key's wire form.
type ProofLink struct {
	Key       kyber.Point
	Signature []byte
}

// ProofChain is the ordered evidence linking an old collective key to the
// section's current one through signed transitions.
//
// Contract:
// - the chain is append-only and owned; no shared mutable structure
// - link i's signature verifies under key i-1 (the head for i == 0)
// - LastKey is the key that signs section-authority messages
type ProofChain struct {
	head kyber.Point
	tail []ProofLink
}

// NewProofChain starts a chain at a genesis key.
func NewProofChain(genesis kyber.Point) (*ProofChain, error) {
	if genesis == nil {
		return nil, errors.New("section: nil genesis key")
	}
	return &ProofChain{head: genesis.Clone()}, nil
}

// ProofChainFromParts rebuilds a chain received from the wire. The caller
// must run SelfVerify before trusting any key in it.
func ProofChainFromParts(head kyber.Point, tail []ProofLink) (*ProofChain, error) {
	c, err := NewProofChain(head)
	if err != nil {
		return nil, err
	}
	for _, link := range tail {
		if link.Key == nil {
			return nil, errors.New("section: proof link with nil key")
		}
		c.tail = append(c.tail, ProofLink{
			Key:       link.Key.Clone(),
			Signature: append([]byte(nil), link.Signature...),
		})
	}
	return c, nil
}

// Extend appends a new key signed by the current last key. The signature
// is verified before the link is accepted.
func (c *ProofChain) Extend(newKey kyber.Point, sigByLast []byte) error {
	if newKey == nil {
		return errors.New("section: nil key in extension")
	}
	keyBytes, err := MarshalKey(newKey)
	if err != nil {
		return err
	}
	if err := VerifyCollective(c.LastKey(), keyBytes, sigByLast); err != nil {
		return fmt.Errorf("section: key transition not signed by current key: %w", err)
	}
	c.tail = append(c.tail, ProofLink{
		Key:       newKey.Clone(),
		Signature: append([]byte(nil), sigByLast...),
	})
	return nil
}

// SelfVerify checks every link's signature against its predecessor key.
func (c *ProofChain) SelfVerify() error {
	prev := c.head
	for i, link := range c.tail {
		keyBytes, err := MarshalKey(link.Key)
		if err != nil {
			return err
		}
		if err := VerifyCollective(prev, keyBytes, link.Signature); err != nil {
			return fmt.Errorf("section: proof link %d does not verify: %w", i, err)
		}
		prev = link.Key
	}
	return nil
}

// LastKey returns the chain's final, most recent key.
func (c *ProofChain) LastKey() kyber.Point {
	if len(c.tail) == 0 {
		return c.head
	}
	return c.tail[len(c.tail)-1].Key
}

// HeadKey returns the chain's oldest key.
func (c *ProofChain) HeadKey() kyber.Point {
	return c.head
}

// Links returns a copy of the transition links.
func (c *ProofChain) Links() []ProofLink {
	out := make([]ProofLink, 0, len(c.tail))
	for _, link := range c.tail {
		out = append(out, ProofLink{
			Key:       link.Key.Clone(),
			Signature: append([]byte(nil), link.Signature...),
		})
	}
	return out
}

// Len returns the number of keys in the chain (head included).
func (c *ProofChain) Len() int {
	return 1 + len(c.tail)
}

// Key returns the i-th key, head first.
func (c *ProofChain) Key(i int) (kyber.Point, error) {
	if i < 0 || i >= c.Len() {
		return nil, fmt.Errorf("section: key index %d out of range", i)
	}
	if i == 0 {
		return c.head, nil
	}
	return c.tail[i-1].Key, nil
}

// HasKey reports whether key appears anywhere in the chain.
func (c *ProofChain) HasKey(key kyber.Point) bool {
	if key == nil {
		return false
	}
	if c.head.Equal(key) {
		return true
	}
	for _, link := range c.tail {
		if link.Key.Equal(key) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (c *ProofChain) Clone() *ProofChain {
	out, _ := ProofChainFromParts(c.head, c.tail)
	return out
}
