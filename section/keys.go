// Package section implements section collective keys: threshold BLS key
// shares, the proof chain of key transitions, and trusted-key snapshots
// used to anchor verification.
package section

import (
	"errors"
	"fmt"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/pairing/bn256"
	"go.dedis.ch/kyber/v4/share"
	"go.dedis.ch/kyber/v4/sign/bls"
	"go.dedis.ch/kyber/v4/sign/tbls"
)

// The pairing suite for all section keys. Signatures live on G1, public
// keys on G2.
var (
	suite      = bn256.NewSuite()
	blsScheme  = bls.NewSchemeOnG1(suite)
	tblsScheme = tbls.NewThresholdSchemeOnG1(suite)
)

// MarshalKey encodes a collective public key for the wire.
func MarshalKey(key kyber.Point) ([]byte, error) {
	if key == nil {
		return nil, errors.New("section: nil key")
	}
	return key.MarshalBinary()
}

// UnmarshalKey decodes a collective public key from its wire form.
func UnmarshalKey(b []byte) (kyber.Point, error) {
	p := suite.G2().Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("section: invalid public key: %w", err)
	}
	return p, nil
}

// KeyEqual reports whether two collective keys are the same point.
func KeyEqual(a, b kyber.Point) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// VerifyCollective checks a combined threshold signature against a
// collective public key.
func VerifyCollective(key kyber.Point, message, signature []byte) error {
	if key == nil {
		return errors.New("section: nil key")
	}
	return blsScheme.Verify(key, message, signature)
}

// VerifyShare checks a single elder's signature share against the section's
// public polynomial. The share's embedded index selects the evaluation
// point.
func VerifyShare(public *share.PubPoly, message, sigShare []byte) error {
	if public == nil {
		return errors.New("section: nil public polynomial")
	}
	return tblsScheme.VerifyPartial(public, message, sigShare)
}

// ShareIndex extracts the elder index embedded in a signature share.
func ShareIndex(sigShare []byte) (int, error) {
	return tblsScheme.IndexOf(sigShare)
}

// RecoverCollective combines at least threshold distinct valid signature
// shares into the section's collective signature. The result is the unique
// signature under the group secret, independent of which quorum subset or
// arrival order produced it.
func RecoverCollective(public *share.PubPoly, message []byte, sigShares [][]byte, threshold, n int) ([]byte, error) {
	if public == nil {
		return nil, errors.New("section: nil public polynomial")
	}
	return tblsScheme.Recover(public, message, sigShares, threshold, n)
}

// KeyShare is one elder's slice of the section's secret key, plus the
// public polynomial every elder agrees on.
type KeyShare struct {
	Index   int
	Private *share.PriShare
	Public  *share.PubPoly
}

// SignShare produces this elder's signature share over message.
func (k *KeyShare) SignShare(message []byte) ([]byte, error) {
	if k == nil || k.Private == nil {
		return nil, errors.New("section: incomplete key share")
	}
	return tblsScheme.Sign(k.Private, message)
}

// PublicKey returns the section's collective public key.
func (k *KeyShare) PublicKey() kyber.Point {
	if k == nil || k.Public == nil {
		return nil
	}
	return k.Public.Commit()
}

// KeySet is the dealer-side output of a threshold key generation: the
// public polynomial plus one private share per elder. Distributed key
// generation is outside this package; tests and tooling deal keys directly.
type KeySet struct {
	Threshold int
	N         int
	Public    *share.PubPoly
	Shares    []*share.PriShare
}

// GenerateKeySet deals a fresh (threshold, n) key set. A non-empty seed
// makes the result deterministic.
func GenerateKeySet(threshold, n int, seed []byte) (*KeySet, error) {
	if threshold < 1 || n < threshold {
		return nil, fmt.Errorf("section: invalid threshold %d of %d", threshold, n)
	}
	stream := suite.RandomStream()
	if len(seed) > 0 {
		stream = suite.XOF(seed)
	}
	priPoly := share.NewPriPoly(suite.G2(), threshold, nil, stream)
	pubPoly := priPoly.Commit(suite.G2().Point().Base())
	return &KeySet{
		Threshold: threshold,
		N:         n,
		Public:    pubPoly,
		Shares:    priPoly.Shares(n),
	}, nil
}

// KeyShareFor returns elder i's KeyShare.
func (s *KeySet) KeyShareFor(i int) (*KeyShare, error) {
	if i < 0 || i >= len(s.Shares) {
		return nil, fmt.Errorf("section: no share for index %d", i)
	}
	return &KeyShare{Index: i, Private: s.Shares[i], Public: s.Public}, nil
}

// PublicKey returns the dealt collective public key.
func (s *KeySet) PublicKey() kyber.Point {
	return s.Public.Commit()
}

// SignCollective signs message with threshold shares and combines the
// result. Intended for tests and tooling where one process holds the whole
// key set, e.g. when publishing a proof chain transition.
func (s *KeySet) SignCollective(message []byte) ([]byte, error) {
	sigShares := make([][]byte, 0, s.Threshold)
	for i := 0; i < s.Threshold; i++ {
		ks, err := s.KeyShareFor(i)
		if err != nil {
			return nil, err
		}
		sig, err := ks.SignShare(message)
		if err != nil {
			return nil, err
		}
		sigShares = append(sigShares, sig)
	}
	return RecoverCollective(s.Public, message, sigShares, s.Threshold, s.N)
}
