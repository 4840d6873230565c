package section

import (
	"sort"
	"strings"

	"go.dedis.ch/kyber/v4"

	"github.com/sectormesh/routing/xorname"
)

// TrustedKey pairs a section prefix with the collective key the local node
// currently trusts for it.
type TrustedKey struct {
	Prefix xorname.Prefix
	Key    kyber.Point
}

// TrustedKeys is an immutable snapshot of the local trusted-key table,
// ordered longest prefix first. Verification is a pure function of such a
// snapshot; callers must not hand it a live mutable table.
//
// Longer prefixes come first because section keys are superseded over time
// and a longer prefix implies more specific, fresher trust.
type TrustedKeys []TrustedKey

// NewTrustedKeys copies pairs into a snapshot. Ties between equal-length
// prefixes break on the prefix bit pattern so iteration order is
// deterministic.
func NewTrustedKeys(pairs []TrustedKey) TrustedKeys {
	out := make(TrustedKeys, 0, len(pairs))
	for _, p := range pairs {
		if p.Key == nil {
			continue
		}
		out = append(out, TrustedKey{Prefix: p.Prefix, Key: p.Key.Clone()})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Prefix.BitCount() != out[j].Prefix.BitCount() {
			return out[i].Prefix.BitCount() > out[j].Prefix.BitCount()
		}
		return out[i].Prefix.String() < out[j].Prefix.String()
	})
	return out
}

// Anchors returns the trusted entries whose prefix is compatible with the
// claimed source prefix, most specific first.
func (t TrustedKeys) Anchors(src xorname.Prefix) []TrustedKey {
	var out []TrustedKey
	for _, entry := range t {
		if entry.Prefix.IsCompatible(src) {
			out = append(out, entry)
		}
	}
	return out
}

// KnownKey returns the trusted key recorded for exactly this prefix.
func (t TrustedKeys) KnownKey(prefix xorname.Prefix) (kyber.Point, bool) {
	for _, entry := range t {
		if entry.Prefix.Equal(prefix) {
			return entry.Key, true
		}
	}
	return nil, false
}

// String renders the snapshot's prefixes for logging.
func (t TrustedKeys) String() string {
	parts := make([]string, 0, len(t))
	for _, entry := range t {
		p := entry.Prefix.String()
		if p == "" {
			p = "(root)"
		}
		parts = append(parts, p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
