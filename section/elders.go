package section

import (
	"fmt"
	"sort"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/share"

	"github.com/sectormesh/routing/xorname"
)

// EldersInfo is what the membership layer tells this core about a section:
// which elders currently co-sign for it, at which share indices, and under
// which public polynomial and quorum threshold.
//
// EldersInfo is immutable after construction; membership changes are
// communicated by supplying a new value.
type EldersInfo struct {
	prefix    xorname.Prefix
	threshold int
	public    *share.PubPoly
	members   map[xorname.XorName]int
}

// NewEldersInfo validates and builds an EldersInfo. Share indices must be
// distinct; the threshold must be satisfiable by the member count.
func NewEldersInfo(prefix xorname.Prefix, threshold int, public *share.PubPoly, members map[xorname.XorName]int) (*EldersInfo, error) {
	if public == nil {
		return nil, fmt.Errorf("section: elders info needs a public polynomial")
	}
	if threshold < 1 {
		return nil, fmt.Errorf("section: invalid threshold %d", threshold)
	}
	if len(members) < threshold {
		return nil, fmt.Errorf("section: %d members cannot satisfy threshold %d", len(members), threshold)
	}
	seen := make(map[int]xorname.XorName, len(members))
	copied := make(map[xorname.XorName]int, len(members))
	for name, idx := range members {
		if idx < 0 {
			return nil, fmt.Errorf("section: negative share index for %s", name)
		}
		if other, dup := seen[idx]; dup {
			return nil, fmt.Errorf("section: share index %d claimed by both %s and %s", idx, other, name)
		}
		seen[idx] = name
		copied[name] = idx
	}
	return &EldersInfo{prefix: prefix, threshold: threshold, public: public, members: copied}, nil
}

// Prefix returns the section's prefix.
func (e *EldersInfo) Prefix() xorname.Prefix {
	return e.prefix
}

// Threshold returns the quorum threshold.
func (e *EldersInfo) Threshold() int {
	return e.threshold
}

// Count returns the number of current elders.
func (e *EldersInfo) Count() int {
	return len(e.members)
}

// Contains reports whether name is a current elder.
func (e *EldersInfo) Contains(name xorname.XorName) bool {
	_, ok := e.members[name]
	return ok
}

// IndexOf returns the share index an elder signs under.
func (e *EldersInfo) IndexOf(name xorname.XorName) (int, bool) {
	idx, ok := e.members[name]
	return idx, ok
}

// PubPoly returns the section's public polynomial.
func (e *EldersInfo) PubPoly() *share.PubPoly {
	return e.public
}

// PublicKey returns the section's collective public key.
func (e *EldersInfo) PublicKey() kyber.Point {
	return e.public.Commit()
}

// Names returns the elder names in a fixed order.
func (e *EldersInfo) Names() []xorname.XorName {
	out := make([]xorname.XorName, 0, len(e.members))
	for name := range e.members {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}
