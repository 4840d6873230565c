// Package location defines message source and destination locations in the
// section-routed name space.
package location

import (
	"fmt"

	"github.com/sectormesh/routing/xorname"
)

// DstKind discriminates destination locations.
type DstKind uint32

const (
	// DstNode addresses a single node by name.
	DstNode DstKind = iota + 1
	// DstSection addresses the whole section responsible for a name.
	DstSection
	// DstDirect addresses the peer on the other end of the connection;
	// it carries no name.
	DstDirect
)

// DstLocation is a closed union over the three destination kinds.
type DstLocation struct {
	kind DstKind
	name xorname.XorName
}

// NodeDst addresses the node with the given name.
func NodeDst(name xorname.XorName) DstLocation {
	return DstLocation{kind: DstNode, name: name}
}

// SectionDst addresses the section responsible for name.
func SectionDst(name xorname.XorName) DstLocation {
	return DstLocation{kind: DstSection, name: name}
}

// DirectDst addresses the directly connected peer.
func DirectDst() DstLocation {
	return DstLocation{kind: DstDirect}
}

func (d DstLocation) Kind() DstKind {
	return d.kind
}

// Name returns the destination name. Valid for DstNode and DstSection only.
func (d DstLocation) Name() (xorname.XorName, bool) {
	if d.kind == DstNode || d.kind == DstSection {
		return d.name, true
	}
	return xorname.XorName{}, false
}

// Equal reports structural equality.
func (d DstLocation) Equal(other DstLocation) bool {
	return d.kind == other.kind && d.name == other.name
}

// Contains reports whether a node with the given name and section prefix is
// one of the destination's recipients.
func (d DstLocation) Contains(name xorname.XorName, prefix xorname.Prefix) bool {
	switch d.kind {
	case DstNode:
		return d.name == name
	case DstSection:
		return prefix.Matches(d.name)
	case DstDirect:
		return true
	default:
		return false
	}
}

func (d DstLocation) String() string {
	switch d.kind {
	case DstNode:
		return fmt.Sprintf("Node(%s)", d.name)
	case DstSection:
		return fmt.Sprintf("Section(%s)", d.name)
	case DstDirect:
		return "Direct"
	default:
		return fmt.Sprintf("Invalid(%d)", d.kind)
	}
}

// Marshal encodes the destination for the wire and for signing bytes.
func (d DstLocation) Marshal() []byte {
	out := make([]byte, 4+xorname.Size)
	out[3] = byte(d.kind)
	copy(out[4:], d.name[:])
	return out
}

// UnmarshalDst decodes the form produced by Marshal.
func UnmarshalDst(b []byte) (DstLocation, error) {
	if len(b) != 4+xorname.Size {
		return DstLocation{}, fmt.Errorf("location: invalid dst encoding length %d", len(b))
	}
	kind := DstKind(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	name, err := xorname.FromBytes(b[4:])
	if err != nil {
		return DstLocation{}, err
	}
	switch kind {
	case DstNode, DstSection:
		return DstLocation{kind: kind, name: name}, nil
	case DstDirect:
		if name != (xorname.XorName{}) {
			return DstLocation{}, fmt.Errorf("location: direct dst carries a name")
		}
		return DstLocation{kind: kind}, nil
	default:
		return DstLocation{}, fmt.Errorf("location: unknown dst kind %d", kind)
	}
}

// SrcLocation names where a message came from: a single node or a section.
type SrcLocation struct {
	node    *xorname.XorName
	section xorname.Prefix
}

// NodeSrc is the source location of a single node.
func NodeSrc(name xorname.XorName) SrcLocation {
	n := name
	return SrcLocation{node: &n}
}

// SectionSrc is the source location of a section identified by its prefix.
func SectionSrc(prefix xorname.Prefix) SrcLocation {
	return SrcLocation{section: prefix}
}

// IsSection reports whether the source is a section.
func (s SrcLocation) IsSection() bool {
	return s.node == nil
}

// NodeName returns the node name for a node source.
func (s SrcLocation) NodeName() (xorname.XorName, bool) {
	if s.node != nil {
		return *s.node, true
	}
	return xorname.XorName{}, false
}

// SectionPrefix returns the prefix for a section source.
func (s SrcLocation) SectionPrefix() (xorname.Prefix, bool) {
	if s.node == nil {
		return s.section, true
	}
	return xorname.Prefix{}, false
}

func (s SrcLocation) String() string {
	if s.node != nil {
		return fmt.Sprintf("Node(%s)", *s.node)
	}
	return fmt.Sprintf("Section(%s)", s.section)
}
