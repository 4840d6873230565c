package xorname

import (
	"fmt"
	"strings"
)

// Prefix is a bit prefix of the name space. A section is responsible for
// every name its prefix matches.
//
// The zero Prefix has BitCount 0 and matches every name.
type Prefix struct {
	name     XorName
	bitCount int
}

// NewPrefix builds a prefix from the first bitCount bits of name.
// Bits past bitCount are cleared so equal prefixes compare equal.
func NewPrefix(name XorName, bitCount int) Prefix {
	if bitCount < 0 {
		bitCount = 0
	}
	if bitCount > Size*8 {
		bitCount = Size * 8
	}
	var masked XorName
	full := bitCount / 8
	copy(masked[:full], name[:full])
	if rem := bitCount % 8; rem != 0 {
		masked[full] = name[full] & (0xff << (8 - uint(rem)))
	}
	return Prefix{name: masked, bitCount: bitCount}
}

// ParsePrefix parses a binary-digit string such as "0110".
func ParsePrefix(s string) (Prefix, error) {
	if len(s) > Size*8 {
		return Prefix{}, fmt.Errorf("xorname: prefix too long (%d bits)", len(s))
	}
	var name XorName
	for i, c := range s {
		switch c {
		case '0':
		case '1':
			name[i/8] |= 1 << (7 - uint(i%8))
		default:
			return Prefix{}, fmt.Errorf("xorname: invalid prefix digit %q", c)
		}
	}
	return NewPrefix(name, len(s)), nil
}

// BitCount returns the prefix length in bits.
func (p Prefix) BitCount() int {
	return p.bitCount
}

// Name returns the masked base name of the prefix.
func (p Prefix) Name() XorName {
	return p.name
}

// Matches reports whether name lies under this prefix.
func (p Prefix) Matches(name XorName) bool {
	for i := 0; i < p.bitCount; i++ {
		if p.name.Bit(i) != name.Bit(i) {
			return false
		}
	}
	return true
}

// IsCompatible reports whether one of p, other is a prefix of the other.
// Ancestor/descendant pairs are compatible; siblings are not.
func (p Prefix) IsCompatible(other Prefix) bool {
	shorter := p
	longer := other
	if shorter.bitCount > longer.bitCount {
		shorter, longer = longer, shorter
	}
	return shorter.Matches(longer.name)
}

// Equal reports prefix equality (same bits, same length).
func (p Prefix) Equal(other Prefix) bool {
	return p.bitCount == other.bitCount && p.name == other.name
}

// Extended returns p extended by one bit.
func (p Prefix) Extended(bit bool) Prefix {
	name := p.name
	if bit && p.bitCount < Size*8 {
		name[p.bitCount/8] |= 1 << (7 - uint(p.bitCount%8))
	}
	return NewPrefix(name, p.bitCount+1)
}

// String renders the prefix as binary digits, e.g. "01101".
func (p Prefix) String() string {
	var b strings.Builder
	for i := 0; i < p.bitCount; i++ {
		if p.name.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Marshal encodes the prefix for the wire as bit count + masked name.
func (p Prefix) Marshal() []byte {
	out := make([]byte, 2+Size)
	out[0] = byte(p.bitCount >> 8)
	out[1] = byte(p.bitCount)
	copy(out[2:], p.name[:])
	return out
}

// UnmarshalPrefix decodes the wire form produced by Marshal.
func UnmarshalPrefix(b []byte) (Prefix, error) {
	if len(b) != 2+Size {
		return Prefix{}, fmt.Errorf("xorname: invalid prefix encoding length %d", len(b))
	}
	bitCount := int(b[0])<<8 | int(b[1])
	if bitCount > Size*8 {
		return Prefix{}, fmt.Errorf("xorname: invalid prefix bit count %d", bitCount)
	}
	name, err := FromBytes(b[2:])
	if err != nil {
		return Prefix{}, err
	}
	p := NewPrefix(name, bitCount)
	if p.name != name {
		return Prefix{}, fmt.Errorf("xorname: prefix has set bits past bit count")
	}
	return p, nil
}
