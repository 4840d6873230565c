// Package xorname implements 256-bit network names and bit prefixes for the
// XOR name space sections are responsible for.
package xorname

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Size is the byte length of a network name.
const Size = 32

// XorName is a 256-bit name in the network address space.
type XorName [Size]byte

// FromBytes builds a name from exactly Size bytes.
func FromBytes(b []byte) (XorName, error) {
	var n XorName
	if len(b) != Size {
		return n, fmt.Errorf("xorname: need %d bytes, got %d", Size, len(b))
	}
	copy(n[:], b)
	return n, nil
}

// FromContent derives a name as sha256 of arbitrary content.
// Node names are derived this way from their public identity key.
func FromContent(content []byte) XorName {
	return XorName(sha256.Sum256(content))
}

func (n XorName) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, n[:])
	return out
}

// Bit returns bit i (0 = most significant bit of byte 0).
func (n XorName) Bit(i int) bool {
	if i < 0 || i >= Size*8 {
		return false
	}
	return n[i/8]&(1<<(7-uint(i%8))) != 0
}

// String renders the short hex form used in logs.
func (n XorName) String() string {
	return hex.EncodeToString(n[:4]) + ".."
}

// Hex renders the full hex form.
func (n XorName) Hex() string {
	return hex.EncodeToString(n[:])
}

// Cmp compares names as big-endian integers.
func (n XorName) Cmp(other XorName) int {
	return bytes.Compare(n[:], other[:])
}

// ParseHex parses a full 64-hex-char name.
func ParseHex(s string) (XorName, error) {
	var n XorName
	b, err := hex.DecodeString(s)
	if err != nil {
		return n, fmt.Errorf("xorname: invalid hex: %w", err)
	}
	if len(b) != Size {
		return n, errors.New("xorname: invalid hex length")
	}
	copy(n[:], b)
	return n, nil
}
